package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds every valid minute offset: [0, MinutesPerDay).
const MinutesPerDay = 24 * 60

// DateLayout is the ISO calendar date format used for override keys and query params.
const DateLayout = "2006-01-02"

// Minutes is an offset from midnight.
type Minutes int

// FormatError reports a malformed time or date string.
type FormatError struct {
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Value, e.Reason)
}

// ParseTime converts "HH:MM" or "HH:MM:SS" into minutes since midnight.
// Seconds must be zero; the schedule works at minute precision.
func ParseTime(value string) (Minutes, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &FormatError{Value: value, Reason: "expected HH:MM or HH:MM:SS"}
	}

	hours, err := parseField(value, parts[0], 23)
	if err != nil {
		return 0, err
	}
	minutes, err := parseField(value, parts[1], 59)
	if err != nil {
		return 0, err
	}
	if len(parts) == 3 {
		seconds, err := parseField(value, parts[2], 59)
		if err != nil {
			return 0, err
		}
		if seconds != 0 {
			return 0, &FormatError{Value: value, Reason: "sub-minute precision is not supported"}
		}
	}

	return Minutes(hours*60 + minutes), nil
}

func parseField(value, field string, max int) (int, error) {
	if len(field) != 2 {
		return 0, &FormatError{Value: value, Reason: "each field must have two digits"}
	}
	if field[0] < '0' || field[0] > '9' || field[1] < '0' || field[1] > '9' {
		return 0, &FormatError{Value: value, Reason: "non-numeric field"}
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, &FormatError{Value: value, Reason: "non-numeric field"}
	}
	if n > max {
		return 0, &FormatError{Value: value, Reason: fmt.Sprintf("field %s out of range", field)}
	}
	return n, nil
}

// FormatTime renders minutes since midnight as "HH:MM".
func FormatTime(m Minutes) string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// FormatWireTime renders minutes since midnight as "HH:MM:SS", the precision the API expects.
func FormatWireTime(m Minutes) string {
	return FormatTime(m) + ":00"
}

// NormalizeToSeconds turns "HH:MM" into "HH:MM:00". Already normalized input passes through.
func NormalizeToSeconds(value string) (string, error) {
	m, err := ParseTime(value)
	if err != nil {
		return "", err
	}
	return FormatWireTime(m), nil
}

// DayOfWeek maps a date onto the template index used everywhere in this
// package: 0=Monday .. 6=Sunday. time.Weekday counts from Sunday.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseDate parses an ISO "YYYY-MM-DD" date at midnight UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &FormatError{Value: value, Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

// FormatDate renders the calendar date of t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayName returns the English name of a Monday-based day index.
func DayName(day int) string {
	if day < 0 || day >= DaysInWeek {
		return fmt.Sprintf("day %d", day)
	}
	return dayNames[day]
}

var dayNames = [DaysInWeek]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}
