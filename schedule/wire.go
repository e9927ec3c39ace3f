package schedule

import (
	"fmt"
	"time"
)

// WireDay is the JSON shape of a template entry on the remote API.
// Times are "HH:MM:SS" strings.
type WireDay struct {
	DayOfWeek    int     `json:"day_of_week"`
	IsWorkingDay bool    `json:"is_working_day"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakStart   *string `json:"break_start"`
	BreakEnd     *string `json:"break_end"`
}

// WireDate is the JSON shape of a date override.
type WireDate struct {
	Date         string  `json:"date"`
	IsWorkingDay bool    `json:"is_working_day"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakStart   *string `json:"break_start"`
	BreakEnd     *string `json:"break_end"`
}

// WireSchedule is the body of GET /api/schedule.
type WireSchedule struct {
	WorkingHours []WireDay  `json:"working_hours"`
	WorkingDays  []WireDate `json:"working_days,omitempty"`
}

type WireRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type WireBooked struct {
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
}

// WireAvailability is the body of the availability endpoints.
type WireAvailability struct {
	Date         string       `json:"date"`
	IsWorkingDay bool         `json:"is_working_day"`
	Message      string       `json:"message,omitempty"`
	WorkingHours *WireRange   `json:"working_hours"`
	Break        *WireRange   `json:"break"`
	BookedSlots  []WireBooked `json:"booked_slots"`
}

func decodeConfig(working bool, start, end, breakStart, breakEnd *string) (DayConfig, error) {
	cfg := DayConfig{IsWorkingDay: working, StartTime: DefaultStartTime, EndTime: DefaultEndTime}

	if start == nil || end == nil {
		if working {
			return DayConfig{}, &FormatError{Value: "", Reason: "working day without start or end time"}
		}
	} else {
		var err error
		if cfg.StartTime, err = ParseTime(*start); err != nil {
			return DayConfig{}, err
		}
		if cfg.EndTime, err = ParseTime(*end); err != nil {
			return DayConfig{}, err
		}
	}

	// A break with a missing end is treated as no break.
	if breakStart != nil && breakEnd != nil && *breakStart != "" && *breakEnd != "" {
		bs, err := ParseTime(*breakStart)
		if err != nil {
			return DayConfig{}, err
		}
		be, err := ParseTime(*breakEnd)
		if err != nil {
			return DayConfig{}, err
		}
		cfg.BreakStart, cfg.BreakEnd = &bs, &be
	}
	return cfg, nil
}

func encodeConfig(cfg DayConfig) (start, end, breakStart, breakEnd *string) {
	s, e := FormatWireTime(cfg.StartTime), FormatWireTime(cfg.EndTime)
	start, end = &s, &e
	if cfg.HasBreak() {
		bs, be := FormatWireTime(*cfg.BreakStart), FormatWireTime(*cfg.BreakEnd)
		breakStart, breakEnd = &bs, &be
	}
	return
}

// DayFromWire converts a wire template entry.
func DayFromWire(w WireDay) (DayTemplate, error) {
	if w.DayOfWeek < 0 || w.DayOfWeek >= DaysInWeek {
		return DayTemplate{}, ErrInvalidDay
	}
	cfg, err := decodeConfig(w.IsWorkingDay, w.StartTime, w.EndTime, w.BreakStart, w.BreakEnd)
	if err != nil {
		return DayTemplate{}, fmt.Errorf("%s: %w", DayName(w.DayOfWeek), err)
	}
	return DayTemplate{DayOfWeek: w.DayOfWeek, DayConfig: cfg}, nil
}

func DayToWire(d DayTemplate) WireDay {
	w := WireDay{DayOfWeek: d.DayOfWeek, IsWorkingDay: d.IsWorkingDay}
	w.StartTime, w.EndTime, w.BreakStart, w.BreakEnd = encodeConfig(d.DayConfig)
	return w
}

// DateFromWire converts a wire override. The date may carry a time part.
func DateFromWire(w WireDate) (DateOverride, error) {
	date := w.Date
	if len(date) > len(DateLayout) {
		date = date[:len(DateLayout)]
	}
	if _, err := ParseDate(date); err != nil {
		return DateOverride{}, err
	}
	cfg, err := decodeConfig(w.IsWorkingDay, w.StartTime, w.EndTime, w.BreakStart, w.BreakEnd)
	if err != nil {
		return DateOverride{}, fmt.Errorf("%s: %w", date, err)
	}
	return DateOverride{Date: date, DayConfig: cfg}, nil
}

func DateToWire(o DateOverride) WireDate {
	w := WireDate{Date: o.Date, IsWorkingDay: o.IsWorkingDay}
	w.StartTime, w.EndTime, w.BreakStart, w.BreakEnd = encodeConfig(o.DayConfig)
	return w
}

// FromWire converts a full schedule payload. Unknown days are skipped so
// Initialize can synthesize defaults; a missing working_days is empty.
func FromWire(w WireSchedule) ([]DayTemplate, []DateOverride, error) {
	days := make([]DayTemplate, 0, len(w.WorkingHours))
	for _, wd := range w.WorkingHours {
		if wd.DayOfWeek < 0 || wd.DayOfWeek >= DaysInWeek {
			continue
		}
		d, err := DayFromWire(wd)
		if err != nil {
			return nil, nil, err
		}
		days = append(days, d)
	}
	overrides := make([]DateOverride, 0, len(w.WorkingDays))
	for _, wd := range w.WorkingDays {
		o, err := DateFromWire(wd)
		if err != nil {
			return nil, nil, err
		}
		overrides = append(overrides, o)
	}
	return days, overrides, nil
}

func TemplateToWire(days [DaysInWeek]DayTemplate) []WireDay {
	out := make([]WireDay, 0, DaysInWeek)
	for _, d := range days {
		out = append(out, DayToWire(d))
	}
	return out
}

func OverridesToWire(list []DateOverride) []WireDate {
	out := make([]WireDate, 0, len(list))
	for _, o := range list {
		out = append(out, DateToWire(o))
	}
	return out
}

var bookedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseBookedStart parses a booking start timestamp. Timestamps without an
// offset are read in loc.
func ParseBookedStart(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range bookedLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FormatError{Value: value, Reason: "expected an ISO datetime"}
}

// Availability is the decoded form of WireAvailability.
type Availability struct {
	Date    time.Time
	Config  DayConfig
	Booked  []BookedInterval
	Message string
}

// AvailabilityFromWire decodes an availability payload into a DayConfig
// suitable for GenerateSlots. Booked starts without an offset are read in loc.
func AvailabilityFromWire(w WireAvailability, loc *time.Location) (Availability, error) {
	date, err := ParseDate(w.Date)
	if err != nil {
		return Availability{}, err
	}
	out := Availability{Date: date, Message: w.Message, Booked: []BookedInterval{}}

	var start, end, bs, be *string
	if w.WorkingHours != nil {
		start, end = &w.WorkingHours.Start, &w.WorkingHours.End
	}
	if w.Break != nil {
		bs, be = &w.Break.Start, &w.Break.End
	}
	working := w.IsWorkingDay && w.WorkingHours != nil
	if out.Config, err = decodeConfig(working, start, end, bs, be); err != nil {
		return Availability{}, err
	}

	for _, b := range w.BookedSlots {
		t, err := ParseBookedStart(b.Start, loc)
		if err != nil {
			return Availability{}, err
		}
		out.Booked = append(out.Booked, BookedInterval{Start: t, DurationMinutes: b.DurationMinutes})
	}
	return out, nil
}
