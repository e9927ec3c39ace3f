package schedule

import (
	"fmt"
	"strings"
)

// ValidationError carries every problem found so a client can show them at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid schedule: " + strings.Join(e.Problems, "; ")
}

// ValidateDayConfig returns the violations of cfg; empty means valid.
// Non-working days are always valid.
func ValidateDayConfig(cfg DayConfig) []string {
	problems := []string{}
	if !cfg.IsWorkingDay {
		return problems
	}
	if !inDay(cfg.StartTime) || !inDay(cfg.EndTime) {
		problems = append(problems, "working hours must be within 00:00-23:59")
	}
	if cfg.StartTime >= cfg.EndTime {
		problems = append(problems, fmt.Sprintf("start time %s must be before end time %s",
			FormatTime(cfg.StartTime), FormatTime(cfg.EndTime)))
	}
	if (cfg.BreakStart == nil) != (cfg.BreakEnd == nil) {
		problems = append(problems, "break needs both a start and an end")
		return problems
	}
	if !cfg.HasBreak() {
		return problems
	}
	bs, be := *cfg.BreakStart, *cfg.BreakEnd
	if bs >= be {
		problems = append(problems, fmt.Sprintf("break start %s must be before break end %s",
			FormatTime(bs), FormatTime(be)))
	}
	if bs < cfg.StartTime || be > cfg.EndTime {
		problems = append(problems, fmt.Sprintf("break %s-%s must be within working hours %s-%s",
			FormatTime(bs), FormatTime(be), FormatTime(cfg.StartTime), FormatTime(cfg.EndTime)))
	}
	return problems
}

// ValidateTemplate checks all seven days and prefixes messages with the day name.
func ValidateTemplate(days [DaysInWeek]DayTemplate) error {
	var problems []string
	for i, d := range days {
		for _, p := range ValidateDayConfig(d.DayConfig) {
			problems = append(problems, DayName(i)+": "+p)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateOverrides checks a batch of overrides and prefixes messages with the date.
func ValidateOverrides(list []DateOverride) error {
	var problems []string
	for _, o := range list {
		for _, p := range ValidateDayConfig(o.DayConfig) {
			problems = append(problems, o.Date+": "+p)
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func inDay(m Minutes) bool {
	return m >= 0 && m < MinutesPerDay
}
