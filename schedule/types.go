// Package schedule holds the working-hours model shared by the schedule
// editor and the public booking page: a weekly template, per-date overrides,
// the calendar view built on top of them and slot generation.
package schedule

import (
	"errors"
	"time"
)

// DaysInWeek is the number of template entries; indices run 0=Monday .. 6=Sunday.
const DaysInWeek = 7

// ErrInvalidDay is returned for a day-of-week index outside [0, 6].
var ErrInvalidDay = errors.New("day of week must be between 0 (Monday) and 6 (Sunday)")

// DayConfig is the working configuration of a single day.
type DayConfig struct {
	IsWorkingDay bool
	StartTime    Minutes
	EndTime      Minutes
	BreakStart   *Minutes
	BreakEnd     *Minutes
}

// HasBreak reports whether both ends of the break are set.
func (c DayConfig) HasBreak() bool {
	return c.BreakStart != nil && c.BreakEnd != nil
}

// Clone returns a copy that shares no pointers with c.
func (c DayConfig) Clone() DayConfig {
	out := c
	out.BreakStart = copyMinutes(c.BreakStart)
	out.BreakEnd = copyMinutes(c.BreakEnd)
	return out
}

// Equal compares two configs field by field, including break pointers by value.
func (c DayConfig) Equal(o DayConfig) bool {
	return c.IsWorkingDay == o.IsWorkingDay &&
		c.StartTime == o.StartTime &&
		c.EndTime == o.EndTime &&
		equalMinutes(c.BreakStart, o.BreakStart) &&
		equalMinutes(c.BreakEnd, o.BreakEnd)
}

// DayTemplate is the default schedule for one day of the week.
type DayTemplate struct {
	DayOfWeek int
	DayConfig
}

// DateOverride replaces the template for one calendar date ("YYYY-MM-DD").
type DateOverride struct {
	Date string
	DayConfig
}

// BookedInterval is an existing appointment, used only to flag slots.
type BookedInterval struct {
	Start           time.Time
	DurationMinutes int
}

// DayConfigPatch is a partial update. Nil fields are left untouched;
// ClearBreak removes the break and wins over BreakStart/BreakEnd.
type DayConfigPatch struct {
	IsWorkingDay *bool
	StartTime    *Minutes
	EndTime      *Minutes
	BreakStart   *Minutes
	BreakEnd     *Minutes
	ClearBreak   bool
}

// Apply returns base with the patch written over it. base is not modified.
func (p DayConfigPatch) Apply(base DayConfig) DayConfig {
	out := base.Clone()
	if p.IsWorkingDay != nil {
		out.IsWorkingDay = *p.IsWorkingDay
	}
	if p.StartTime != nil {
		out.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		out.EndTime = *p.EndTime
	}
	if p.ClearBreak {
		out.BreakStart = nil
		out.BreakEnd = nil
		return out
	}
	if p.BreakStart != nil {
		out.BreakStart = copyMinutes(p.BreakStart)
	}
	if p.BreakEnd != nil {
		out.BreakEnd = copyMinutes(p.BreakEnd)
	}
	return out
}

// IsEmpty reports whether applying the patch would change nothing.
func (p DayConfigPatch) IsEmpty() bool {
	return p.IsWorkingDay == nil && p.StartTime == nil && p.EndTime == nil &&
		p.BreakStart == nil && p.BreakEnd == nil && !p.ClearBreak
}

// PatchFrom builds a patch that sets every field of cfg.
func PatchFrom(cfg DayConfig) DayConfigPatch {
	working := cfg.IsWorkingDay
	start := cfg.StartTime
	end := cfg.EndTime
	p := DayConfigPatch{
		IsWorkingDay: &working,
		StartTime:    &start,
		EndTime:      &end,
	}
	if cfg.HasBreak() {
		p.BreakStart = copyMinutes(cfg.BreakStart)
		p.BreakEnd = copyMinutes(cfg.BreakEnd)
	} else {
		p.ClearBreak = true
	}
	return p
}

// MinutesPtr is a small helper for building configs and patches.
func MinutesPtr(m Minutes) *Minutes {
	return &m
}

func copyMinutes(m *Minutes) *Minutes {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

func equalMinutes(a, b *Minutes) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
