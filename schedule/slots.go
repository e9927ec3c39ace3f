package schedule

import "time"

// SlotStride is the distance between candidate start times.
const SlotStride Minutes = 30

// Slot is a candidate appointment start. Booked slots are still listed so a
// client can render them disabled.
type Slot struct {
	Time   Minutes
	Booked bool
}

// Label renders the slot start as "HH:MM".
func (s Slot) Label() string {
	return FormatTime(s.Time)
}

// SlotResult separates "the business is closed" from "nothing fits".
type SlotResult struct {
	DayOff bool
	Slots  []Slot
}

// NoSlotsFit reports a working day on which no candidate survived.
func (r SlotResult) NoSlotsFit() bool {
	return !r.DayOff && len(r.Slots) == 0
}

// Available returns only the slots that are not booked.
func (r SlotResult) Available() []Slot {
	out := make([]Slot, 0, len(r.Slots))
	for _, s := range r.Slots {
		if !s.Booked {
			out = append(out, s)
		}
	}
	return out
}

type interval struct {
	start, end Minutes
}

func overlaps(a, b interval) bool {
	return a.start < b.end && b.start < a.end
}

// GenerateSlots lists start times from StartTime to EndTime-duration
// inclusive, every SlotStride minutes. Candidates overlapping the break are
// dropped; candidates overlapping a booking are kept and flagged.
//
// Bookings are placed by their wall-clock start in loc, the business
// timezone, so a daylight-saving change on date does not shift them. Parts
// that fall on another day are clipped. A nil loc means date's location.
func GenerateSlots(cfg DayConfig, duration int, booked []BookedInterval, date time.Time, loc *time.Location) SlotResult {
	if !cfg.IsWorkingDay {
		return SlotResult{DayOff: true, Slots: []Slot{}}
	}
	result := SlotResult{Slots: []Slot{}}
	if duration <= 0 {
		return result
	}

	var brk *interval
	if cfg.HasBreak() {
		brk = &interval{start: *cfg.BreakStart, end: *cfg.BreakEnd}
	}
	busy := bookedOffsets(booked, date, loc)

	d := Minutes(duration)
	for t := cfg.StartTime; t+d <= cfg.EndTime; t += SlotStride {
		candidate := interval{start: t, end: t + d}
		if brk != nil && overlaps(candidate, *brk) {
			continue
		}
		slot := Slot{Time: t}
		for _, b := range busy {
			if overlaps(candidate, b) {
				slot.Booked = true
				break
			}
		}
		result.Slots = append(result.Slots, slot)
	}
	return result
}

func bookedOffsets(booked []BookedInterval, date time.Time, loc *time.Location) []interval {
	if loc == nil {
		loc = date.Location()
	}
	day := civilDay(date)
	out := make([]interval, 0, len(booked))
	for _, b := range booked {
		if b.DurationMinutes <= 0 {
			continue
		}
		start := b.Start.In(loc)
		end := start.Add(time.Duration(b.DurationMinutes) * time.Minute)

		var iv interval
		switch sd := civilDay(start); {
		case sd.Equal(day):
			iv.start = wallClock(start)
			iv.end = iv.start + Minutes(b.DurationMinutes)
		case sd.Before(day):
			ed := civilDay(end)
			if ed.Before(day) {
				continue
			}
			iv.start = 0
			iv.end = MinutesPerDay
			if ed.Equal(day) {
				iv.end = wallClock(end)
			}
		default:
			continue
		}
		if iv.end > MinutesPerDay {
			iv.end = MinutesPerDay
		}
		if iv.end <= iv.start {
			continue
		}
		out = append(out, iv)
	}
	return out
}

// civilDay strips the clock and zone so calendar dates compare directly.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func wallClock(t time.Time) Minutes {
	return Minutes(t.Hour()*60 + t.Minute())
}
