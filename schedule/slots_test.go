package schedule

import (
	"testing"
	"time"
)

func slotLabels(slots []Slot) map[string]bool {
	out := make(map[string]bool, len(slots))
	for _, s := range slots {
		out[s.Label()] = s.Booked
	}
	return out
}

func TestGenerateSlots_DayOff(t *testing.T) {
	day := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	res := GenerateSlots(DayConfig{IsWorkingDay: false, StartTime: 540, EndTime: 1080}, 30, nil, day, nil)
	if !res.DayOff {
		t.Fatal("expected day off flag")
	}
	if len(res.Slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(res.Slots))
	}
	if res.NoSlotsFit() {
		t.Error("day off must be distinguishable from no slots fitting")
	}
}

func TestGenerateSlots_SkipsBreak(t *testing.T) {
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	cfg := DayConfig{
		IsWorkingDay: true,
		StartTime:    9 * 60,
		EndTime:      18 * 60,
		BreakStart:   MinutesPtr(13 * 60),
		BreakEnd:     MinutesPtr(14 * 60),
	}
	res := GenerateSlots(cfg, 30, nil, day, nil)
	labels := slotLabels(res.Slots)

	for _, want := range []string{"09:00", "12:30", "14:00", "17:30"} {
		if _, ok := labels[want]; !ok {
			t.Errorf("expected slot %s", want)
		}
	}
	for _, unwanted := range []string{"13:00", "13:30", "18:00"} {
		if _, ok := labels[unwanted]; ok {
			t.Errorf("unexpected slot %s", unwanted)
		}
	}
	// 09:00..17:30 is 18 candidates, minus two in the break.
	if len(res.Slots) != 16 {
		t.Errorf("expected 16 slots, got %d", len(res.Slots))
	}
	for i := 1; i < len(res.Slots); i++ {
		if res.Slots[i].Time <= res.Slots[i-1].Time {
			t.Fatal("expected slots in ascending order")
		}
	}
}

func TestGenerateSlots_LongServiceStraddlingBreak(t *testing.T) {
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	cfg := DayConfig{IsWorkingDay: true, StartTime: 12 * 60, EndTime: 15 * 60,
		BreakStart: MinutesPtr(13 * 60), BreakEnd: MinutesPtr(14 * 60)}
	res := GenerateSlots(cfg, 60, nil, day, nil)
	labels := slotLabels(res.Slots)
	if _, ok := labels["12:30"]; ok {
		t.Error("12:30 + 60min overlaps the break")
	}
	if _, ok := labels["12:00"]; !ok {
		t.Error("12:00 + 60min ends exactly at the break and should be offered")
	}
	if _, ok := labels["14:00"]; !ok {
		t.Error("expected 14:00")
	}
}

func TestGenerateSlots_NothingFits(t *testing.T) {
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	res := GenerateSlots(DayConfig{IsWorkingDay: true, StartTime: 9 * 60, EndTime: 10 * 60}, 90, nil, day, nil)
	if res.DayOff {
		t.Error("expected working day")
	}
	if len(res.Slots) != 0 {
		t.Fatalf("expected empty sequence, got %d slots", len(res.Slots))
	}
	if !res.NoSlotsFit() {
		t.Error("expected NoSlotsFit")
	}
}

func TestGenerateSlots_FlagsBooked(t *testing.T) {
	day := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	start, err := ParseBookedStart("2025-11-01T10:00", time.UTC)
	if err != nil {
		t.Fatalf("ParseBookedStart: %v", err)
	}
	booked := []BookedInterval{{Start: start, DurationMinutes: 60}}
	res := GenerateSlots(DayConfig{IsWorkingDay: true, StartTime: 9 * 60, EndTime: 18 * 60}, 30, booked, day, nil)
	labels := slotLabels(res.Slots)

	if b, ok := labels["10:00"]; !ok || !b {
		t.Errorf("expected 10:00 present and booked, got present=%v booked=%v", ok, b)
	}
	if b, ok := labels["10:30"]; !ok || !b {
		t.Error("expected 10:30 booked")
	}
	if b := labels["09:00"]; b {
		t.Error("expected 09:00 not booked")
	}
	if b := labels["11:00"]; b {
		t.Error("expected 11:00 free, booking ends at 11:00")
	}
	if len(res.Available()) != len(res.Slots)-2 {
		t.Errorf("expected two booked slots filtered out, got %d of %d", len(res.Available()), len(res.Slots))
	}
}

func TestGenerateSlots_IgnoresOtherDaysAndClips(t *testing.T) {
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	booked := []BookedInterval{
		{Start: time.Date(2025, 11, 4, 10, 0, 0, 0, time.UTC), DurationMinutes: 60},
		// Starts the previous evening and runs until 09:30.
		{Start: time.Date(2025, 11, 2, 23, 0, 0, 0, time.UTC), DurationMinutes: 630},
	}
	res := GenerateSlots(DayConfig{IsWorkingDay: true, StartTime: 9 * 60, EndTime: 11 * 60}, 30, booked, day, nil)
	labels := slotLabels(res.Slots)
	if !labels["09:00"] {
		t.Error("expected 09:00 booked by the overnight interval")
	}
	if labels["09:30"] || labels["10:00"] {
		t.Error("expected booking on another day to be ignored")
	}
}

func TestGenerateSlots_NonPositiveDuration(t *testing.T) {
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	res := GenerateSlots(DayConfig{IsWorkingDay: true, StartTime: 540, EndTime: 600}, 0, nil, day, nil)
	if res.DayOff || len(res.Slots) != 0 {
		t.Errorf("expected no slots, got %+v", res)
	}
}

func TestGenerateSlots_DaylightSavingDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks jump from 02:00 to 03:00 on this day.
	day, _ := ParseDate("2025-03-30")
	start, err := ParseBookedStart("2025-03-30T10:00", loc)
	if err != nil {
		t.Fatalf("ParseBookedStart: %v", err)
	}
	booked := []BookedInterval{{Start: start, DurationMinutes: 30}}

	res := GenerateSlots(DayConfig{IsWorkingDay: true, StartTime: 9 * 60, EndTime: 12 * 60}, 30, booked, day, loc)
	labels := slotLabels(res.Slots)
	if !labels["10:00"] {
		t.Error("expected 10:00 booked on the daylight-saving day")
	}
	if labels["09:00"] {
		t.Error("expected 09:00 free on the daylight-saving day")
	}
	if len(res.Available()) != len(res.Slots)-1 {
		t.Errorf("expected exactly one booked slot, got %d of %d available", len(res.Available()), len(res.Slots))
	}
}

func TestGenerateSlots_BookingReadInBusinessZone(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	day, _ := ParseDate("2025-11-03")
	// 07:00 UTC is 10:00 in the business zone.
	booked := []BookedInterval{{Start: time.Date(2025, 11, 3, 7, 0, 0, 0, time.UTC), DurationMinutes: 60}}

	res := GenerateSlots(DayConfig{IsWorkingDay: true, StartTime: 9 * 60, EndTime: 12 * 60}, 30, booked, day, loc)
	labels := slotLabels(res.Slots)
	if !labels["10:00"] || !labels["10:30"] {
		t.Errorf("expected 10:00 and 10:30 booked, got %v", labels)
	}
	if labels["09:30"] || labels["11:00"] {
		t.Errorf("expected 09:30 and 11:00 free, got %v", labels)
	}
}
