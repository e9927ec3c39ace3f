package schedule

import (
	"errors"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestInitializeSynthesizesDefaults(t *testing.T) {
	w := NewWeeklyTemplate()
	days := w.Initialize([]DayTemplate{
		{DayOfWeek: 2, DayConfig: DayConfig{IsWorkingDay: true, StartTime: 600, EndTime: 900}},
		{DayOfWeek: 9, DayConfig: DayConfig{IsWorkingDay: true, StartTime: 1, EndTime: 2}},
	})

	for i, d := range days {
		if d.DayOfWeek != i {
			t.Errorf("entry %d has DayOfWeek %d", i, d.DayOfWeek)
		}
	}
	if days[2].StartTime != 600 || days[2].EndTime != 900 {
		t.Errorf("expected loaded Wednesday, got %+v", days[2])
	}
	if !days[0].IsWorkingDay || days[0].StartTime != DefaultStartTime || days[0].EndTime != DefaultEndTime {
		t.Errorf("expected default Monday, got %+v", days[0])
	}
	if days[5].IsWorkingDay || days[6].IsWorkingDay {
		t.Error("expected weekend to default to non-working")
	}
	if days[4].HasBreak() {
		t.Error("expected defaults without a break")
	}
}

func TestTemplateUpdateAndInvalidDay(t *testing.T) {
	w := NewWeeklyTemplate()
	if err := w.Update(7, DayConfigPatch{}); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("expected ErrInvalidDay, got %v", err)
	}
	if _, err := w.Get(-1); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("expected ErrInvalidDay, got %v", err)
	}

	err := w.Update(5, DayConfigPatch{IsWorkingDay: boolPtr(true), BreakStart: MinutesPtr(720), BreakEnd: MinutesPtr(780)})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	sat, _ := w.Get(5)
	if !sat.IsWorkingDay || !sat.HasBreak() || *sat.BreakStart != 720 {
		t.Errorf("patch not applied: %+v", sat)
	}

	// Mutating a returned copy must not leak into the template.
	*sat.BreakStart = 0
	again, _ := w.Get(5)
	if *again.BreakStart != 720 {
		t.Error("Get returned shared break pointer")
	}
}

func TestResolvePrefersOverride(t *testing.T) {
	s := NewScheduleStore()
	s.Initialize(nil, []DateOverride{
		{Date: "2025-11-05", DayConfig: DayConfig{IsWorkingDay: false}},
	})

	cfg, err := s.Resolve("2025-11-05")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.IsWorkingDay {
		t.Error("expected override to win on 2025-11-05")
	}

	// Same weekday, no override: template for Wednesday.
	cfg, _ = s.Resolve("2025-11-12")
	if !cfg.IsWorkingDay {
		t.Error("expected template Wednesday to be working")
	}

	// Sunday must map to index 6, not 0.
	if err := s.UpdateDay(6, DayConfigPatch{IsWorkingDay: boolPtr(true), StartTime: MinutesPtr(600)}); err != nil {
		t.Fatal(err)
	}
	cfg, _ = s.Resolve("2025-11-09")
	if !cfg.IsWorkingDay || cfg.StartTime != 600 {
		t.Errorf("expected Sunday template, got %+v", cfg)
	}
	cfg, _ = s.Resolve("2025-11-10")
	if cfg.StartTime != DefaultStartTime {
		t.Errorf("expected Monday untouched, got %+v", cfg)
	}

	if _, err := s.Resolve("not-a-date"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestResolveIsNotCached(t *testing.T) {
	s := NewScheduleStore()
	before, _ := s.Resolve("2025-11-04")
	if err := s.UpdateDay(1, DayConfigPatch{EndTime: MinutesPtr(20 * 60)}); err != nil {
		t.Fatal(err)
	}
	after, _ := s.Resolve("2025-11-04")
	if before.EndTime == after.EndTime {
		t.Error("expected resolution to reflect template mutation")
	}
}

func TestApplyBulkReplacesPriorOverride(t *testing.T) {
	s := NewScheduleStore()
	s.Initialize(nil, []DateOverride{
		{Date: "2025-11-04", DayConfig: DayConfig{IsWorkingDay: true, StartTime: 600, EndTime: 700, BreakStart: MinutesPtr(630), BreakEnd: MinutesPtr(640)}},
	})

	err := s.ApplyBulk([]string{"2025-11-04", "2025-11-06", "2025-11-04"}, DayConfigPatch{EndTime: MinutesPtr(15 * 60)})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	for _, date := range []string{"2025-11-04", "2025-11-06"} {
		cfg, ok := s.Override(date)
		if !ok {
			t.Fatalf("expected override for %s", date)
		}
		if cfg.StartTime != DefaultStartTime || cfg.EndTime != 15*60 {
			t.Errorf("%s: expected template start and patched end, got %+v", date, cfg)
		}
		if cfg.HasBreak() {
			t.Errorf("%s: prior override fields leaked into the new one", date)
		}
	}
	if len(s.Overrides()) != 2 {
		t.Errorf("expected 2 overrides, got %d", len(s.Overrides()))
	}
}

func TestApplyBulkRejectsBadDateWithoutWriting(t *testing.T) {
	s := NewScheduleStore()
	err := s.ApplyBulk([]string{"2025-11-04", "2025-13-01"}, DayConfigPatch{IsWorkingDay: boolPtr(false)})
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
	if len(s.Overrides()) != 0 {
		t.Error("expected no overrides after a failed bulk apply")
	}
}

func TestReplaceTemplateKeepsOverrides(t *testing.T) {
	s := NewScheduleStore()
	s.Initialize(nil, []DateOverride{{Date: "2025-11-03", DayConfig: DayConfig{IsWorkingDay: true, StartTime: 60, EndTime: 120}}})

	days := s.Template()
	days[0].IsWorkingDay = false
	s.ReplaceTemplate(days)

	cfg, _ := s.Resolve("2025-11-03")
	if !cfg.IsWorkingDay || cfg.StartTime != 60 {
		t.Errorf("expected override to survive template replace, got %+v", cfg)
	}
	cfg, _ = s.Resolve("2025-11-10")
	if cfg.IsWorkingDay {
		t.Error("expected replaced template for other Mondays")
	}
}

func TestPatchFromRoundTrip(t *testing.T) {
	src := DayConfig{IsWorkingDay: true, StartTime: 500, EndTime: 900, BreakStart: MinutesPtr(600), BreakEnd: MinutesPtr(660)}
	got := PatchFrom(src).Apply(DayConfig{})
	if !got.Equal(src) {
		t.Errorf("expected %+v, got %+v", src, got)
	}

	noBreak := DayConfig{IsWorkingDay: true, StartTime: 500, EndTime: 900}
	got = PatchFrom(noBreak).Apply(src)
	if got.HasBreak() {
		t.Error("expected full patch to clear the break")
	}
	if (DayConfigPatch{}).IsEmpty() != true {
		t.Error("expected zero patch to be empty")
	}
}
