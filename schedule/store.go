package schedule

import (
	"sort"
	"sync"
	"time"
)

// ScheduleStore owns the weekly template and the date overrides of one
// business. It is passed explicitly to the calendar, the editor and the slot
// generator; resolution is computed on every call and never cached.
type ScheduleStore struct {
	mu        sync.RWMutex
	template  *WeeklyTemplate
	overrides *OverrideStore
}

// NewScheduleStore returns a store with a default template and no overrides.
func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{
		template:  NewWeeklyTemplate(),
		overrides: NewOverrideStore(),
	}
}

// Initialize replaces the whole state with data loaded from the backend.
func (s *ScheduleStore) Initialize(days []DayTemplate, overrides []DateOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template.Initialize(days)
	s.overrides.Initialize(overrides)
}

// Resolve returns the effective configuration for an ISO date: the override
// for that exact date if one exists, otherwise the template for its weekday.
func (s *ScheduleStore) Resolve(date string) (DayConfig, error) {
	t, err := ParseDate(date)
	if err != nil {
		return DayConfig{}, err
	}
	cfg, _ := s.ResolveTime(t)
	return cfg, nil
}

// ResolveTime is Resolve for a time.Time. The bool reports whether an override was used.
func (s *ScheduleStore) ResolveTime(t time.Time) (DayConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(FormatDate(t), DayOfWeek(t))
}

func (s *ScheduleStore) resolveLocked(date string, day int) (DayConfig, bool) {
	if cfg, ok := s.overrides.Get(date); ok {
		return cfg, true
	}
	tmpl, _ := s.template.Get(day)
	return tmpl.DayConfig, false
}

// Template returns a copy of all seven template entries.
func (s *ScheduleStore) Template() [DaysInWeek]DayTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template.Days()
}

// Day returns a copy of one template entry.
func (s *ScheduleStore) Day(day int) (DayTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template.Get(day)
}

// Override returns the override stored for a date, if any.
func (s *ScheduleStore) Override(date string) (DayConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides.Get(date)
}

// Overrides lists every override ordered by date.
func (s *ScheduleStore) Overrides() []DateOverride {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overrides.List()
}

// ReplaceTemplate swaps in a complete week. Overrides are left alone:
// they keep winning for their exact dates.
func (s *ScheduleStore) ReplaceTemplate(days [DaysInWeek]DayTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template.Replace(days)
}

// UpdateDay patches one template entry in memory.
func (s *ScheduleStore) UpdateDay(day int, patch DayConfigPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template.Update(day, patch)
}

// PlanBulk computes the overrides that ApplyBulk would write without
// touching the store. Each date gets the patch applied on top of its
// template day, so a prior override for that date is replaced, never merged.
// The result is ordered by date.
func (s *ScheduleStore) PlanBulk(dates []string, patch DayConfigPatch) ([]DateOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	unique := make(map[string]struct{}, len(dates))
	out := make([]DateOverride, 0, len(dates))
	for _, date := range dates {
		if _, seen := unique[date]; seen {
			continue
		}
		t, err := ParseDate(date)
		if err != nil {
			return nil, err
		}
		unique[date] = struct{}{}
		tmpl, _ := s.template.Get(DayOfWeek(t))
		out = append(out, DateOverride{Date: date, DayConfig: patch.Apply(tmpl.DayConfig)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// CommitOverrides writes planned overrides, replacing prior ones per date.
func (s *ScheduleStore) CommitOverrides(list []DateOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range list {
		s.overrides.Set(o.Date, o.DayConfig)
	}
}

// ApplyBulk writes the same patch to every date in the set.
func (s *ScheduleStore) ApplyBulk(dates []string, patch DayConfigPatch) error {
	planned, err := s.PlanBulk(dates, patch)
	if err != nil {
		return err
	}
	s.CommitOverrides(planned)
	return nil
}
