package schedule

import (
	"fmt"
	"sort"
	"time"
)

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Date       string
	Day        int
	DayOfWeek  int
	Config     DayConfig
	IsWorking  bool
	IsOverride bool
	IsSelected bool
}

// MonthView is a month grid. LeadingBlanks is the Monday-based index of the
// 1st, i.e. how many empty cells precede it in a week row.
type MonthView struct {
	Year          int
	Month         time.Month
	LeadingBlanks int
	Days          []CalendarDay
}

// MonthView enumerates every day of the month with its resolved config.
// selection may be nil.
func (s *ScheduleStore) MonthView(year int, month time.Month, selection *SelectionSet) (MonthView, error) {
	if month < time.January || month > time.December {
		return MonthView{}, fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	view := MonthView{
		Year:          year,
		Month:         month,
		LeadingBlanks: DayOfWeek(first),
		Days:          make([]CalendarDay, 0, days),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for d := 1; d <= days; d++ {
		t := first.AddDate(0, 0, d-1)
		date := FormatDate(t)
		dow := DayOfWeek(t)
		cfg, overridden := s.resolveLocked(date, dow)
		view.Days = append(view.Days, CalendarDay{
			Date:       date,
			Day:        d,
			DayOfWeek:  dow,
			Config:     cfg,
			IsWorking:  cfg.IsWorkingDay,
			IsOverride: overridden,
			IsSelected: selection.Contains(date),
		})
	}
	return view, nil
}

// SelectionSet is the set of dates picked for a bulk edit. It is transient
// and never persisted. Not safe for concurrent use.
type SelectionSet struct {
	dates map[string]struct{}
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{dates: make(map[string]struct{})}
}

// Toggle flips membership of a date and reports whether it is now selected.
func (s *SelectionSet) Toggle(date string) (bool, error) {
	if _, err := ParseDate(date); err != nil {
		return false, err
	}
	if _, ok := s.dates[date]; ok {
		delete(s.dates, date)
		return false, nil
	}
	s.dates[date] = struct{}{}
	return true, nil
}

func (s *SelectionSet) Contains(date string) bool {
	if s == nil {
		return false
	}
	_, ok := s.dates[date]
	return ok
}

// Dates returns the selected dates in ascending order.
func (s *SelectionSet) Dates() []string {
	out := make([]string, 0, len(s.dates))
	for date := range s.dates {
		out = append(out, date)
	}
	sort.Strings(out)
	return out
}

func (s *SelectionSet) Len() int {
	return len(s.dates)
}

func (s *SelectionSet) Clear() {
	s.dates = make(map[string]struct{})
}
