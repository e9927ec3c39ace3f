package schedule

// Defaults used when the backend has no entry for a day of the week.
const (
	DefaultStartTime Minutes = 9 * 60
	DefaultEndTime   Minutes = 18 * 60
)

// DefaultDay returns the synthesized template for a day: 09:00-18:00,
// working Monday to Friday, no break.
func DefaultDay(day int) DayTemplate {
	return DayTemplate{
		DayOfWeek: day,
		DayConfig: DayConfig{
			IsWorkingDay: day < 5,
			StartTime:    DefaultStartTime,
			EndTime:      DefaultEndTime,
		},
	}
}

// WeeklyTemplate holds exactly one DayTemplate per day of the week.
// It is not safe for concurrent use; ScheduleStore serializes access.
type WeeklyTemplate struct {
	days [DaysInWeek]DayTemplate
}

// NewWeeklyTemplate returns a template filled with defaults.
func NewWeeklyTemplate() *WeeklyTemplate {
	w := &WeeklyTemplate{}
	w.Initialize(nil)
	return w
}

// Initialize replaces the template with the loaded entries, synthesizing
// defaults for missing days. Entries with an out-of-range day are ignored;
// when a day appears twice the last entry wins.
func (w *WeeklyTemplate) Initialize(loaded []DayTemplate) [DaysInWeek]DayTemplate {
	for day := 0; day < DaysInWeek; day++ {
		w.days[day] = DefaultDay(day)
	}
	for _, entry := range loaded {
		if entry.DayOfWeek < 0 || entry.DayOfWeek >= DaysInWeek {
			continue
		}
		w.days[entry.DayOfWeek] = DayTemplate{
			DayOfWeek: entry.DayOfWeek,
			DayConfig: entry.DayConfig.Clone(),
		}
	}
	return w.Days()
}

// Get returns a copy of the template for a day.
func (w *WeeklyTemplate) Get(day int) (DayTemplate, error) {
	if day < 0 || day >= DaysInWeek {
		return DayTemplate{}, ErrInvalidDay
	}
	d := w.days[day]
	d.DayConfig = d.DayConfig.Clone()
	return d, nil
}

// Update applies a patch to one day in memory. Nothing is persisted.
func (w *WeeklyTemplate) Update(day int, patch DayConfigPatch) error {
	if day < 0 || day >= DaysInWeek {
		return ErrInvalidDay
	}
	w.days[day].DayConfig = patch.Apply(w.days[day].DayConfig)
	return nil
}

// Days returns a deep copy of all seven entries, Monday first.
func (w *WeeklyTemplate) Days() [DaysInWeek]DayTemplate {
	var out [DaysInWeek]DayTemplate
	for i, d := range w.days {
		out[i] = DayTemplate{DayOfWeek: i, DayConfig: d.DayConfig.Clone()}
	}
	return out
}

// Replace swaps in a complete week.
func (w *WeeklyTemplate) Replace(days [DaysInWeek]DayTemplate) {
	for i, d := range days {
		w.days[i] = DayTemplate{DayOfWeek: i, DayConfig: d.DayConfig.Clone()}
	}
}
