package schedule

import "sort"

// OverrideStore maps ISO dates to the configuration that shadows the
// template on that date. It is not safe for concurrent use.
type OverrideStore struct {
	byDate map[string]DayConfig
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{byDate: make(map[string]DayConfig)}
}

// Initialize replaces all overrides with the loaded ones.
func (o *OverrideStore) Initialize(loaded []DateOverride) map[string]DayConfig {
	o.byDate = make(map[string]DayConfig, len(loaded))
	for _, entry := range loaded {
		o.byDate[entry.Date] = entry.DayConfig.Clone()
	}
	return o.snapshot()
}

// Get returns the override for a date, if any.
func (o *OverrideStore) Get(date string) (DayConfig, bool) {
	cfg, ok := o.byDate[date]
	if !ok {
		return DayConfig{}, false
	}
	return cfg.Clone(), true
}

// Set writes an override, replacing whatever was stored for that date.
func (o *OverrideStore) Set(date string, cfg DayConfig) {
	o.byDate[date] = cfg.Clone()
}

func (o *OverrideStore) Len() int {
	return len(o.byDate)
}

// List returns every override ordered by date.
func (o *OverrideStore) List() []DateOverride {
	out := make([]DateOverride, 0, len(o.byDate))
	for date, cfg := range o.byDate {
		out = append(out, DateOverride{Date: date, DayConfig: cfg.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (o *OverrideStore) snapshot() map[string]DayConfig {
	out := make(map[string]DayConfig, len(o.byDate))
	for date, cfg := range o.byDate {
		out[date] = cfg.Clone()
	}
	return out
}
