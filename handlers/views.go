package handlers

import (
	"booking-miniapp/schedule"
)

// dayJSON is the Mini-App's shape of a day config; times are "HH:MM".
type dayJSON struct {
	IsWorkingDay bool    `json:"is_working_day"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	BreakStart   *string `json:"break_start"`
	BreakEnd     *string `json:"break_end"`
}

type templateDayJSON struct {
	DayOfWeek int    `json:"day_of_week"`
	DayName   string `json:"day_name,omitempty"`
	dayJSON
}

type overrideJSON struct {
	Date string `json:"date"`
	dayJSON
}

type slotJSON struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}

type calendarDayJSON struct {
	Date       string  `json:"date"`
	Day        int     `json:"day"`
	DayOfWeek  int     `json:"day_of_week"`
	IsWorking  bool    `json:"is_working"`
	IsOverride bool    `json:"is_override"`
	IsSelected bool    `json:"is_selected"`
	Config     dayJSON `json:"config"`
}

type monthJSON struct {
	Year          int               `json:"year"`
	Month         int               `json:"month"`
	LeadingBlanks int               `json:"leading_blanks"`
	Days          []calendarDayJSON `json:"days"`
}

func optionalTime(m *schedule.Minutes) *string {
	if m == nil {
		return nil
	}
	s := schedule.FormatTime(*m)
	return &s
}

func dayView(cfg schedule.DayConfig) dayJSON {
	return dayJSON{
		IsWorkingDay: cfg.IsWorkingDay,
		StartTime:    schedule.FormatTime(cfg.StartTime),
		EndTime:      schedule.FormatTime(cfg.EndTime),
		BreakStart:   optionalTime(cfg.BreakStart),
		BreakEnd:     optionalTime(cfg.BreakEnd),
	}
}

func templateView(days [schedule.DaysInWeek]schedule.DayTemplate) []templateDayJSON {
	out := make([]templateDayJSON, 0, len(days))
	for _, d := range days {
		out = append(out, templateDayJSON{DayOfWeek: d.DayOfWeek, DayName: schedule.DayName(d.DayOfWeek), dayJSON: dayView(d.DayConfig)})
	}
	return out
}

func overridesView(list []schedule.DateOverride) []overrideJSON {
	out := make([]overrideJSON, 0, len(list))
	for _, o := range list {
		out = append(out, overrideJSON{Date: o.Date, dayJSON: dayView(o.DayConfig)})
	}
	return out
}

func slotsView(slots []schedule.Slot) []slotJSON {
	out := make([]slotJSON, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotJSON{Time: s.Label(), Booked: s.Booked})
	}
	return out
}

func monthView(v schedule.MonthView) monthJSON {
	out := monthJSON{
		Year:          v.Year,
		Month:         int(v.Month),
		LeadingBlanks: v.LeadingBlanks,
		Days:          make([]calendarDayJSON, 0, len(v.Days)),
	}
	for _, d := range v.Days {
		out.Days = append(out.Days, calendarDayJSON{
			Date:       d.Date,
			Day:        d.Day,
			DayOfWeek:  d.DayOfWeek,
			IsWorking:  d.IsWorking,
			IsOverride: d.IsOverride,
			IsSelected: d.IsSelected,
			Config:     dayView(d.Config),
		})
	}
	return out
}

// parseDay converts a full day config from the request body.
func parseDay(d dayJSON) (schedule.DayConfig, error) {
	cfg := schedule.DayConfig{IsWorkingDay: d.IsWorkingDay}
	var err error
	if cfg.StartTime, err = schedule.ParseTime(d.StartTime); err != nil {
		return schedule.DayConfig{}, err
	}
	if cfg.EndTime, err = schedule.ParseTime(d.EndTime); err != nil {
		return schedule.DayConfig{}, err
	}
	if cfg.BreakStart, err = parseOptionalTime(d.BreakStart); err != nil {
		return schedule.DayConfig{}, err
	}
	if cfg.BreakEnd, err = parseOptionalTime(d.BreakEnd); err != nil {
		return schedule.DayConfig{}, err
	}
	return cfg, nil
}

// parseOptionalTime treats nil and "" as unset.
func parseOptionalTime(s *string) (*schedule.Minutes, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	m, err := schedule.ParseTime(*s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// patchJSON is a partial day update. Absent fields are left unchanged.
type patchJSON struct {
	IsWorkingDay *bool   `json:"is_working_day"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakStart   *string `json:"break_start"`
	BreakEnd     *string `json:"break_end"`
	ClearBreak   bool    `json:"clear_break"`
}

func (p patchJSON) toPatch() (schedule.DayConfigPatch, error) {
	out := schedule.DayConfigPatch{IsWorkingDay: p.IsWorkingDay, ClearBreak: p.ClearBreak}
	var err error
	if out.StartTime, err = parseOptionalTime(p.StartTime); err != nil {
		return schedule.DayConfigPatch{}, err
	}
	if out.EndTime, err = parseOptionalTime(p.EndTime); err != nil {
		return schedule.DayConfigPatch{}, err
	}
	if out.BreakStart, err = parseOptionalTime(p.BreakStart); err != nil {
		return schedule.DayConfigPatch{}, err
	}
	if out.BreakEnd, err = parseOptionalTime(p.BreakEnd); err != nil {
		return schedule.DayConfigPatch{}, err
	}
	return out, nil
}
