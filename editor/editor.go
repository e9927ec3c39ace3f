// Package editor implements the owner's schedule editor: it loads the
// schedule once, keeps the calendar selection and pushes edits to the
// booking API with the two save shapes (per-date upsert and whole-template
// replace). Local state changes only after the API call succeeds.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"booking-miniapp/schedule"
)

var (
	ErrNotLoaded      = errors.New("schedule has not been loaded")
	ErrEmptySelection = errors.New("no dates selected")
)

// ScheduleAPI is the part of the booking API the editor needs.
type ScheduleAPI interface {
	GetSchedule(ctx context.Context) (schedule.WireSchedule, error)
	PutTemplate(ctx context.Context, days []schedule.WireDay) ([]schedule.WireDay, error)
	PutDays(ctx context.Context, days []schedule.WireDate) ([]schedule.WireDate, error)
}

type Option func(*Editor)

func WithGuard(g SaveGuard) Option {
	return func(e *Editor) { e.guard = g }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithKey names the editor for the save guard; editors sharing a key
// exclude each other's saves.
func WithKey(key string) Option {
	return func(e *Editor) { e.key = key }
}

type Editor struct {
	api    ScheduleAPI
	store  *schedule.ScheduleStore
	guard  SaveGuard
	logger *zap.Logger
	key    string

	mu        sync.Mutex
	selection *schedule.SelectionSet
	loadedAt  time.Time
}

func New(api ScheduleAPI, opts ...Option) *Editor {
	e := &Editor{
		api:       api,
		store:     schedule.NewScheduleStore(),
		guard:     NewMemoryGuard(),
		logger:    zap.NewNop(),
		key:       "default",
		selection: schedule.NewSelectionSet(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the schedule and replaces local state. It must be awaited
// before the first save.
func (e *Editor) Load(ctx context.Context) error {
	ws, err := e.api.GetSchedule(ctx)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	days, overrides, err := schedule.FromWire(ws)
	if err != nil {
		return fmt.Errorf("decode schedule: %w", err)
	}
	e.store.Initialize(days, overrides)

	e.mu.Lock()
	e.loadedAt = time.Now()
	e.mu.Unlock()

	e.logger.Debug("schedule loaded",
		zap.String("editor", e.key),
		zap.Int("template_days", len(days)),
		zap.Int("overrides", len(overrides)),
	)
	return nil
}

// Loaded reports whether Load has completed at least once.
func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.loadedAt.IsZero()
}

// Store exposes the schedule for read-only use (resolution, slots).
func (e *Editor) Store() *schedule.ScheduleStore {
	return e.store
}

func (e *Editor) Toggle(date string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Toggle(date)
}

func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection.Clear()
}

func (e *Editor) Selection() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Dates()
}

// MonthView renders a month with the current selection marked.
func (e *Editor) MonthView(year int, month time.Month) (schedule.MonthView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.MonthView(year, month, e.selection)
}

// SaveDates writes patch to every selected date with one PUT /api/schedule/days.
// On success the overrides are committed and the saved dates are deselected.
func (e *Editor) SaveDates(ctx context.Context, patch schedule.DayConfigPatch) ([]schedule.DateOverride, error) {
	dates := e.Selection()
	saved, err := e.SaveDatesFor(ctx, dates, patch)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	for _, date := range dates {
		if e.selection.Contains(date) {
			e.selection.Toggle(date)
		}
	}
	e.mu.Unlock()
	return saved, nil
}

// SaveDatesFor is SaveDates for an explicit list of dates; the selection is
// left alone.
func (e *Editor) SaveDatesFor(ctx context.Context, dates []string, patch schedule.DayConfigPatch) ([]schedule.DateOverride, error) {
	if !e.Loaded() {
		return nil, ErrNotLoaded
	}
	if len(dates) == 0 {
		return nil, ErrEmptySelection
	}
	ctx, release, err := e.guard.Acquire(ctx, e.key)
	if err != nil {
		return nil, err
	}
	defer release()

	planned, err := e.store.PlanBulk(dates, patch)
	if err != nil {
		return nil, err
	}
	if err := schedule.ValidateOverrides(planned); err != nil {
		return nil, err
	}

	if _, err := e.api.PutDays(ctx, schedule.OverridesToWire(planned)); err != nil {
		e.logger.Warn("saving date overrides failed",
			zap.String("editor", e.key),
			zap.Int("dates", len(planned)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save dates: %w", err)
	}
	e.store.CommitOverrides(planned)
	e.logger.Info("date overrides saved", zap.String("editor", e.key), zap.Int("dates", len(planned)))
	return planned, nil
}

// SaveWeekday applies patch to one day of the week and replaces the whole
// template. Date overrides are not touched and keep winning for their dates.
func (e *Editor) SaveWeekday(ctx context.Context, day int, patch schedule.DayConfigPatch) ([schedule.DaysInWeek]schedule.DayTemplate, error) {
	if day < 0 || day >= schedule.DaysInWeek {
		return [schedule.DaysInWeek]schedule.DayTemplate{}, schedule.ErrInvalidDay
	}
	return e.saveTemplate(ctx, func(days *[schedule.DaysInWeek]schedule.DayTemplate) {
		days[day].DayConfig = patch.Apply(days[day].DayConfig)
	})
}

// SaveTemplate replaces the whole weekly template with days.
func (e *Editor) SaveTemplate(ctx context.Context, days [schedule.DaysInWeek]schedule.DayTemplate) ([schedule.DaysInWeek]schedule.DayTemplate, error) {
	return e.saveTemplate(ctx, func(cur *[schedule.DaysInWeek]schedule.DayTemplate) {
		for i := range days {
			cur[i] = schedule.DayTemplate{DayOfWeek: i, DayConfig: days[i].DayConfig.Clone()}
		}
	})
}

func (e *Editor) saveTemplate(ctx context.Context, edit func(*[schedule.DaysInWeek]schedule.DayTemplate)) ([schedule.DaysInWeek]schedule.DayTemplate, error) {
	var zero [schedule.DaysInWeek]schedule.DayTemplate
	if !e.Loaded() {
		return zero, ErrNotLoaded
	}
	ctx, release, err := e.guard.Acquire(ctx, e.key)
	if err != nil {
		return zero, err
	}
	defer release()

	days := e.store.Template()
	edit(&days)
	if err := schedule.ValidateTemplate(days); err != nil {
		return zero, err
	}

	echo, err := e.api.PutTemplate(ctx, schedule.TemplateToWire(days))
	if err != nil {
		e.logger.Warn("saving template failed", zap.String("editor", e.key), zap.Error(err))
		return zero, fmt.Errorf("save template: %w", err)
	}

	final := mergeEcho(days, echo, e.logger)
	e.store.ReplaceTemplate(final)
	e.logger.Info("template saved", zap.String("editor", e.key))
	return final, nil
}

// mergeEcho overlays the entries the API echoed onto what was sent. An empty
// or undecodable echo leaves the sent copy as is.
func mergeEcho(sent [schedule.DaysInWeek]schedule.DayTemplate, echo []schedule.WireDay, logger *zap.Logger) [schedule.DaysInWeek]schedule.DayTemplate {
	out := sent
	for _, w := range echo {
		d, err := schedule.DayFromWire(w)
		if err != nil {
			logger.Warn("ignoring malformed template echo", zap.Error(err))
			return sent
		}
		out[d.DayOfWeek] = d
	}
	return out
}
