package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"booking-miniapp/apiclient"
	"booking-miniapp/schedule"
)

type fakeAPI struct {
	mu sync.Mutex

	schedule schedule.WireSchedule
	fail     error
	echo     []schedule.WireDay
	block    chan struct{}
	entered  chan struct{}

	putTemplateCalls int
	putDaysCalls     int
	lastDays         []schedule.WireDate
	lastTemplate     []schedule.WireDay
}

func (f *fakeAPI) GetSchedule(ctx context.Context) (schedule.WireSchedule, error) {
	return f.schedule, nil
}

func (f *fakeAPI) PutTemplate(ctx context.Context, days []schedule.WireDay) ([]schedule.WireDay, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putTemplateCalls++
	f.lastTemplate = days
	if f.fail != nil {
		return nil, f.fail
	}
	return f.echo, nil
}

func (f *fakeAPI) PutDays(ctx context.Context, days []schedule.WireDate) ([]schedule.WireDate, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putDaysCalls++
	f.lastDays = days
	if f.fail != nil {
		return nil, f.fail
	}
	return days, nil
}

func (f *fakeAPI) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func loadedEditor(t *testing.T, api *fakeAPI) *Editor {
	t.Helper()
	e := New(api, WithKey("test"))
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e
}

func serverDown() error {
	return &apiclient.NetworkError{Method: "PUT", Path: "/api/schedule", StatusCode: 503, Detail: "maintenance"}
}

func TestLoadInitializesStore(t *testing.T) {
	api := &fakeAPI{schedule: schedule.WireSchedule{
		WorkingHours: []schedule.WireDay{{DayOfWeek: 5, IsWorkingDay: true, StartTime: strPtr("10:00:00"), EndTime: strPtr("14:00:00")}},
		WorkingDays:  []schedule.WireDate{{Date: "2025-11-03", IsWorkingDay: false}},
	}}
	e := loadedEditor(t, api)

	sat, _ := e.Store().Day(5)
	if !sat.IsWorkingDay || sat.StartTime != 600 {
		t.Errorf("expected loaded Saturday, got %+v", sat)
	}
	cfg, _ := e.Store().Resolve("2025-11-03")
	if cfg.IsWorkingDay {
		t.Error("expected override for 2025-11-03")
	}
}

func TestSaveBeforeLoad(t *testing.T) {
	e := New(&fakeAPI{})
	if _, err := e.SaveWeekday(context.Background(), 0, schedule.DayConfigPatch{}); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestSaveDatesSendsOneRequestAndCommits(t *testing.T) {
	api := &fakeAPI{}
	e := loadedEditor(t, api)
	for _, d := range []string{"2025-11-05", "2025-11-06", "2025-11-08"} {
		if _, err := e.Toggle(d); err != nil {
			t.Fatal(err)
		}
	}

	saved, err := e.SaveDates(context.Background(), schedule.DayConfigPatch{
		IsWorkingDay: boolPtr(true),
		StartTime:    schedule.MinutesPtr(10 * 60),
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if api.putDaysCalls != 1 || api.putTemplateCalls != 0 {
		t.Errorf("expected exactly one date upsert, got days=%d template=%d", api.putDaysCalls, api.putTemplateCalls)
	}
	if len(api.lastDays) != 3 || len(saved) != 3 {
		t.Fatalf("expected 3 dates in the batch, got %d", len(api.lastDays))
	}
	if *api.lastDays[0].StartTime != "10:00:00" {
		t.Errorf("expected wire time with seconds, got %s", *api.lastDays[0].StartTime)
	}

	cfg, _ := e.Store().Resolve("2025-11-08")
	if !cfg.IsWorkingDay || cfg.StartTime != 600 {
		t.Errorf("expected Saturday override committed, got %+v", cfg)
	}
	if len(e.Selection()) != 0 {
		t.Error("expected selection cleared after success")
	}
	tmpl, _ := e.Store().Day(5)
	if tmpl.IsWorkingDay {
		t.Error("date save must not touch the template")
	}
}

func TestSaveDatesValidationBlocksRequest(t *testing.T) {
	api := &fakeAPI{}
	e := loadedEditor(t, api)
	e.Toggle("2025-11-05")

	_, err := e.SaveDates(context.Background(), schedule.DayConfigPatch{
		StartTime: schedule.MinutesPtr(19 * 60),
	})
	var ve *schedule.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if api.putDaysCalls != 0 {
		t.Error("expected no network call for an invalid batch")
	}
	if len(e.Selection()) != 1 {
		t.Error("expected selection kept after a rejected save")
	}
}

func TestSaveDatesEmptySelection(t *testing.T) {
	e := loadedEditor(t, &fakeAPI{})
	if _, err := e.SaveDates(context.Background(), schedule.DayConfigPatch{}); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
}

func TestFailedSaveLeavesStateUnchanged(t *testing.T) {
	api := &fakeAPI{}
	e := loadedEditor(t, api)
	before := e.Store().Template()
	beforeOverrides := e.Store().Overrides()

	api.fail = serverDown()
	_, err := e.SaveWeekday(context.Background(), 2, schedule.DayConfigPatch{IsWorkingDay: boolPtr(false)})
	if err == nil {
		t.Fatal("expected error")
	}
	if !apiclient.IsRetryable(err) {
		t.Errorf("expected retryable network error, got %v", err)
	}
	if after := e.Store().Template(); after != before {
		for i := range before {
			if !after[i].DayConfig.Equal(before[i].DayConfig) {
				t.Errorf("template day %d changed after failed save", i)
			}
		}
	}

	e.Toggle("2025-11-05")
	if _, err := e.SaveDates(context.Background(), schedule.DayConfigPatch{IsWorkingDay: boolPtr(false)}); err == nil {
		t.Fatal("expected error")
	}
	if len(e.Store().Overrides()) != len(beforeOverrides) {
		t.Error("overrides changed after failed save")
	}
	if len(e.Selection()) != 1 {
		t.Error("expected selection kept so the user can retry")
	}

	// The editor stays usable.
	api.fail = nil
	if _, err := e.SaveDates(context.Background(), schedule.DayConfigPatch{IsWorkingDay: boolPtr(false)}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestSaveWeekdayReplacesWholeTemplate(t *testing.T) {
	api := &fakeAPI{}
	e := loadedEditor(t, api)
	e.Store().CommitOverrides([]schedule.DateOverride{{Date: "2025-11-05", DayConfig: schedule.DayConfig{IsWorkingDay: true, StartTime: 60, EndTime: 120}}})

	days, err := e.SaveWeekday(context.Background(), 2, schedule.DayConfigPatch{IsWorkingDay: boolPtr(false)})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if api.putTemplateCalls != 1 || api.putDaysCalls != 0 {
		t.Errorf("expected one template PUT, got template=%d days=%d", api.putTemplateCalls, api.putDaysCalls)
	}
	if len(api.lastTemplate) != 7 {
		t.Errorf("expected all 7 days sent, got %d", len(api.lastTemplate))
	}
	if days[2].IsWorkingDay {
		t.Error("expected Wednesday off")
	}

	cfg, _ := e.Store().Resolve("2025-11-12")
	if cfg.IsWorkingDay {
		t.Error("expected template change on other Wednesdays")
	}
	cfg, _ = e.Store().Resolve("2025-11-05")
	if !cfg.IsWorkingDay || cfg.StartTime != 60 {
		t.Error("expected existing override to keep winning")
	}
}

func TestSaveTemplateUsesEcho(t *testing.T) {
	api := &fakeAPI{echo: []schedule.WireDay{
		{DayOfWeek: 0, IsWorkingDay: true, StartTime: strPtr("08:00:00"), EndTime: strPtr("17:00:00")},
	}}
	e := loadedEditor(t, api)

	days := e.Store().Template()
	days[0].StartTime = 9 * 60
	got, err := e.SaveTemplate(context.Background(), days)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got[0].StartTime != 8*60 {
		t.Errorf("expected echoed Monday, got %+v", got[0])
	}
	mon, _ := e.Store().Day(0)
	if mon.StartTime != 8*60 {
		t.Errorf("expected store to hold echoed value, got %+v", mon)
	}
}

func TestConcurrentSaveIsRejected(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	e := loadedEditor(t, api)

	done := make(chan error, 1)
	go func() {
		_, err := e.SaveWeekday(context.Background(), 0, schedule.DayConfigPatch{EndTime: schedule.MinutesPtr(17 * 60)})
		done <- err
	}()
	<-api.entered

	e.Toggle("2025-11-05")
	if _, err := e.SaveDates(context.Background(), schedule.DayConfigPatch{}); !errors.Is(err, ErrSaveInProgress) {
		t.Errorf("expected ErrSaveInProgress, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("expected first save to succeed, got %v", err)
	}
	api.entered = nil
	if _, err := e.SaveDates(context.Background(), schedule.DayConfigPatch{}); err != nil {
		t.Errorf("expected save after release to succeed, got %v", err)
	}
}

func TestMemoryGuardKeys(t *testing.T) {
	g := NewMemoryGuard()
	_, release, err := g.Acquire(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := g.Acquire(context.Background(), "a"); !errors.Is(err, ErrSaveInProgress) {
		t.Errorf("expected ErrSaveInProgress, got %v", err)
	}
	_, other, err := g.Acquire(context.Background(), "b")
	if err != nil {
		t.Errorf("expected independent keys, got %v", err)
	}
	other()
	release()
	if _, r, err := g.Acquire(context.Background(), "a"); err != nil {
		t.Errorf("expected reacquire after release, got %v", err)
	} else {
		r()
	}
}

func TestRedisGuardUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	g := NewRedisGuard(client, time.Second, nil)

	_, _, err := g.Acquire(context.Background(), "x")
	if err == nil {
		t.Fatal("expected connection error")
	}
	if errors.Is(err, ErrSaveInProgress) {
		t.Error("connection failure must not look like a held lock")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(time.Minute)
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	id := uuid.New()
	calls := 0
	factory := func(uuid.UUID) (*Workspace, error) {
		calls++
		return &Workspace{Editor: New(&fakeAPI{})}, nil
	}

	ws, err := r.GetOrCreate(id, factory)
	if err != nil {
		t.Fatal(err)
	}
	again, _ := r.GetOrCreate(id, factory)
	if ws != again || calls != 1 {
		t.Errorf("expected cached workspace, factory called %d times", calls)
	}
	if ws.SessionID != id {
		t.Errorf("expected session id to be set")
	}

	now = now.Add(2 * time.Minute)
	if dropped := r.Cleanup(); dropped != 1 {
		t.Errorf("expected idle workspace dropped, got %d", dropped)
	}
	if _, ok := r.Get(id); ok {
		t.Error("expected workspace gone after cleanup")
	}

	failing := func(uuid.UUID) (*Workspace, error) { return nil, errors.New("boom") }
	if _, err := r.GetOrCreate(uuid.New(), failing); err == nil {
		t.Error("expected factory error")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryRestoreDoesNotBlockOtherSessions(t *testing.T) {
	r := NewRegistry(time.Minute)
	slow, fast := uuid.New(), uuid.New()

	entered := make(chan struct{})
	unblock := make(chan struct{})
	go r.GetOrCreate(slow, func(uuid.UUID) (*Workspace, error) {
		close(entered)
		<-unblock
		return &Workspace{Editor: New(&fakeAPI{})}, nil
	})
	<-entered

	done := make(chan error, 1)
	go func() {
		_, err := r.GetOrCreate(fast, func(uuid.UUID) (*Workspace, error) {
			return &Workspace{Editor: New(&fakeAPI{})}, nil
		})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("restoring one session blocked another")
	}
	close(unblock)
}

func TestRegistryConcurrentRestoreKeepsOneWorkspace(t *testing.T) {
	r := NewRegistry(time.Minute)
	id := uuid.New()
	factory := func(uuid.UUID) (*Workspace, error) {
		return &Workspace{Editor: New(&fakeAPI{})}, nil
	}

	const n = 8
	results := make(chan *Workspace, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws, err := r.GetOrCreate(id, factory)
			if err != nil {
				t.Error(err)
				return
			}
			results <- ws
		}()
	}
	wg.Wait()
	close(results)

	stored, _ := r.Get(id)
	for ws := range results {
		if ws != stored {
			t.Fatal("expected every caller to get the stored workspace")
		}
	}
	if r.Len() != 1 {
		t.Errorf("expected one workspace, got %d", r.Len())
	}
}
