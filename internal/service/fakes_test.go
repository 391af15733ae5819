package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"nas_control/internal/models"
	"nas_control/internal/transport"
)

var errRefused = &transport.Failure{Op: "test", Err: errors.New("connection refused")}

type statusReply struct {
	st  models.DeviceStatus
	err error
}

type updateCall struct {
	day   int
	entry models.WeeklyScheduleEntry
}

// fakeAPI is an in-memory transport.API.
// Status replies are served from statusQueue first, then from status/statusErr.
type fakeAPI struct {
	mu sync.Mutex

	status      models.DeviceStatus
	statusErr   error
	statusQueue []statusReply
	statusCalls int

	startRes   models.Result
	startErr   error
	startCalls int
	onStart    func()

	stopRes   models.Result
	stopErr   error
	stopCalls int

	clearRes   models.Result
	clearErr   error
	clearCalls int

	schedules    []models.WeeklyScheduleEntry
	schedulesErr error

	updateRes models.Result
	updateErr error
	updates   []updateCall

	shutdowns     []models.ScheduledShutdown
	shutdownsErr  error
	shutdownLoads int

	createRes models.Result
	createErr error
	created   []time.Time

	deleteRes models.Result
	deleteErr error
	deleted   []int64
}

func (f *fakeAPI) setStatus(st models.DeviceStatus, err error) {
	f.mu.Lock()
	f.status, f.statusErr = st, err
	f.mu.Unlock()
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

// canceled mimics the HTTP client: a done ctx fails the call.
func canceled(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &transport.Failure{Op: op, Err: err}
	}
	return nil
}

func (f *fakeAPI) GetStatus(ctx context.Context) (models.DeviceStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if err := canceled(ctx, "status"); err != nil {
		return models.DeviceStatus{}, err
	}
	if len(f.statusQueue) > 0 {
		r := f.statusQueue[0]
		f.statusQueue = f.statusQueue[1:]
		return r.st, r.err
	}
	return f.status, f.statusErr
}

func (f *fakeAPI) Start(ctx context.Context) (models.Result, error) {
	f.mu.Lock()
	f.startCalls++
	hook := f.onStart
	res, err := f.startRes, f.startErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if cerr := canceled(ctx, "start"); cerr != nil {
		return models.Result{}, cerr
	}
	return res, err
}

func (f *fakeAPI) Stop(ctx context.Context) (models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.stopRes, f.stopErr
}

func (f *fakeAPI) ClearAction(ctx context.Context) (models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	return f.clearRes, f.clearErr
}

func (f *fakeAPI) ListSchedules(ctx context.Context) ([]models.WeeklyScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.schedulesErr != nil {
		return nil, f.schedulesErr
	}
	return append([]models.WeeklyScheduleEntry(nil), f.schedules...), nil
}

func (f *fakeAPI) UpdateSchedule(ctx context.Context, day int, e models.WeeklyScheduleEntry) (models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := canceled(ctx, "update schedule"); err != nil {
		return models.Result{}, err
	}
	f.updates = append(f.updates, updateCall{day: day, entry: e})
	return f.updateRes, f.updateErr
}

func (f *fakeAPI) ListScheduledShutdowns(ctx context.Context) ([]models.ScheduledShutdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdownLoads++
	if err := canceled(ctx, "list shutdowns"); err != nil {
		return nil, err
	}
	if f.shutdownsErr != nil {
		return nil, f.shutdownsErr
	}
	return append([]models.ScheduledShutdown(nil), f.shutdowns...), nil
}

func (f *fakeAPI) CreateScheduledShutdown(ctx context.Context, at time.Time) (models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := canceled(ctx, "create shutdown"); err != nil {
		return models.Result{}, err
	}
	f.created = append(f.created, at)
	if f.createErr == nil && f.createRes.Success {
		f.shutdowns = []models.ScheduledShutdown{{ID: int64(len(f.created)), ScheduledAt: at}}
	}
	return f.createRes, f.createErr
}

func (f *fakeAPI) DeleteScheduledShutdown(ctx context.Context, id int64) (models.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := canceled(ctx, "delete shutdown"); err != nil {
		return models.Result{}, err
	}
	f.deleted = append(f.deleted, id)
	if f.deleteErr == nil && f.deleteRes.Success {
		f.shutdowns = nil
	}
	return f.deleteRes, f.deleteErr
}

// fakeClock fires timers synchronously from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// Advance moves time forward by d, running every timer that falls due on the way.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		next := c.nextDueLocked(target)
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) nextDueLocked(target time.Time) *fakeTimer {
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live

	var next *fakeTimer
	for _, t := range live {
		if t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) {
			next = t
		}
	}
	return next
}

// pending counts timers that are neither stopped nor fired.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func online() models.DeviceStatus {
	return models.DeviceStatus{Online: models.BoolPtr(true)}
}

func offline() models.DeviceStatus {
	return models.DeviceStatus{Online: models.BoolPtr(false)}
}

func inProgress(kind models.ActionType, elapsed float64) models.DeviceStatus {
	return models.DeviceStatus{
		Online:               models.BoolPtr(kind == models.ActionStop),
		ActionInProgress:     true,
		ActionType:           kind,
		ActionElapsedSeconds: elapsed,
	}
}

var t0 = time.Date(2025, 1, 1, 9, 50, 0, 0, time.UTC)
