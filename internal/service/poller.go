package service

import (
	"context"
	"sync"
	"time"

	"nas_control/internal/logger"
)

// Default timer periods.
const (
	DefaultFastPoll        = 2 * time.Second
	DefaultSlowPoll        = 5 * time.Second
	DefaultCountdownTick   = 1 * time.Second
	DefaultShutdownRefresh = 10 * time.Second
)

// PollConfig holds the timer periods of the scheduler. Zero values use the defaults.
type PollConfig struct {
	Fast            time.Duration // status period while an action is in progress
	Slow            time.Duration // status period otherwise
	Countdown       time.Duration
	ShutdownRefresh time.Duration // 0 keeps the default, negative disables
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Fast <= 0 {
		c.Fast = DefaultFastPoll
	}
	if c.Slow <= 0 {
		c.Slow = DefaultSlowPoll
	}
	if c.Countdown <= 0 {
		c.Countdown = DefaultCountdownTick
	}
	if c.ShutdownRefresh == 0 {
		c.ShutdownRefresh = DefaultShutdownRefresh
	}
	return c
}

// Poller drives status refreshes at an adaptive rate plus the local action countdown.
// Each timer is one-shot and rescheduling always cancels the previous one first.
type Poller struct {
	tracker   *DeviceTracker
	schedules *ScheduleStore
	shutdowns *ShutdownStore
	clock     Clock
	log       *logger.Logger
	cfg       PollConfig

	mu       sync.Mutex
	ctx      context.Context
	running  bool
	interval time.Duration

	statusTimer    Timer
	countdownTimer Timer
	countdownGen   uint64
	shutdownTimer  Timer
	shutdownGen    uint64

	remaining    int
	hasRemaining bool
	forcedFor    time.Time // start instant of the action timer already force-refreshed
}

// NewPoller wires a scheduler to the tracker's refresh notifications.
// schedules and shutdowns may be nil.
func NewPoller(tracker *DeviceTracker, schedules *ScheduleStore, shutdowns *ShutdownStore, clock Clock, log *logger.Logger, cfg PollConfig) *Poller {
	if log == nil {
		log = logger.Nop()
	}
	cfg = cfg.withDefaults()
	p := &Poller{
		tracker:   tracker,
		schedules: schedules,
		shutdowns: shutdowns,
		clock:     clock,
		log:       log,
		cfg:       cfg,
		ctx:       context.Background(),
		interval:  cfg.Slow,
	}
	tracker.OnRefresh(p.reprogram)
	return p
}

// Start loads the initial state and arms the timers. It is a no-op when already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	// in-flight calls are never aborted by Stop
	p.ctx = context.WithoutCancel(ctx)
	p.armShutdownLocked()
	base := p.ctx
	p.mu.Unlock()

	p.log.Infow("poller_started", "fast_ms", p.cfg.Fast.Milliseconds(), "slow_ms", p.cfg.Slow.Milliseconds())

	p.tracker.Refresh(base)
	if p.schedules != nil {
		_ = p.schedules.Load(base)
	}
	if p.shutdowns != nil {
		_ = p.shutdowns.Load(base)
	}
}

// Run starts the scheduler and blocks until ctx is canceled, then stops it.
func (p *Poller) Run(ctx context.Context) {
	p.Start(ctx)
	<-ctx.Done()
	p.Stop()
}

// Stop clears every timer. Responses still in flight are applied to the session
// but no longer rearm anything.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	stopTimer(p.statusTimer)
	stopTimer(p.countdownTimer)
	stopTimer(p.shutdownTimer)
	p.statusTimer, p.countdownTimer, p.shutdownTimer = nil, nil, nil
	p.countdownGen++
	p.shutdownGen++
	p.log.Infow("poller_stopped")
}

// Running reports whether timers are armed.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Interval is the status period chosen after the most recent refresh.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// lastRemaining is the countdown computed by the last tick or refresh.
func (p *Poller) lastRemaining() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remaining, p.hasRemaining
}

// reprogram runs inside Refresh, under the session lock.
func (p *Poller) reprogram(ev RefreshEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inProgress := ev.Status.ActionInProgress
	p.interval = p.cfg.Slow
	if inProgress {
		p.interval = p.cfg.Fast
	}

	if ev.Timer == nil {
		p.forcedFor = time.Time{}
		p.remaining, p.hasRemaining = 0, false
	} else {
		p.remaining = remainingSeconds(p.tracker.ActionTimeout(), *ev.Timer, ev.At)
		p.hasRemaining = true
	}

	if !p.running {
		return
	}

	stopTimer(p.statusTimer)
	p.statusTimer = p.clock.AfterFunc(p.interval, p.pollTick)

	stopTimer(p.countdownTimer)
	p.countdownTimer = nil
	p.countdownGen++
	if inProgress && ev.Timer != nil {
		p.armCountdownLocked()
	}
}

func (p *Poller) pollTick() {
	p.mu.Lock()
	running, ctx := p.running, p.ctx
	p.mu.Unlock()
	if !running {
		return
	}
	p.tracker.Refresh(ctx)
}

func (p *Poller) armCountdownLocked() {
	gen := p.countdownGen
	p.countdownTimer = p.clock.AfterFunc(p.cfg.Countdown, func() { p.countdownTick(gen) })
}

// countdownTick recomputes the remaining seconds and forces one refresh
// when the countdown of the current action timer reaches zero.
func (p *Poller) countdownTick(gen uint64) {
	timer, ok := p.tracker.session.ActionTimer()
	now := p.clock.Now()

	p.mu.Lock()
	if !p.running || gen != p.countdownGen {
		p.mu.Unlock()
		return
	}
	if !ok {
		p.countdownTimer = nil
		p.mu.Unlock()
		return
	}
	rem := remainingSeconds(p.tracker.ActionTimeout(), timer, now)
	p.remaining, p.hasRemaining = rem, true
	force := rem == 0 && !p.forcedFor.Equal(timer.StartInstant)
	if force {
		p.forcedFor = timer.StartInstant
	}
	p.armCountdownLocked()
	ctx := p.ctx
	p.mu.Unlock()

	if force {
		p.log.Infow("action_timeout_reached", "started_at", timer.StartInstant)
		p.tracker.Refresh(ctx)
	}
}

func (p *Poller) armShutdownLocked() {
	if p.shutdowns == nil || p.cfg.ShutdownRefresh < 0 {
		return
	}
	gen := p.shutdownGen
	p.shutdownTimer = p.clock.AfterFunc(p.cfg.ShutdownRefresh, func() { p.shutdownTick(gen) })
}

func (p *Poller) shutdownTick(gen uint64) {
	p.mu.Lock()
	if !p.running || gen != p.shutdownGen {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.mu.Unlock()

	_ = p.shutdowns.Load(ctx)

	p.mu.Lock()
	if p.running && gen == p.shutdownGen {
		p.armShutdownLocked()
	}
	p.mu.Unlock()
}
