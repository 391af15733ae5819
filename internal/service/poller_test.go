package service

import (
	"context"
	"testing"
	"time"

	"nas_control/internal/models"
)

func newTestPoller(api *fakeAPI, clock *fakeClock, cfg PollConfig) (*Session, *DeviceTracker, *Poller) {
	s := NewSession()
	tr := NewDeviceTracker(s, api, clock, nil, 0)
	sched := NewScheduleStore(s, api, nil)
	sd := NewShutdownStore(s, api, nil, clock, time.UTC, nil)
	return s, tr, NewPoller(tr, sched, sd, clock, nil, cfg)
}

func TestPoller_AdaptiveInterval(t *testing.T) {
	api := &fakeAPI{status: offline()}
	clock := newFakeClock(t0)
	_, _, p := newTestPoller(api, clock, PollConfig{ShutdownRefresh: -1})

	p.Start(context.Background())
	if api.calls() != 1 {
		t.Fatalf("initial refresh expected, got %d calls", api.calls())
	}
	if p.Interval() != 5*time.Second {
		t.Fatalf("interval=%v after idle response", p.Interval())
	}

	steps := []struct {
		advance  time.Duration
		next     models.DeviceStatus
		calls    int
		interval time.Duration
	}{
		{5 * time.Second, inProgress(models.ActionStart, 0), 2, 2 * time.Second},
		{2 * time.Second, inProgress(models.ActionStart, 2), 3, 2 * time.Second},
		{2 * time.Second, online(), 4, 5 * time.Second},
		{2 * time.Second, online(), 4, 5 * time.Second},
		{3 * time.Second, online(), 5, 5 * time.Second},
	}
	for i, st := range steps {
		api.setStatus(st.next, nil)
		clock.Advance(st.advance)
		if got := api.calls(); got != st.calls {
			t.Fatalf("step %d: calls=%d, want %d", i, got, st.calls)
		}
		if got := p.Interval(); got != st.interval {
			t.Fatalf("step %d: interval=%v, want %v", i, got, st.interval)
		}
	}
}

func TestPoller_IntervalFollowsEveryResponse(t *testing.T) {
	api := &fakeAPI{}
	clock := newFakeClock(t0)
	_, tr, p := newTestPoller(api, clock, PollConfig{})

	for i, r := range []statusReply{
		{st: inProgress(models.ActionStop, 1)},
		{err: errRefused},
		{st: inProgress(models.ActionStart, 4)},
		{st: offline()},
	} {
		api.setStatus(r.st, r.err)
		st := tr.Refresh(context.Background())
		want := int64(5000)
		if st.ActionInProgress {
			want = 2000
		}
		if got := p.Interval().Milliseconds(); got != want {
			t.Fatalf("response %d: interval=%dms, want %dms", i, got, want)
		}
	}
}

func TestPoller_CountdownForcesOneRefreshPerAction(t *testing.T) {
	api := &fakeAPI{status: inProgress(models.ActionStart, 175)}
	clock := newFakeClock(t0)
	_, _, p := newTestPoller(api, clock, PollConfig{Fast: time.Hour, Slow: time.Hour, ShutdownRefresh: -1})

	p.Start(context.Background())
	if rem, ok := p.lastRemaining(); !ok || rem != 5 {
		t.Fatalf("remaining=%d ok=%v, want 5", rem, ok)
	}

	clock.Advance(4 * time.Second)
	if rem, _ := p.lastRemaining(); rem != 1 || api.calls() != 1 {
		t.Fatalf("remaining=%d calls=%d before timeout", rem, api.calls())
	}

	clock.Advance(time.Second)
	if api.calls() != 2 {
		t.Fatalf("expected forced refresh at zero, got %d calls", api.calls())
	}

	clock.Advance(30 * time.Second)
	if api.calls() != 2 {
		t.Fatalf("countdown kept forcing refreshes: %d calls", api.calls())
	}
	if rem, _ := p.lastRemaining(); rem != 0 {
		t.Fatalf("remaining=%d, want 0", rem)
	}

	// the action finishes, then a new one begins: the new timer may force again
	api.setStatus(online(), nil)
	clock.Advance(time.Hour)
	if _, ok := p.lastRemaining(); ok {
		t.Fatalf("countdown must end with the action")
	}
	api.setStatus(inProgress(models.ActionStop, 140), nil)
	clock.Advance(time.Hour)
	if rem, _ := p.lastRemaining(); rem != 10 {
		t.Fatalf("remaining=%d for the new action, want 10", rem)
	}
	calls := api.calls()
	clock.Advance(10 * time.Second)
	if api.calls() != calls+1 {
		t.Fatalf("new action did not force a refresh: %d -> %d", calls, api.calls())
	}
}

func TestPoller_StopClearsTimers(t *testing.T) {
	api := &fakeAPI{status: inProgress(models.ActionStart, 10)}
	clock := newFakeClock(t0)
	_, tr, p := newTestPoller(api, clock, PollConfig{})

	p.Start(context.Background())
	if clock.pending() == 0 {
		t.Fatalf("expected armed timers")
	}
	p.Stop()
	if p.Running() {
		t.Fatalf("still running")
	}
	if n := clock.pending(); n != 0 {
		t.Fatalf("%d timers left after Stop", n)
	}

	calls := api.calls()
	clock.Advance(time.Minute)
	if api.calls() != calls {
		t.Fatalf("refreshed after Stop")
	}

	// a response still in flight is applied but arms nothing
	api.setStatus(online(), nil)
	tr.Refresh(context.Background())
	if n := clock.pending(); n != 0 {
		t.Fatalf("late response rearmed %d timers", n)
	}
	if p.Interval() != 5*time.Second {
		t.Fatalf("interval=%v", p.Interval())
	}
}

func TestPoller_ShutdownListReload(t *testing.T) {
	api := &fakeAPI{status: offline()}
	clock := newFakeClock(t0)
	_, _, p := newTestPoller(api, clock, PollConfig{})

	p.Start(context.Background())
	p.Start(context.Background())
	if api.shutdownLoads != 1 || api.calls() != 1 {
		t.Fatalf("second Start must be a no-op: loads=%d calls=%d", api.shutdownLoads, api.calls())
	}

	clock.Advance(10 * time.Second)
	if api.shutdownLoads != 2 {
		t.Fatalf("shutdown loads=%d after 10s", api.shutdownLoads)
	}
	clock.Advance(20 * time.Second)
	if api.shutdownLoads != 4 {
		t.Fatalf("shutdown loads=%d after 30s", api.shutdownLoads)
	}

	p.Stop()
	clock.Advance(time.Minute)
	if api.shutdownLoads != 4 {
		t.Fatalf("shutdown list reloaded after Stop")
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	api := &fakeAPI{status: offline()}
	clock := newFakeClock(t0)
	_, _, p := newTestPoller(api, clock, PollConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
	if p.Running() {
		t.Fatalf("poller still running")
	}
}
