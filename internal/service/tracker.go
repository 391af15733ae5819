package service

import (
	"context"
	"math"
	"sync"
	"time"

	"nas_control/internal/logger"
	"nas_control/internal/models"
	"nas_control/internal/transport"
)

// DefaultActionTimeout is how long the device is given to finish a start or stop.
const DefaultActionTimeout = 180 * time.Second

const (
	msgNetworkError = "Network error"
	msgInvalidKind  = "unknown action: must be start or stop"
)

// RefreshEvent describes the state applied by one Refresh.
type RefreshEvent struct {
	Status models.DeviceStatus
	Timer  *models.ActionTimer
	At     time.Time
}

// RefreshObserver is called under the session lock right after a refresh is applied.
// It must not call back into the session.
type RefreshObserver func(ev RefreshEvent)

// DeviceTracker reconciles successive status reads into the session.
type DeviceTracker struct {
	session       *Session
	api           transport.API
	clock         Clock
	log           *logger.Logger
	actionTimeout time.Duration

	obsMu     sync.Mutex
	observers []RefreshObserver
}

func NewDeviceTracker(session *Session, api transport.API, clock Clock, log *logger.Logger, actionTimeout time.Duration) *DeviceTracker {
	if actionTimeout <= 0 {
		actionTimeout = DefaultActionTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DeviceTracker{
		session:       session,
		api:           api,
		clock:         clock,
		log:           log,
		actionTimeout: actionTimeout,
	}
}

// OnRefresh registers fn to be notified after every Refresh.
func (t *DeviceTracker) OnRefresh(fn RefreshObserver) {
	t.obsMu.Lock()
	t.observers = append(t.observers, fn)
	t.obsMu.Unlock()
}

// Refresh reads the device status and replaces the session state with it.
// A failed read resets the session to the unknown state.
func (t *DeviceTracker) Refresh(ctx context.Context) models.DeviceStatus {
	st, err := t.api.GetStatus(ctx)
	now := t.clock.Now()

	t.obsMu.Lock()
	observers := append([]RefreshObserver(nil), t.observers...)
	t.obsMu.Unlock()

	s := t.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		t.log.Warnw("status_refresh_failed", "err", err, "transport", transport.IsFailure(err))
		s.applyUnknown()
	} else {
		s.applyStatus(st, now)
	}

	ev := RefreshEvent{Status: s.status, At: now}
	if s.timer != nil {
		tm := *s.timer
		ev.Timer = &tm
	}
	for _, fn := range observers {
		fn(ev)
	}
	return s.status
}

// InvokeAction issues a start or stop, records its feedback and then refreshes.
// The follow-up refresh runs whatever the call's outcome. Cancelling ctx does not
// abort either call.
func (t *DeviceTracker) InvokeAction(ctx context.Context, kind models.ActionType) models.Result {
	if !kind.Valid() {
		return models.Failed(models.FailureValidation, msgInvalidKind)
	}
	ctx = context.WithoutCancel(ctx)

	t.session.setMessage(nil)

	var (
		res models.Result
		err error
	)
	switch kind {
	case models.ActionStart:
		res, err = t.api.Start(ctx)
	case models.ActionStop:
		res, err = t.api.Stop(ctx)
	}

	if err != nil {
		t.log.Errorw("device_action_failed", "action", kind, "err", err)
		res = models.Failed(models.FailureTransport, msgNetworkError)
	} else if !res.Success {
		t.log.Warnw("device_action_refused", "action", kind, "message", res.Message)
	} else {
		t.log.Infow("device_action_sent", "action", kind, "message", res.Message)
	}
	t.session.setMessage(actionMessage(res))

	t.Refresh(ctx)
	return res
}

// ClearAction asks the service to forget the action in progress, then refreshes.
func (t *DeviceTracker) ClearAction(ctx context.Context) models.Result {
	ctx = context.WithoutCancel(ctx)
	res, err := t.api.ClearAction(ctx)
	if err != nil {
		t.log.Errorw("clear_action_failed", "err", err)
		res = models.Failed(models.FailureTransport, msgNetworkError)
	}
	t.Refresh(ctx)
	return res
}

// Remaining returns the countdown seconds of the action in progress.
// ok is false when no action timer is held.
func (t *DeviceTracker) Remaining(now time.Time) (int, bool) {
	t.session.mu.Lock()
	defer t.session.mu.Unlock()
	if !t.session.status.ActionInProgress || t.session.timer == nil {
		return 0, false
	}
	return remainingSeconds(t.actionTimeout, *t.session.timer, now), true
}

// ActionTimeout is the countdown length of an action.
func (t *DeviceTracker) ActionTimeout() time.Duration {
	return t.actionTimeout
}

func remainingSeconds(timeout time.Duration, timer models.ActionTimer, now time.Time) int {
	rem := math.Ceil(timeout.Seconds() - timer.Elapsed(now).Seconds())
	if rem < 0 {
		return 0
	}
	return int(rem)
}

func actionMessage(res models.Result) *models.ActionMessage {
	if res.Success {
		if res.Message == "" {
			// an empty ack leaves room for the completion message
			return nil
		}
		return &models.ActionMessage{Text: res.Message, Kind: models.MessageOK}
	}
	return &models.ActionMessage{Text: models.WarningMarker + res.Message, Kind: models.MessageError}
}
