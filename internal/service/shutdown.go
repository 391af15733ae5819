package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"nas_control/internal/logger"
	"nas_control/internal/models"
	"nas_control/internal/repository"
	"nas_control/internal/transport"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	msgSelectDateTime   = "Please select date and time"
	msgInvalidDateTime  = "Invalid date or time"
	msgAlreadyScheduled = "A shutdown is already scheduled; cancel it first"
	msgNothingScheduled = "No shutdown is scheduled"
	msgCancelFailed     = "Failed to cancel"
	msgCancelled        = "Scheduled shutdown cancelled"
	msgCancelDeclined   = "Cancellation not confirmed"

	cancelPrompt = "Cancel scheduled shutdown?"
)

// Confirmer gates destructive calls behind an explicit user decision.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Confirmed is a Confirmer with a decision already taken.
type Confirmed bool

func (c Confirmed) Confirm(context.Context, string) bool { return bool(c) }

// ShutdownStore tracks the single pending one-time shutdown.
type ShutdownStore struct {
	session  *Session
	api      transport.API
	settings repository.SettingsRepo
	clock    Clock
	loc      *time.Location
	log      *logger.Logger
}

// NewShutdownStore builds the store; loc is the device-local zone of form values.
func NewShutdownStore(session *Session, api transport.API, settings repository.SettingsRepo, clock Clock, loc *time.Location, log *logger.Logger) *ShutdownStore {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ShutdownStore{
		session:  session,
		api:      api,
		settings: settings,
		clock:    clock,
		loc:      loc,
		log:      log,
	}
}

// RestoreOffset seeds the offset memory from the settings repository.
func (s *ShutdownStore) RestoreOffset(ctx context.Context) error {
	if s.settings == nil {
		return nil
	}
	m, ok, err := s.settings.LoadScheduleOffset(ctx)
	if err != nil {
		return fmt.Errorf("restore schedule offset: %w", err)
	}
	if ok {
		s.session.setOffsetMinutes(m)
	}
	return nil
}

// Load fetches the pending list and tracks its first element only.
// On failure the previous value is kept and the error recorded.
func (s *ShutdownStore) Load(ctx context.Context) error {
	list, err := s.api.ListScheduledShutdowns(ctx)
	if err != nil {
		s.log.Warnw("scheduled_shutdowns_load_failed", "err", err)
		err = fmt.Errorf("load scheduled shutdowns: %w", err)
		s.session.mu.Lock()
		s.session.shutdownErr = err
		s.session.mu.Unlock()
		return err
	}
	if len(list) > 1 {
		s.log.Warnw("scheduled_shutdowns_extra_ignored", "count", len(list))
	}

	var pending *models.ScheduledShutdown
	if len(list) > 0 {
		first := list[0]
		pending = &first
	}

	s.session.mu.Lock()
	s.session.shutdown = pending
	s.session.shutdownErr = nil
	s.session.mu.Unlock()
	return nil
}

// Pending returns the tracked shutdown, if any.
func (s *ShutdownStore) Pending() (models.ScheduledShutdown, bool) {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	if s.session.shutdown == nil {
		return models.ScheduledShutdown{}, false
	}
	return *s.session.shutdown, true
}

func (s *ShutdownStore) OffsetMinutes() int {
	return s.session.OffsetMinutes()
}

// FormDefault returns the date and time the scheduling form opens with:
// the pending shutdown when there is one, otherwise now plus the remembered offset.
func (s *ShutdownStore) FormDefault(now time.Time) (date, clock string) {
	at := now.In(s.loc).Add(time.Duration(s.OffsetMinutes()) * time.Minute)
	if p, ok := s.Pending(); ok {
		at = p.ScheduledAt.In(s.loc)
	}
	return at.Format(dateLayout), at.Format(clockLayout)
}

// Create schedules a shutdown from form values (YYYY-MM-DD and HH:MM, device-local).
func (s *ShutdownStore) Create(ctx context.Context, date, clock string) models.Result {
	if date == "" || clock == "" {
		return models.Failed(models.FailureValidation, msgSelectDateTime)
	}
	at, err := time.ParseInLocation(dateLayout+"T"+clockLayout, date+"T"+clock, s.loc)
	if err != nil {
		return models.Failed(models.FailureValidation, msgInvalidDateTime)
	}
	return s.CreateAt(ctx, at)
}

// CreateAt schedules a shutdown at a given instant. On success the lead time is
// remembered as the next form default and the pending entry is reloaded.
func (s *ShutdownStore) CreateAt(ctx context.Context, at time.Time) models.Result {
	if at.IsZero() {
		return models.Failed(models.FailureValidation, msgSelectDateTime)
	}
	if _, ok := s.Pending(); ok {
		return models.Failed(models.FailureValidation, msgAlreadyScheduled)
	}

	ctx = context.WithoutCancel(ctx)
	res, err := s.api.CreateScheduledShutdown(ctx, at.In(s.loc))
	if err != nil {
		s.log.Errorw("scheduled_shutdown_create_failed", "at", at, "err", err)
		return models.Failed(models.FailureTransport, msgNetworkError)
	}
	if !res.Success {
		s.log.Warnw("scheduled_shutdown_refused", "at", at, "message", res.Message)
		return res
	}

	offset := offsetMinutes(at, s.clock.Now())
	s.session.setOffsetMinutes(offset)
	if s.settings != nil {
		if err := s.settings.SaveScheduleOffset(ctx, offset); err != nil {
			s.log.Warnw("schedule_offset_persist_failed", "err", err)
		}
	}
	s.log.Infow("scheduled_shutdown_created", "at", at, "offset_min", offset)

	_ = s.Load(ctx)
	return res
}

// Cancel deletes the pending shutdown id after confirmation.
// On failure nothing is removed locally.
func (s *ShutdownStore) Cancel(ctx context.Context, id int64, confirm Confirmer) models.Result {
	if id <= 0 {
		return models.Failed(models.FailureValidation, msgNothingScheduled)
	}
	if confirm == nil || !confirm.Confirm(ctx, cancelPrompt) {
		return models.Failed(models.FailureDeclined, msgCancelDeclined)
	}

	ctx = context.WithoutCancel(ctx)
	res, err := s.api.DeleteScheduledShutdown(ctx, id)
	if err != nil {
		s.log.Errorw("scheduled_shutdown_cancel_failed", "id", id, "err", err)
		return models.Failed(models.FailureTransport, msgCancelFailed)
	}
	if !res.Success {
		s.log.Warnw("scheduled_shutdown_cancel_refused", "id", id, "message", res.Message)
		return res
	}
	if res.Message == "" {
		res.Message = msgCancelled
	}
	s.log.Infow("scheduled_shutdown_cancelled", "id", id)

	_ = s.Load(ctx)
	return res
}

// CancelPending cancels whatever shutdown is currently tracked.
func (s *ShutdownStore) CancelPending(ctx context.Context, confirm Confirmer) models.Result {
	p, ok := s.Pending()
	if !ok {
		return models.Failed(models.FailureValidation, msgNothingScheduled)
	}
	return s.Cancel(ctx, p.ID, confirm)
}

func offsetMinutes(at, now time.Time) int {
	return int(math.Round(at.Sub(now).Minutes()))
}
