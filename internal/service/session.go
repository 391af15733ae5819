package service

import (
	"sync"
	"time"

	"nas_control/internal/models"
)

// Session is the single owner of the client-side view of the device.
// Every write replaces a whole value under mu; network I/O never runs under mu.
type Session struct {
	mu sync.Mutex

	status  models.DeviceStatus
	timer   *models.ActionTimer
	message *models.ActionMessage

	week       [models.DaysPerWeek]models.WeeklyScheduleEntry
	weekLoaded bool
	weekErr    error

	shutdown    *models.ScheduledShutdown
	shutdownErr error

	offsetMinutes int
}

// NewSession returns a session in the unknown state with an empty week.
func NewSession() *Session {
	return &Session{
		status:        models.UnknownStatus(),
		week:          models.EmptyWeek(),
		offsetMinutes: models.DefaultScheduleOffsetMinutes,
	}
}

// Status returns the last applied device status.
func (s *Session) Status() models.DeviceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ActionTimer returns the held action timer, if any.
func (s *Session) ActionTimer() (models.ActionTimer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return models.ActionTimer{}, false
	}
	return *s.timer, true
}

// LastMessage returns the feedback of the last start/stop call.
func (s *Session) LastMessage() (models.ActionMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.message == nil {
		return models.ActionMessage{}, false
	}
	return *s.message, true
}

func (s *Session) OffsetMinutes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offsetMinutes
}

func (s *Session) setOffsetMinutes(m int) {
	s.mu.Lock()
	s.offsetMinutes = m
	s.mu.Unlock()
}

func (s *Session) setMessage(m *models.ActionMessage) {
	s.mu.Lock()
	s.message = m
	s.mu.Unlock()
}

// applyStatus replaces the status and keeps the action timer in step with it.
// Caller holds mu.
func (s *Session) applyStatus(st models.DeviceStatus, now time.Time) {
	prev := s.status
	st = st.Normalize()
	s.status = st

	if st.ActionInProgress {
		if s.timer == nil {
			elapsed := time.Duration(st.ActionElapsedSeconds * float64(time.Second))
			s.timer = &models.ActionTimer{StartInstant: now.Add(-elapsed)}
		}
		return
	}

	s.timer = nil
	if prev.ActionInProgress && s.message == nil {
		s.message = completionMessage(prev.ActionType)
	}
}

// applyUnknown resets to the fail-safe state. Caller holds mu.
func (s *Session) applyUnknown() {
	s.status = models.UnknownStatus()
	s.timer = nil
}

// snapshot copies everything a renderer may read. Caller holds mu.
func (s *Session) snapshot() models.Snapshot {
	snap := models.Snapshot{
		Status:                s.status,
		Schedules:             s.week,
		SchedulesLoaded:       s.weekLoaded,
		ScheduleOffsetMinutes: s.offsetMinutes,
	}
	if s.status.Online != nil {
		snap.Status.Online = models.BoolPtr(*s.status.Online)
	}
	if s.timer != nil {
		t := *s.timer
		snap.ActionTimer = &t
	}
	if s.message != nil {
		m := *s.message
		snap.LastMessage = &m
	}
	if s.weekErr != nil {
		snap.ScheduleLoadError = s.weekErr.Error()
	}
	if s.shutdown != nil {
		sd := *s.shutdown
		snap.Shutdown = &sd
	}
	if s.shutdownErr != nil {
		snap.ShutdownLoadError = s.shutdownErr.Error()
	}
	return snap
}

func completionMessage(action models.ActionType) *models.ActionMessage {
	text := "Stopped successfully"
	if action == models.ActionStart {
		text = "Started successfully"
	}
	return &models.ActionMessage{Text: text, Kind: models.MessageOK}
}
