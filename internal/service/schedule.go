package service

import (
	"context"
	"fmt"

	"nas_control/internal/logger"
	"nas_control/internal/models"
	"nas_control/internal/transport"
)

const (
	msgScheduleSaveFailed = "Failed to save schedule"
	msgSchedulesNotLoaded = "Schedules not loaded yet"
)

// ScheduleStore holds the seven weekday entries and pushes single-day edits.
type ScheduleStore struct {
	session *Session
	api     transport.API
	log     *logger.Logger
}

func NewScheduleStore(session *Session, api transport.API, log *logger.Logger) *ScheduleStore {
	if log == nil {
		log = logger.Nop()
	}
	return &ScheduleStore{session: session, api: api, log: log}
}

// Load replaces the local week with the remote one.
// On failure the previous entries are kept and the error is recorded for display.
func (s *ScheduleStore) Load(ctx context.Context) error {
	entries, err := s.api.ListSchedules(ctx)
	if err != nil {
		s.log.Warnw("schedules_load_failed", "err", err)
		err = fmt.Errorf("load schedules: %w", err)
		s.session.mu.Lock()
		s.session.weekErr = err
		s.session.mu.Unlock()
		return err
	}

	week := models.EmptyWeek()
	for _, e := range entries {
		if !models.ValidDay(e.Day) {
			continue
		}
		week[e.Day] = e
		week[e.Day].Name = models.DayName(e.Day)
	}

	s.session.mu.Lock()
	s.session.week = week
	s.session.weekLoaded = true
	s.session.weekErr = nil
	s.session.mu.Unlock()
	return nil
}

// Entries returns a copy of the seven entries.
func (s *ScheduleStore) Entries() [models.DaysPerWeek]models.WeeklyScheduleEntry {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	return s.session.week
}

// LoadError is the error of the last failed Load, nil after a successful one.
func (s *ScheduleStore) LoadError() error {
	s.session.mu.Lock()
	defer s.session.mu.Unlock()
	return s.session.weekErr
}

// Save applies patch to the local entry of day and sends the full entry.
// A refused or failed save keeps the local entry as edited. Before the first
// successful Load only a patch carrying all three fields is accepted.
func (s *ScheduleStore) Save(ctx context.Context, day int, patch models.SchedulePatch) models.Result {
	if !models.ValidDay(day) {
		return models.Failed(models.FailureValidation, fmt.Sprintf("invalid day %d: must be 0..6", day))
	}

	s.session.mu.Lock()
	if !s.session.weekLoaded && !patch.Complete() {
		s.session.mu.Unlock()
		return models.Failed(models.FailureValidation, msgSchedulesNotLoaded)
	}
	entry := patch.Apply(s.session.week[day])
	entry.Day = day
	entry.Name = models.DayName(day)
	if err := validateEntry(entry); err != nil {
		s.session.mu.Unlock()
		return models.Failed(models.FailureValidation, err.Error())
	}
	s.session.week[day] = entry
	s.session.mu.Unlock()

	res, err := s.api.UpdateSchedule(context.WithoutCancel(ctx), day, entry)
	if err != nil {
		s.log.Errorw("schedule_save_failed", "day", day, "err", err)
		return models.Failed(models.FailureTransport, msgScheduleSaveFailed)
	}
	if !res.Success {
		s.log.Warnw("schedule_save_refused", "day", day, "message", res.Message)
		return res
	}
	s.log.Infow("schedule_saved", "day", day, "enabled", entry.Enabled, "start", entry.StartTime, "stop", entry.StopTime)
	return res
}

func validateEntry(e models.WeeklyScheduleEntry) error {
	if err := models.ValidateClock(e.StartTime); err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	if err := models.ValidateClock(e.StopTime); err != nil {
		return fmt.Errorf("stop_time: %w", err)
	}
	return nil
}
