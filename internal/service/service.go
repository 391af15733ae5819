package service

import (
	"context"
	"time"

	"nas_control/internal/logger"
	"nas_control/internal/models"
	"nas_control/internal/repository"
	"nas_control/internal/transport"
)

// Device exposes the user-initiated power actions.
type Device interface {
	InvokeAction(ctx context.Context, kind models.ActionType) models.Result
	ClearAction(ctx context.Context) models.Result
}

// Monitoring exposes the read-only session view.
type Monitoring interface {
	Snapshot() models.Snapshot
}

// WeeklySchedule exposes the seven weekday power windows.
type WeeklySchedule interface {
	Entries() [models.DaysPerWeek]models.WeeklyScheduleEntry
	Load(ctx context.Context) error
	Save(ctx context.Context, day int, patch models.SchedulePatch) models.Result
}

// OneTimeShutdown exposes the single pending future shutdown.
type OneTimeShutdown interface {
	Load(ctx context.Context) error
	Pending() (models.ScheduledShutdown, bool)
	OffsetMinutes() int
	FormDefault(now time.Time) (date, clock string)
	Create(ctx context.Context, date, clock string) models.Result
	Cancel(ctx context.Context, id int64, confirm Confirmer) models.Result
	CancelPending(ctx context.Context, confirm Confirmer) models.Result
}

// Scheduler runs the background timers. Stop via context cancellation in main().
type Scheduler interface {
	Run(ctx context.Context)
	Stop()
}

// Service aggregates the client engine behind the presentation boundary.
type Service struct {
	Device
	Monitoring
	WeeklySchedule
	OneTimeShutdown
	Scheduler
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	Clock         Clock
	Location      *time.Location
	ActionTimeout time.Duration
	Poll          PollConfig
	DefaultOffset int // minutes, used until the user confirms a shutdown
}

// NewService wires one Session into every component.
func NewService(api transport.API, repos *repository.Repository, log *logger.Logger, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	if repos == nil {
		repos = repository.NewRepository(nil)
	}

	session := NewSession()
	if opts.DefaultOffset > 0 {
		session.setOffsetMinutes(opts.DefaultOffset)
	}

	tracker := NewDeviceTracker(session, api, clock, log, opts.ActionTimeout)
	schedules := NewScheduleStore(session, api, log)
	shutdowns := NewShutdownStore(session, api, repos.Settings, clock, opts.Location, log)
	if err := shutdowns.RestoreOffset(context.Background()); err != nil {
		log.Warnw("schedule_offset_restore_failed", "err", err)
	}
	poller := NewPoller(tracker, schedules, shutdowns, clock, log, opts.Poll)

	return &Service{
		Device:          tracker,
		Monitoring:      NewMonitoringService(session, tracker, poller, clock),
		WeeklySchedule:  schedules,
		OneTimeShutdown: shutdowns,
		Scheduler:       poller,
	}
}
