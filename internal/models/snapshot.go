package models

// Snapshot is a read-only copy of the whole client session for renderers.
type Snapshot struct {
	Status                DeviceStatus                     `json:"status"`
	ActionTimer           *ActionTimer                     `json:"action_timer,omitempty"`
	RemainingSeconds      *int                             `json:"remaining_seconds,omitempty"`
	StatusLine            string                           `json:"status_line"`
	LastMessage           *ActionMessage                   `json:"last_message,omitempty"`
	Schedules             [DaysPerWeek]WeeklyScheduleEntry `json:"schedules"`
	SchedulesLoaded       bool                             `json:"schedules_loaded"`
	ScheduleLoadError     string                           `json:"schedule_load_error,omitempty"`
	Shutdown              *ScheduledShutdown               `json:"scheduled_shutdown,omitempty"`
	ShutdownLoadError     string                           `json:"shutdown_load_error,omitempty"`
	ScheduleOffsetMinutes int                              `json:"schedule_offset_minutes"`
	PollIntervalMs        int64                            `json:"poll_interval_ms"`
	Polling               bool                             `json:"polling"`
}
