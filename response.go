package nas_control

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Online           bool     `json:"online"`
	ActionInProgress bool     `json:"action_in_progress"`
	ActionType       *string  `json:"action_type"`    // "start" | "stop" | null
	ActionElapsed    *float64 `json:"action_elapsed"` // seconds, null when idle
}

// MutationResponse is returned by every write endpoint of the device service.
type MutationResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message,omitempty"`
}

// Schedule is a single weekday row; day_of_week 0 is Monday.
type Schedule struct {
	DayOfWeek int    `json:"day_of_week"`
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"` // HH:MM
	StopTime  string `json:"stop_time"`  // HH:MM
}

type SchedulesResponse struct {
	Schedules []Schedule `json:"schedules"`
}

// ScheduleUpdateRequest is the PUT /api/schedules/{day} body. All three fields are required.
type ScheduleUpdateRequest struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	StopTime  string `json:"stop_time"`
}

type ScheduledShutdown struct {
	ID          int64  `json:"id"`
	ScheduledAt string `json:"scheduled_at"` // ISO8601, device-local
}

type ScheduledShutdownsResponse struct {
	Shutdowns []ScheduledShutdown `json:"shutdowns"`
}

// ScheduledShutdownRequest is the POST /api/scheduled-shutdowns body.
type ScheduledShutdownRequest struct {
	ScheduledAt string `json:"scheduled_at"` // YYYY-MM-DDTHH:MM:SS, no timezone
}
