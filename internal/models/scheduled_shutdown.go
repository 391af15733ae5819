package models

import "time"

// ScheduledShutdown is the single pending one-time shutdown.
// ScheduledAt is a device-local wall clock time.
type ScheduledShutdown struct {
	ID          int64     `json:"id"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// DefaultScheduleOffsetMinutes seeds the scheduling form until the user confirms one.
const DefaultScheduleOffsetMinutes = 5
