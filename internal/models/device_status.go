package models

import "time"

type ActionType string

const (
	ActionNone  ActionType = ""
	ActionStart ActionType = "start"
	ActionStop  ActionType = "stop"
)

// Valid reports whether a is one of the invokable actions.
func (a ActionType) Valid() bool {
	return a == ActionStart || a == ActionStop
}

// DeviceStatus is the last applied status snapshot of the NAS.
// Online is nil when the state is unknown (no successful poll yet, or the last one failed).
// ActionType is set iff ActionInProgress is true.
type DeviceStatus struct {
	Online               *bool      `json:"online"`
	ActionInProgress     bool       `json:"action_in_progress"`
	ActionType           ActionType `json:"action_type,omitempty"`
	ActionElapsedSeconds float64    `json:"action_elapsed_seconds"`
}

// UnknownStatus is the fail-safe snapshot applied after a transport failure.
func UnknownStatus() DeviceStatus {
	return DeviceStatus{}
}

// IsUnknown reports whether the online state could not be determined.
func (s DeviceStatus) IsUnknown() bool {
	return s.Online == nil
}

// IsOnline reports a known online state.
func (s DeviceStatus) IsOnline() bool {
	return s.Online != nil && *s.Online
}

// Normalize enforces the ActionType/ActionInProgress invariant.
func (s DeviceStatus) Normalize() DeviceStatus {
	if !s.ActionInProgress {
		s.ActionType = ActionNone
		s.ActionElapsedSeconds = 0
	}
	if s.ActionElapsedSeconds < 0 {
		s.ActionElapsedSeconds = 0
	}
	return s
}

// ActionTimer anchors the local countdown of an action in progress.
type ActionTimer struct {
	StartInstant time.Time `json:"start_instant"`
}

// Elapsed returns the time passed since the action started.
func (t ActionTimer) Elapsed(now time.Time) time.Duration {
	return now.Sub(t.StartInstant)
}

// BoolPtr is a small helper for optional booleans.
func BoolPtr(v bool) *bool {
	return &v
}
