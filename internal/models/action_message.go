package models

type MessageKind string

const (
	MessageOK    MessageKind = "ok"
	MessageError MessageKind = "error"
)

// Markers prefixed to user-facing feedback.
const (
	OKMarker      = "✓ "
	WarningMarker = "⚠ "
)

// ActionMessage is the feedback of the last user-initiated start/stop call.
type ActionMessage struct {
	Text string      `json:"text"`
	Kind MessageKind `json:"kind"`
}
