package service

import (
	"fmt"

	"nas_control/internal/models"
)

// FormatCountdown renders seconds as m:ss.
func FormatCountdown(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}

// StatusLine is the one-line summary shown next to the status indicator.
func StatusLine(st models.DeviceStatus, remaining int, hasRemaining bool) string {
	if st.ActionInProgress {
		verb := "Stopping"
		if st.ActionType == models.ActionStart {
			verb = "Starting"
		}
		if !hasRemaining {
			return verb + " NAS…"
		}
		return fmt.Sprintf("%s NAS… (%s)", verb, FormatCountdown(remaining))
	}
	switch {
	case st.IsUnknown():
		return "Unknown state"
	case st.IsOnline():
		return "NAS online"
	default:
		return "NAS offline"
	}
}
