package service

import "nas_control/internal/models"

// MonitoringService assembles the read side of the presentation boundary.
type MonitoringService struct {
	session *Session
	tracker *DeviceTracker
	poller  *Poller
	clock   Clock
}

func NewMonitoringService(session *Session, tracker *DeviceTracker, poller *Poller, clock Clock) *MonitoringService {
	return &MonitoringService{session: session, tracker: tracker, poller: poller, clock: clock}
}

// Snapshot returns a consistent copy of the session plus the derived countdown.
func (s *MonitoringService) Snapshot() models.Snapshot {
	now := s.clock.Now()

	s.session.mu.Lock()
	snap := s.session.snapshot()
	s.session.mu.Unlock()

	remaining, ok := 0, false
	if snap.ActionTimer != nil && snap.Status.ActionInProgress {
		remaining, ok = remainingSeconds(s.tracker.ActionTimeout(), *snap.ActionTimer, now), true
		snap.RemainingSeconds = &remaining
	}
	snap.StatusLine = StatusLine(snap.Status, remaining, ok)
	if s.poller != nil {
		snap.PollIntervalMs = s.poller.Interval().Milliseconds()
		snap.Polling = s.poller.Running()
	}
	return snap
}
