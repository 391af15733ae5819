package handlers

import (
	"context"
	"time"

	"nas_control/internal/models"
	"nas_control/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockDevice struct {
	startRes   models.Result
	stopRes    models.Result
	clearRes   models.Result
	lastKind   models.ActionType
	invokes    int
	clearCalls int
}

func (m *mockDevice) InvokeAction(ctx context.Context, kind models.ActionType) models.Result {
	m.invokes++
	m.lastKind = kind
	if kind == models.ActionStop {
		return m.stopRes
	}
	return m.startRes
}
func (m *mockDevice) ClearAction(ctx context.Context) models.Result {
	m.clearCalls++
	return m.clearRes
}

type mockMonitoring struct {
	snap models.Snapshot
}

func (m *mockMonitoring) Snapshot() models.Snapshot {
	return m.snap
}

type mockSchedules struct {
	week    [models.DaysPerWeek]models.WeeklyScheduleEntry
	loadErr error
	saveRes models.Result

	loads     int
	saves     int
	lastDay   int
	lastPatch models.SchedulePatch
}

func (m *mockSchedules) Entries() [models.DaysPerWeek]models.WeeklyScheduleEntry {
	return m.week
}
func (m *mockSchedules) Load(ctx context.Context) error {
	m.loads++
	return m.loadErr
}
func (m *mockSchedules) Save(ctx context.Context, day int, patch models.SchedulePatch) models.Result {
	m.saves++
	m.lastDay = day
	m.lastPatch = patch
	return m.saveRes
}

type mockShutdown struct {
	pending   *models.ScheduledShutdown
	loadErr   error
	offset    int
	formDate  string
	formClock string
	createRes models.Result
	cancelRes models.Result

	loads      int
	lastNow    time.Time
	lastDate   string
	lastClock  string
	cancels    int
	lastID     int64
	lastAnswer bool
}

func (m *mockShutdown) Load(ctx context.Context) error {
	m.loads++
	return m.loadErr
}
func (m *mockShutdown) Pending() (models.ScheduledShutdown, bool) {
	if m.pending == nil {
		return models.ScheduledShutdown{}, false
	}
	return *m.pending, true
}
func (m *mockShutdown) OffsetMinutes() int { return m.offset }
func (m *mockShutdown) FormDefault(now time.Time) (string, string) {
	m.lastNow = now
	return m.formDate, m.formClock
}
func (m *mockShutdown) Create(ctx context.Context, date, clock string) models.Result {
	m.lastDate, m.lastClock = date, clock
	return m.createRes
}
func (m *mockShutdown) CancelPending(ctx context.Context, confirm service.Confirmer) models.Result {
	if m.pending == nil {
		return models.Failed(models.FailureValidation, "No shutdown is scheduled")
	}
	return m.Cancel(ctx, m.pending.ID, confirm)
}
func (m *mockShutdown) Cancel(ctx context.Context, id int64, confirm service.Confirmer) models.Result {
	m.cancels++
	m.lastID = id
	m.lastAnswer = confirm != nil && confirm.Confirm(ctx, "")
	if !m.lastAnswer {
		return models.Failed(models.FailureDeclined, "Cancellation not confirmed")
	}
	return m.cancelRes
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
