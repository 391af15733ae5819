package handlers

import (
	"net/http"

	"nas_control/internal/models"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errInvalidDay      = "invalid day: must be 0..6"
	errInvalidID       = "invalid id"
	errEmptyEdit       = "nothing to update"
	errLoadSchedules   = "failed to load schedules"
	errLoadShutdowns   = "failed to load scheduled shutdowns"
)

// ResultResponse is the body of every mutating endpoint.
type ResultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Message with the ok or warning marker, ready to display
	Display string             `json:"display"`
	Failure models.FailureKind `json:"failure,omitempty"`
	Session *models.Snapshot   `json:"session,omitempty"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusFor maps a mutation outcome to an HTTP status code.
func statusFor(res models.Result) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.Failure {
	case models.FailureValidation:
		return http.StatusBadRequest
	case models.FailureDeclined:
		return http.StatusPreconditionFailed
	case models.FailureTransport:
		return http.StatusBadGateway
	default:
		return http.StatusConflict
	}
}

// newResultResponse attaches the session as it stands after the call.
func (h *Handler) newResultResponse(res models.Result) ResultResponse {
	resp := ResultResponse{
		Success: res.Success,
		Message: res.Message,
		Display: res.Display(),
		Failure: res.Failure,
	}
	if h.services.Monitoring != nil {
		snap := h.services.Monitoring.Snapshot()
		resp.Session = &snap
	}
	return resp
}

func (h *Handler) respondWithResult(c *gin.Context, res models.Result) {
	c.JSON(statusFor(res), h.newResultResponse(res))
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get session
// @Description  Device status, countdown, last action feedback, schedules and the pending shutdown.
// @Tags         session
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Router       /api/v1/session [get]
func (h *Handler) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Snapshot())
}

// @Summary      Start NAS
// @Description  Sends the wake request, then refreshes the status.
// @Tags         device
// @Produce      json
// @Success      200  {object}  ResultResponse
// @Failure      409  {object}  ResultResponse  "refused by the device service"
// @Failure      502  {object}  ResultResponse  "device service unreachable"
// @Router       /api/v1/device/start [post]
func (h *Handler) startDevice(c *gin.Context) {
	res := h.services.Device.InvokeAction(c.Request.Context(), models.ActionStart)
	h.respondWithResult(c, res)
}

// @Summary      Stop NAS
// @Tags         device
// @Produce      json
// @Success      200  {object}  ResultResponse
// @Failure      409  {object}  ResultResponse
// @Failure      502  {object}  ResultResponse
// @Router       /api/v1/device/stop [post]
func (h *Handler) stopDevice(c *gin.Context) {
	res := h.services.Device.InvokeAction(c.Request.Context(), models.ActionStop)
	h.respondWithResult(c, res)
}

// @Summary      Clear action
// @Description  Forgets an action stuck in progress.
// @Tags         device
// @Produce      json
// @Success      200  {object}  ResultResponse
// @Failure      409  {object}  ResultResponse
// @Failure      502  {object}  ResultResponse
// @Router       /api/v1/device/clear-action [post]
func (h *Handler) clearAction(c *gin.Context) {
	res := h.services.Device.ClearAction(c.Request.Context())
	h.respondWithResult(c, res)
}
