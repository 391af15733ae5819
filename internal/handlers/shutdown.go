package handlers

import (
	"net/http"
	"strconv"

	"nas_control/internal/models"
	"nas_control/internal/service"

	"github.com/gin-gonic/gin"
)

// ScheduledShutdownResponse reports the pending one-time shutdown, if any.
type ScheduledShutdownResponse struct {
	Pending *models.ScheduledShutdown `json:"pending"`
}

// ShutdownFormResponse holds the values the scheduling form opens with.
type ShutdownFormResponse struct {
	Date          string `json:"date" example:"2025-01-01"`
	Time          string `json:"time" example:"22:30"`
	OffsetMinutes int    `json:"offset_minutes" example:"5"`
	Pending       bool   `json:"pending"`
}

// CreateShutdownRequest is the body of POST /api/v1/scheduled-shutdown.
type CreateShutdownRequest struct {
	// YYYY-MM-DD, device-local
	Date string `json:"date" example:"2025-01-01"`
	// HH:MM, device-local
	Time string `json:"time" example:"22:30"`
}

// @Summary      Get scheduled shutdown
// @Tags         scheduled-shutdown
// @Produce      json
// @Param        reload  query   bool  false  "Fetch from the device service first"
// @Success      200     {object}  ScheduledShutdownResponse
// @Failure      502     {object}  map[string]string
// @Router       /api/v1/scheduled-shutdown [get]
func (h *Handler) getScheduledShutdown(c *gin.Context) {
	if reload, _ := strconv.ParseBool(c.Query("reload")); reload {
		if err := h.services.OneTimeShutdown.Load(c.Request.Context()); err != nil {
			h.logAndJSONError(c, http.StatusBadGateway, errLoadShutdowns, "scheduled_shutdown_reload_failed", err)
			return
		}
	}
	var resp ScheduledShutdownResponse
	if p, ok := h.services.OneTimeShutdown.Pending(); ok {
		resp.Pending = &p
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Scheduling form defaults
// @Description  The pending shutdown time, otherwise now plus the last confirmed lead time.
// @Tags         scheduled-shutdown
// @Produce      json
// @Success      200  {object}  ShutdownFormResponse
// @Router       /api/v1/scheduled-shutdown/form [get]
func (h *Handler) getShutdownForm(c *gin.Context) {
	sd := h.services.OneTimeShutdown
	date, clock := sd.FormDefault(h.now())
	_, pending := sd.Pending()
	c.JSON(http.StatusOK, ShutdownFormResponse{
		Date:          date,
		Time:          clock,
		OffsetMinutes: sd.OffsetMinutes(),
		Pending:       pending,
	})
}

// @Summary      Schedule a shutdown
// @Tags         scheduled-shutdown
// @Accept       json
// @Produce      json
// @Param        body  body   CreateShutdownRequest  true  "Device-local date and time"
// @Success      200   {object}  ResultResponse
// @Failure      400   {object}  ResultResponse
// @Failure      409   {object}  ResultResponse
// @Failure      502   {object}  ResultResponse
// @Router       /api/v1/scheduled-shutdown [post]
func (h *Handler) createScheduledShutdown(c *gin.Context) {
	var req CreateShutdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithResult(c, models.Failed(models.FailureValidation, errInvalidBodyPref+err.Error()))
		return
	}
	res := h.services.OneTimeShutdown.Create(c.Request.Context(), req.Date, req.Time)
	h.respondWithResult(c, res)
}

// @Summary      Cancel the scheduled shutdown
// @Description  Requires confirm=true; without it nothing is sent.
// @Tags         scheduled-shutdown
// @Produce      json
// @Param        id       path   int   true   "Shutdown id"
// @Param        confirm  query  bool  false  "User confirmed the cancellation"
// @Success      200  {object}  ResultResponse
// @Failure      400  {object}  ResultResponse
// @Failure      412  {object}  ResultResponse  "not confirmed"
// @Failure      502  {object}  ResultResponse
// @Router       /api/v1/scheduled-shutdown/{id} [delete]
func (h *Handler) cancelScheduledShutdown(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondWithResult(c, models.Failed(models.FailureValidation, errInvalidID))
		return
	}
	res := h.services.OneTimeShutdown.Cancel(c.Request.Context(), id, confirmation(c))
	h.respondWithResult(c, res)
}

// @Summary      Cancel whatever shutdown is pending
// @Tags         scheduled-shutdown
// @Produce      json
// @Param        confirm  query  bool  false  "User confirmed the cancellation"
// @Success      200  {object}  ResultResponse
// @Failure      400  {object}  ResultResponse  "nothing scheduled"
// @Failure      412  {object}  ResultResponse  "not confirmed"
// @Failure      502  {object}  ResultResponse
// @Router       /api/v1/scheduled-shutdown [delete]
func (h *Handler) cancelPendingShutdown(c *gin.Context) {
	res := h.services.OneTimeShutdown.CancelPending(c.Request.Context(), confirmation(c))
	h.respondWithResult(c, res)
}

func confirmation(c *gin.Context) service.Confirmer {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	return service.Confirmed(confirmed)
}
