package handlers

import (
	"net/http"
	"strconv"

	"nas_control/internal/models"

	"github.com/gin-gonic/gin"
)

// SchedulesResponse lists the seven weekday entries, Monday first.
type SchedulesResponse struct {
	Schedules [models.DaysPerWeek]models.WeeklyScheduleEntry `json:"schedules"`
}

// UpdateScheduleRequest is an exported model for Swagger docs of the schedule edit payload.
type UpdateScheduleRequest struct {
	Enabled *bool `json:"enabled,omitempty" example:"true"`
	// HH:MM, device-local
	StartTime *string `json:"start_time,omitempty" example:"08:00"`
	// HH:MM, device-local
	StopTime *string `json:"stop_time,omitempty" example:"23:00"`
}

// @Summary      List weekly schedules
// @Tags         schedules
// @Produce      json
// @Param        reload  query   bool  false  "Fetch from the device service first"
// @Success      200     {object}  SchedulesResponse
// @Failure      502     {object}  map[string]string
// @Router       /api/v1/schedules [get]
func (h *Handler) getSchedules(c *gin.Context) {
	if reload, _ := strconv.ParseBool(c.Query("reload")); reload {
		if err := h.services.WeeklySchedule.Load(c.Request.Context()); err != nil {
			h.logAndJSONError(c, http.StatusBadGateway, errLoadSchedules, "schedules_reload_failed", err)
			return
		}
	}
	c.JSON(http.StatusOK, SchedulesResponse{Schedules: h.services.WeeklySchedule.Entries()})
}

// @Summary      Update one weekday
// @Description  Omitted fields keep their current value; the full entry is sent to the device.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        day   path   int                    true  "Day of week, 0 is Monday"
// @Param        body  body   UpdateScheduleRequest  true  "Fields to change"
// @Success      200   {object}  ResultResponse
// @Failure      400   {object}  ResultResponse
// @Failure      409   {object}  ResultResponse
// @Failure      502   {object}  ResultResponse
// @Router       /api/v1/schedules/{day} [put]
func (h *Handler) updateSchedule(c *gin.Context) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || !models.ValidDay(day) {
		h.respondWithResult(c, models.Failed(models.FailureValidation, errInvalidDay))
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondWithResult(c, models.Failed(models.FailureValidation, errInvalidBodyPref+err.Error()))
		return
	}
	patch := models.SchedulePatch{Enabled: req.Enabled, StartTime: req.StartTime, StopTime: req.StopTime}
	if patch.Empty() {
		h.respondWithResult(c, models.Failed(models.FailureValidation, errEmptyEdit))
		return
	}

	res := h.services.WeeklySchedule.Save(c.Request.Context(), day, patch)
	h.respondWithResult(c, res)
}
