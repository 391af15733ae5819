package handlers

import (
	"time"

	"nas_control/internal/logger"
	"nas_control/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	now      func() time.Time
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log, now: time.Now}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestID, h.accessLog)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	// Session stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/session", h.getSession)
		h.registerDeviceRoutes(api)
		h.registerScheduleRoutes(api)
		h.registerShutdownRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.POST("/start", h.startDevice)
		device.POST("/stop", h.stopDevice)
		device.POST("/clear-action", h.clearAction)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedules := api.Group("/schedules")
	{
		schedules.GET("", h.getSchedules)
		// Body example: {"enabled":true,"start_time":"08:00"}
		schedules.PUT("/:day", h.updateSchedule)
	}
}

func (h *Handler) registerShutdownRoutes(api *gin.RouterGroup) {
	shutdown := api.Group("/scheduled-shutdown")
	{
		shutdown.GET("", h.getScheduledShutdown)
		shutdown.GET("/form", h.getShutdownForm)
		// Body example: {"date":"2025-01-01","time":"22:30"}
		shutdown.POST("", h.createScheduledShutdown)
		shutdown.DELETE("", h.cancelPendingShutdown)
		shutdown.DELETE("/:id", h.cancelScheduledShutdown)
	}
}
