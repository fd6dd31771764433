package handlers

import (
	"petdoor_hub/internal/logger"
	"petdoor_hub/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket snapshot stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerDoorRoutes(api)
		h.registerPetRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDoorRoutes(api *gin.RouterGroup) {
	door := api.Group("/door")
	{
		door.GET("/state", h.getState)
		door.GET("/identity", h.getIdentity)
		door.POST("/open", h.openDoor)
		door.POST("/close", h.closeDoor)
	}
	// Body example: {"on": true}
	api.POST("/switches/:key", h.setSwitch)
}

func (h *Handler) registerPetRoutes(api *gin.RouterGroup) {
	api.GET("/pets", h.getPets)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
