package handlers

import (
	"condensing_unit/internal/logger"
	"condensing_unit/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler exposes the unit's read model over HTTP.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{services: services, log: log.Named("http")}
}

// InitRoutes builds the Gin router. Everything under /api/v1 needs a bearer token;
// the control loop itself cannot be driven from here.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	auth := router.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}

	api := router.Group("/api/v1", h.userIdentity)
	{
		unit := api.Group("/unit")
		{
			unit.GET("/state", h.getUnitState)
			unit.GET("/fans", h.getFans)
		}
		api.GET("/events", h.getEvents)
	}

	router.GET("/ws", h.wsConnect)

	return router
}
