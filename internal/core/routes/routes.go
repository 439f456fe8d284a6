package routes

import (
	"semprejoias/internal/core/container"
	"semprejoias/internal/live"
	"semprejoias/internal/middleware"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(c.Logger), middleware.MetricsMiddleware())

	RegisterUtilityRoutes(router, c)
	RegisterProtectedRoutes(router, c)
	return router
}

func RegisterUtilityRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/health", middleware.HealthCheckMiddleware(c.Store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterProtectedRoutes mounts every route that needs an actor. The live
// stream is left outside the request timeout.
func RegisterProtectedRoutes(router *gin.Engine, c *container.Container) {
	protectedRoutes := router.Group("")
	protectedRoutes.Use(security.ActorMiddleware([]byte(c.Config.JWT.SecretKey)), c.RateLimiter.Middleware())

	live.NewStreamHandler(c.Store, c.Logger).RegisterRoutes(protectedRoutes)

	apiRoutes := protectedRoutes.Group("")
	apiRoutes.Use(middleware.TimeoutMiddleware(c.Config.Server.RequestTimeout))

	c.LedgerHandler.RegisterRoutes(apiRoutes)
	c.ReservationHandler.RegisterRoutes(apiRoutes)
	c.ConflictHandler.RegisterRoutes(apiRoutes)
	c.ConversionHandler.RegisterRoutes(apiRoutes)
	c.OrderHandler.RegisterRoutes(apiRoutes)
	c.ArchiveHandler.RegisterRoutes(apiRoutes)
	c.AgingHandler.RegisterRoutes(apiRoutes)
	if c.AuditLogHandler != nil {
		c.AuditLogHandler.RegisterRoutes(apiRoutes)
	}
}
