package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/nearby/internal/container"
	"github.com/joshua-takyi/nearby/internal/handlers"
	"github.com/joshua-takyi/nearby/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	if cfg.EnableMetrics {
		r.Use(middleware.Metrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	verifier := container.Verifier
	if verifier == nil {
		verifier = middleware.NoVerifier{}
	}
	secure := cfg.IsProduction()
	exportCfg := handlers.ExportConfig{
		Domain:   cfg.ProductDomain,
		Location: container.Location,
		Now:      container.Now,
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			if err := container.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "nearby-api",
				"time":    time.Now().UTC().Format(time.RFC3339),
			})
		})

		v1.POST("/login", handlers.AuthenticateUser(container.UserService, secure))
		v1.POST("/logout", handlers.Logout(secure))

		v1.GET("/shops", handlers.ListShops(container.ShopService))
		v1.GET("/shops/:id", handlers.GetShop(container.ShopService))
	}

	public := v1.Group("/")
	public.Use(middleware.OptionalAuth(verifier, container.UserService, container.Logger))
	{
		public.GET("/events/feed", handlers.EventFeed(container.FeedService, container.Now))
		public.GET("/events/:id", handlers.GetEvent(container.EventService))
		public.GET("/events/:id/attendance", handlers.GetAttendance(container.AttendanceService, container.EventService))
		public.GET("/events/:id/calendar.ics", handlers.ExportICS(container.EventService, container.ShopService, exportCfg))
		public.GET("/events/:id/google-calendar", handlers.GoogleCalendarLink(container.EventService, container.ShopService, exportCfg))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(verifier, container.UserService, secure, container.Logger))
	{
		protected.GET("/profile", handlers.Profile())
		protected.GET("/me/attending", handlers.ListAttending(container.AttendanceService))
		protected.GET("/shops/:id/events", handlers.ListShopEvents(container.EventService))
	}

	eventRoutes := protected.Group("/events")
	{
		eventRoutes.POST("", handlers.CreateEvent(container.EventService))
		eventRoutes.GET("/admin", handlers.ListEventsByStatus(container.EventService))
		eventRoutes.PATCH("/:id", handlers.UpdateEvent(container.EventService))
		eventRoutes.PUT("/:id/status", handlers.SetEventStatus(container.EventService))
		eventRoutes.PUT("/:id/published", handlers.SetEventPublished(container.EventService))
		eventRoutes.DELETE("/:id", handlers.DeleteEvent(container.EventService))
		eventRoutes.POST("/:id/join", handlers.JoinEvent(container.AttendanceService, container.EventService))
		eventRoutes.DELETE("/:id/join", handlers.LeaveEvent(container.AttendanceService))
	}

	return r
}
