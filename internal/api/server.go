package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkhub/internal/cache"
	"parkhub/internal/config"
	"parkhub/internal/database"
	"parkhub/internal/handlers"
	"parkhub/internal/jobs"
	"parkhub/internal/logger"
	"parkhub/internal/messaging"
	"parkhub/internal/middleware"
	"parkhub/internal/notify"
	"parkhub/internal/repository"
	"parkhub/internal/search"
	"parkhub/internal/service"
)

// Server wires the application together: storage, messaging, cache, search,
// services, routes and the background sweep job.
type Server struct {
	router   *gin.Engine
	config   *config.Config
	db       *database.DB
	nats     *messaging.NATSClient
	redis    *cache.RedisClient
	services *service.Services
	repos    *repository.Repositories
	hub      *notify.Hub
	sweeps   *jobs.SweepJob
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err.Error())
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err.Error())
	}

	// Redis, NATS and Elasticsearch are optional: the API degrades to
	// running without the blacklist, bus events or index search.
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Get().Warn("Redis unavailable, continuing without cache and token blacklist",
			"error", err.Error())
		redisClient = nil
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Get().Warn("NATS unavailable, continuing without event publishing",
			"error", err.Error())
		natsClient = nil
	}

	var searchClient *search.ElasticsearchClient
	if cfg.Search.URL != "" {
		searchClient, err = search.NewElasticsearchClient(cfg.Search)
		if err != nil {
			logger.Get().Warn("Elasticsearch unavailable, falling back to SQL search",
				"error", err.Error())
			searchClient = nil
		}
	}

	repos := repository.NewRepositories(db)

	hub := notify.NewHub()
	dispatcher := notify.NewDispatcher(hub, repos.Notifications)

	deps := service.Deps{
		Notifier: dispatcher,
	}
	if natsClient != nil {
		deps.Publisher = natsClient
	}
	if searchClient != nil {
		deps.Searcher = searchClient
	}
	if redisClient != nil {
		deps.LotCache = redisClient
		deps.Tokens = redisClient
	}

	services := service.NewServices(cfg, repos, deps)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS())

	server := &Server{
		router:   router,
		config:   cfg,
		db:       db,
		nats:     natsClient,
		redis:    redisClient,
		services: services,
		repos:    repos,
		hub:      hub,
		sweeps:   jobs.NewSweepJob(services.Reservations, cfg.SweepInterval, cfg.ReminderHorizon),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.hub)

	var blacklist middleware.Blacklist
	if s.redis != nil {
		blacklist = s.redis
	}
	auth := middleware.JWTAuth(s.config.JWTSecret, blacklist)
	admin := middleware.RequireAdmin()

	api := s.router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/logout", auth, h.Logout)
			authGroup.GET("/me", auth, h.Me)
			authGroup.PATCH("/me/profile", auth, h.UpdateProfile)
		}

		lots := api.Group("/lots")
		{
			lots.GET("", h.ListLots)
			lots.GET("/search", h.SearchLots)
			lots.GET("/:id", h.GetLot)
			lots.GET("/:id/occupancy", h.LotOccupancy)
			lots.GET("/:id/spaces", h.ListSpaces)
			lots.POST("", auth, admin, h.CreateLot)
			lots.PATCH("/:id", auth, admin, h.UpdateLot)
			lots.POST("/:id/resize", auth, admin, h.ResizeLot)
			lots.DELETE("/:id", auth, admin, h.DeleteLot)
		}

		spaces := api.Group("/spaces", auth)
		{
			spaces.POST("/:id/reserve", h.ReserveSpace)
			spaces.POST("/:id/occupy", h.OccupySpace)
			spaces.POST("/:id/vacate", h.VacateSpace)
			spaces.PATCH("/:id/status", admin, h.SetSpaceStatus)
		}

		reservations := api.Group("/reservations", auth)
		{
			reservations.POST("", h.CreateReservation)
			reservations.GET("", h.ListReservations)
			reservations.GET("/:id", h.GetReservation)
			reservations.POST("/:id/cancel", h.CancelReservation)
			reservations.POST("/:id/complete", h.CompleteReservation)
			reservations.GET("/:id/payment", h.GetReservationPayment)
		}

		payments := api.Group("/payments", auth)
		{
			payments.POST("", h.CreatePayment)
			payments.GET("/:id", h.GetPayment)
			payments.POST("/:id/refund", h.RefundPayment)
		}

		points := api.Group("/points", auth)
		{
			points.GET("/balance", h.PointsBalance)
			points.GET("/history", h.PointsHistory)
			points.POST("/topup", admin, h.TopUpPoints)
		}

		notifications := api.Group("/notifications", auth)
		{
			notifications.GET("", h.ListNotifications)
			notifications.GET("/ws", h.NotificationsSocket)
			notifications.POST("/:id/read", h.MarkNotificationRead)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
		}

		reports := api.Group("/reports", auth, admin)
		{
			reports.GET("/daily", h.DailyReport)
			reports.GET("/monthly", h.MonthlyReport)
			reports.GET("/lots/:id", h.LotReport)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (s *Server) healthCheck(c *gin.Context) {
	status, stats := s.db.HealthCheck(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"service": "parkhub-api",
		"db": gin.H{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
	})
}

// GetRouter exposes the router for the HTTP server and for tests.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// StartJobs launches the background sweeps.
func (s *Server) StartJobs(ctx context.Context) {
	s.sweeps.Start(ctx)
}

// Cleanup stops the jobs and closes external connections.
func (s *Server) Cleanup() error {
	s.sweeps.Stop()

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("Failed to close NATS connection", "error", err.Error())
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Get().Error("Failed to close Redis connection", "error", err.Error())
		}
	}
	return s.db.Close()
}
