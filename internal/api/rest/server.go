package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/api/websocket"
	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/config"
	"github.com/KevinKickass/PlantDeck/internal/history"
	"github.com/KevinKickass/PlantDeck/internal/interfaces"
	"github.com/KevinKickass/PlantDeck/internal/mail"
	"github.com/KevinKickass/PlantDeck/internal/schema"
	"github.com/KevinKickass/PlantDeck/internal/storage"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

// SnapshotReader is the read side of the telemetry feed.
type SnapshotReader interface {
	Snapshot(id string) (types.Snapshot, bool)
	Snapshots() map[string]types.Snapshot
}

// Deps are the components the handlers work on. Lifecycle and Registry
// are optional.
type Deps struct {
	Plants    *storage.PlantStore
	RTUs      *storage.RTUStore
	History   *history.Tracker
	Telemetry SnapshotReader
	Mail      *mail.Service
	Auth      *auth.Service
	Hub       *websocket.Hub
	Validator *schema.Validator
	Registry  *prometheus.Registry
	Lifecycle interfaces.LifecycleManager
}

type Server struct {
	router *gin.Engine
	server *http.Server
	cfg    *config.Config
	deps   Deps
	logger *zap.Logger
}

func NewServer(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware(s.cfg.Server.CORSOrigins))

	if s.cfg.Metrics.Enabled && s.deps.Registry != nil {
		s.router.Use(NewMetrics(s.deps.Registry).Middleware())
		s.router.GET(s.cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})))
	}

	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	api.POST("/auth/login", s.login)

	// Websocket clients authenticate with their first message.
	if s.deps.Hub != nil {
		api.GET("/ws/telemetry", s.wsTelemetry)
	}

	protected := api.Group("")
	protected.Use(s.deps.Auth.RequireSession())
	{
		protected.GET("/auth/me", s.currentUser)
		protected.POST("/auth/logout", s.logout)

		plants := protected.Group("/plants")
		{
			plants.GET("", s.listPlants)
			plants.POST("", s.createPlant)
			plants.GET("/search", s.searchPlants)
			plants.GET("/stats", s.plantStats)
			plants.GET("/by-type/:type", s.plantsByType)
			plants.GET("/history", s.listHistory)
			plants.POST("/history", s.storeHistory)
			plants.GET("/:id", s.getPlant)
			plants.PATCH("/:id", s.updatePlant)
			plants.DELETE("/:id", s.deletePlant)
			plants.GET("/:id/rtus", s.plantRTUs)
		}

		rtus := protected.Group("/rtus")
		{
			rtus.GET("", s.listRTUs)
			rtus.POST("", s.createRTU)
			rtus.GET("/stats", s.rtuStats)
			rtus.GET("/data", s.telemetryData)
			rtus.GET("/data/:id", s.telemetryDevice)
			rtus.GET("/:id", s.getRTU)
			rtus.PATCH("/:id", s.updateRTU)
			rtus.DELETE("/:id", s.deleteRTU)
		}

		mails := protected.Group("/mail")
		{
			mails.GET("", s.listMail)
			mails.POST("", s.sendMail)
			mails.GET("/contacts", s.listContacts)
			mails.POST("/contacts", s.addContact)
		}

		protected.GET("/system/status", s.systemStatus)
	}
}

func (s *Server) wsTelemetry(c *gin.Context) {
	websocket.ServeWs(s.deps.Hub, c.Writer, c.Request)
}
