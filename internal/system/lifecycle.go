package system

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/KevinKickass/PlantDeck/internal/api/rest"
	"github.com/KevinKickass/PlantDeck/internal/api/websocket"
	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/config"
	"github.com/KevinKickass/PlantDeck/internal/history"
	"github.com/KevinKickass/PlantDeck/internal/interfaces"
	"github.com/KevinKickass/PlantDeck/internal/mail"
	"github.com/KevinKickass/PlantDeck/internal/schema"
	"github.com/KevinKickass/PlantDeck/internal/seed"
	"github.com/KevinKickass/PlantDeck/internal/storage"
	"github.com/KevinKickass/PlantDeck/internal/telemetry"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

const connectTimeout = 10 * time.Second

type LifecycleManager struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry

	plants  *storage.PlantStore
	rtus    *storage.RTUStore
	db      *storage.PostgresClient
	tracker *history.Tracker
	feed    *telemetry.Feed
	hub     *websocket.Hub
	redis   *telemetry.RedisPublisher
	mqtt    *telemetry.MQTTPublisher

	restServer *rest.Server
	grpcServer *grpc.Server
	health     *health.Server

	stateMu      sync.RWMutex
	currentState SystemState
	startedAt    time.Time

	shutdownOnce sync.Once
}

// NewLifecycleManager wires every component from cfg. Nothing listens or
// ticks until Start.
func NewLifecycleManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	lm := &LifecycleManager{
		config:       cfg,
		logger:       logger,
		registry:     prometheus.NewRegistry(),
		currentState: StateInitializing,
	}
	lm.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := lm.loadRecords(); err != nil {
		return nil, err
	}

	if err := lm.setupHistory(ctx); err != nil {
		lm.closeExternal()
		return nil, err
	}

	authService, err := auth.NewService(cfg.Auth, logger)
	if err != nil {
		lm.closeExternal()
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	if err := lm.setupTelemetry(ctx, authService); err != nil {
		lm.closeExternal()
		return nil, err
	}

	sender, err := mail.NewSender(cfg.Mail, logger)
	if err != nil {
		lm.closeExternal()
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}

	validator, err := schema.NewValidator()
	if err != nil {
		lm.closeExternal()
		return nil, fmt.Errorf("failed to compile request schemas: %w", err)
	}

	lm.restServer = rest.NewServer(cfg, rest.Deps{
		Plants:    lm.plants,
		RTUs:      lm.rtus,
		History:   lm.tracker,
		Telemetry: lm.feed,
		Mail:      mail.NewService(sender, logger),
		Auth:      authService,
		Hub:       lm.hub,
		Validator: validator,
		Registry:  lm.registry,
		Lifecycle: lm,
	}, logger)

	return lm, nil
}

func (lm *LifecycleManager) loadRecords() error {
	var plants []types.Plant
	var rtus []types.RTU

	if path := lm.config.Seed.FixturesPath; path != "" {
		fx, err := storage.LoadFixtures(path)
		if err != nil {
			return err
		}
		plants, rtus = fx.Plants, fx.RTUs
		lm.logger.Info("Loaded fixtures",
			zap.String("path", path),
			zap.Int("plants", len(plants)),
			zap.Int("rtus", len(rtus)))
	} else {
		gen := seed.New(seedOrClock(lm.config.Seed.RandomSeed), time.Now())
		plants = gen.Plants(lm.config.Seed.Plants)
		rtus = gen.RTUs(lm.config.Seed.RTUs, plants)
		lm.logger.Info("Generated demo records",
			zap.Int("plants", len(plants)),
			zap.Int("rtus", len(rtus)))
	}

	var err error
	if lm.plants, err = storage.NewPlantStore(plants); err != nil {
		return fmt.Errorf("failed to load plants: %w", err)
	}
	if lm.rtus, err = storage.NewRTUStore(rtus); err != nil {
		return fmt.Errorf("failed to load rtus: %w", err)
	}
	return nil
}

func (lm *LifecycleManager) setupHistory(ctx context.Context) error {
	var recorder history.Recorder

	switch lm.config.History.Backend {
	case "postgres":
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		db, err := storage.NewPostgresClient(connectCtx, lm.config.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		lm.db = db
		if err := db.EnsureHistorySchema(connectCtx); err != nil {
			return fmt.Errorf("failed to prepare history table: %w", err)
		}
		recorder = db
	default:
		file, err := history.NewFileRecorder(lm.config.History.Dir, lm.logger)
		if err != nil {
			return err
		}
		recorder = file
	}

	lm.tracker = history.NewTracker(recorder, lm.logger)
	lm.logger.Info("History recorder ready", zap.String("backend", lm.config.History.Backend))
	return nil
}

func (lm *LifecycleManager) setupTelemetry(ctx context.Context, validator websocket.TokenValidator) error {
	tc := lm.config.Telemetry

	weights := make(telemetry.Weights, len(tc.StatusWeights))
	for status, w := range tc.StatusWeights {
		weights[types.TelemetryStatus(status)] = w
	}

	sim, err := telemetry.NewSimulator(seedOrClock(tc.RandomSeed), weights, nil)
	if err != nil {
		return fmt.Errorf("failed to create telemetry simulator: %w", err)
	}

	lm.feed, err = telemetry.NewFeed(telemetry.Config{
		Devices:     tc.Devices,
		MinInterval: tc.MinInterval,
		MaxInterval: tc.MaxInterval,
	}, sim, lm.registry, lm.logger)
	if err != nil {
		return fmt.Errorf("failed to create telemetry feed: %w", err)
	}

	lm.hub = websocket.NewHub(lm.logger, validator, lm.config.Auth.Enabled)
	lm.hub.SetAllowedOrigins(lm.config.Server.CORSOrigins)
	lm.hub.SetSnapshotSource(lm.feed)
	lm.feed.AddPublisher(lm.hub)

	if tc.Redis.Addr != "" {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		lm.redis, err = telemetry.NewRedisPublisher(connectCtx, telemetry.RedisOptions{
			Addr:     tc.Redis.Addr,
			Password: tc.Redis.Password,
			DB:       tc.Redis.DB,
			Prefix:   tc.Redis.ChannelPrefix,
			TTL:      tc.Redis.LatestTTL,
		})
		if err != nil {
			return err
		}
		lm.feed.AddPublisher(lm.redis)
		lm.logger.Info("Redis telemetry publisher connected", zap.String("addr", tc.Redis.Addr))
	}

	if tc.MQTT.Broker != "" {
		lm.mqtt, err = telemetry.NewMQTTPublisher(telemetry.MQTTOptions{
			Broker:      tc.MQTT.Broker,
			ClientID:    tc.MQTT.ClientID,
			Username:    tc.MQTT.Username,
			Password:    tc.MQTT.Password,
			TopicPrefix: tc.MQTT.TopicPrefix,
		})
		if err != nil {
			return err
		}
		lm.feed.AddPublisher(lm.mqtt)
		lm.logger.Info("MQTT telemetry publisher connected", zap.String("broker", tc.MQTT.Broker))
	}

	return nil
}

// Start brings up the hub, the telemetry feed, and both servers.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting PlantDeck")

	go lm.hub.Run()

	if lm.config.Telemetry.Enabled {
		lm.feed.Start()
	}

	if err := lm.startGRPCServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start gRPC: %w", err))
		return err
	}

	if err := lm.restServer.Start(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	if err := lm.setState(StateRunning); err != nil {
		return err
	}

	lm.stateMu.Lock()
	lm.startedAt = time.Now().UTC()
	lm.stateMu.Unlock()

	lm.logger.Info("System started successfully",
		zap.Int("grpc_port", lm.config.Server.GRPCPort),
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Bool("auth_enabled", lm.config.Auth.Enabled),
		zap.Int("telemetry_devices", len(lm.feed.Devices())))

	return nil
}

func (lm *LifecycleManager) startGRPCServer() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", lm.config.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	lm.grpcServer = grpc.NewServer()
	lm.health = health.NewServer()
	healthpb.RegisterHealthServer(lm.grpcServer, lm.health)
	lm.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		lm.logger.Info("gRPC server listening",
			zap.Int("port", lm.config.Server.GRPCPort),
			zap.String("services", "grpc.health.v1.Health"))
		if err := lm.grpcServer.Serve(lis); err != nil {
			lm.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown stops everything Start brought up. Only the first call does
// any work.
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")

		if err := lm.setState(StateStopping); err != nil {
			lm.logger.Warn("Unexpected state on shutdown", zap.Error(err))
		}

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.forceState(StateStopped)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	lm.feed.Stop()
	lm.hub.Stop()

	if lm.health != nil {
		lm.health.Shutdown()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lm.restServer.Shutdown(ctx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	if lm.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lm.logger.Info("Stopping gRPC server")
			lm.grpcServer.GracefulStop()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		lm.logger.Info("Graceful shutdown completed")
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		if lm.grpcServer != nil {
			lm.grpcServer.Stop()
		}
		err = fmt.Errorf("shutdown timeout exceeded")
	}

	select {
	case e := <-errChan:
		if err == nil {
			err = e
		}
	default:
	}

	lm.closeExternal()
	return err
}

// closeExternal releases broker and database connections.
func (lm *LifecycleManager) closeExternal() {
	if lm.mqtt != nil {
		lm.mqtt.Close()
	}
	if lm.redis != nil {
		if err := lm.redis.Close(); err != nil {
			lm.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if lm.db != nil {
		lm.db.Close()
	}
}

func (lm *LifecycleManager) setState(state SystemState) error {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()

	if err := ValidateTransition(lm.currentState, state); err != nil {
		return err
	}
	lm.currentState = state
	return nil
}

func (lm *LifecycleManager) forceState(state SystemState) {
	lm.stateMu.Lock()
	defer lm.stateMu.Unlock()
	lm.currentState = state
}

func (lm *LifecycleManager) setError(err error) {
	lm.logger.Error("System error", zap.Error(err))
	lm.forceState(StateError)
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	state, startedAt := lm.currentState, lm.startedAt
	lm.stateMu.RUnlock()

	return interfaces.SystemStatus{
		State:            state.String(),
		StartedAt:        startedAt,
		Plants:           lm.plants.Len(),
		RTUs:             lm.rtus.Len(),
		TelemetryDevices: len(lm.feed.Devices()),
		TelemetryRunning: lm.feed.Running(),
		WebsocketClients: lm.hub.ClientCount(),
		HistoryBackend:   lm.config.History.Backend,
	}
}

func (lm *LifecycleManager) Config() *config.Config {
	return lm.config
}

// seedOrClock treats 0 as "pick a fresh seed".
func seedOrClock(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return uint64(time.Now().UnixNano())
}
