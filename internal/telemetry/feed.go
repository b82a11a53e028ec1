package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

var DefaultDevices = []string{"0001", "0002", "0003", "0004", "0005"}

const (
	DefaultMinInterval = 3 * time.Second
	DefaultMaxInterval = 8 * time.Second
	publishTimeout     = 2 * time.Second
)

type Config struct {
	Devices     []string
	MinInterval time.Duration
	MaxInterval time.Duration
}

// Publisher receives every regenerated snapshot. Errors are logged by the
// feed and never reach readers.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap types.Snapshot) error
}

// Feed keeps one cached snapshot per device and regenerates each on its
// own jittered period. Readers only ever see complete snapshots; the
// device set is fixed at construction.
type Feed struct {
	sim        *Simulator
	snapshots  map[string]types.Snapshot
	pollers    map[string]*Poller
	devices    []string
	publishers []Publisher
	regens     *prometheus.CounterVec
	logger     *zap.Logger
	mu         sync.RWMutex
	pubMu      sync.RWMutex
	runMu      sync.Mutex
	running    bool
}

func NewFeed(cfg Config, sim *Simulator, reg prometheus.Registerer, logger *zap.Logger) (*Feed, error) {
	if len(cfg.Devices) == 0 {
		cfg.Devices = DefaultDevices
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = max(DefaultMaxInterval, cfg.MinInterval)
	}
	if cfg.MaxInterval < cfg.MinInterval {
		return nil, fmt.Errorf("max interval %s below min interval %s", cfg.MaxInterval, cfg.MinInterval)
	}

	f := &Feed{
		sim:       sim,
		snapshots: make(map[string]types.Snapshot, len(cfg.Devices)),
		pollers:   make(map[string]*Poller, len(cfg.Devices)),
		logger:    logger,
		regens: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "plantdeck",
				Subsystem: "telemetry",
				Name:      "regenerations_total",
				Help:      "Number of simulated snapshot regenerations per device",
			},
			[]string{"device"},
		),
	}

	for _, id := range cfg.Devices {
		if _, dup := f.snapshots[id]; dup {
			return nil, fmt.Errorf("duplicate telemetry device %q", id)
		}
		f.devices = append(f.devices, id)
		f.snapshots[id] = sim.Generate(id)

		deviceID := id
		interval := sim.Interval(cfg.MinInterval, cfg.MaxInterval)
		f.pollers[id] = NewPoller(deviceID, interval, func() { f.regenerate(deviceID) }, logger)
	}

	return f, nil
}

// AddPublisher registers a fan-out target. Safe to call while running.
func (f *Feed) AddPublisher(p Publisher) {
	f.pubMu.Lock()
	defer f.pubMu.Unlock()
	f.publishers = append(f.publishers, p)
}

func (f *Feed) Start() {
	f.runMu.Lock()
	defer f.runMu.Unlock()

	if f.running {
		return
	}
	for _, id := range f.devices {
		f.pollers[id].Start()
	}
	f.running = true

	f.logger.Info("Telemetry feed started", zap.Strings("devices", f.devices))
}

// Stop halts every device poller and returns once none is ticking. It is
// safe to call more than once.
func (f *Feed) Stop() {
	f.runMu.Lock()
	defer f.runMu.Unlock()

	if !f.running {
		return
	}
	for _, id := range f.devices {
		f.pollers[id].Stop()
	}
	f.running = false

	f.logger.Info("Telemetry feed stopped")
}

func (f *Feed) Running() bool {
	f.runMu.Lock()
	defer f.runMu.Unlock()
	return f.running
}

// Snapshot returns the cached snapshot for id; ok is false for unknown ids.
func (f *Feed) Snapshot(id string) (types.Snapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snap, ok := f.snapshots[id]
	if !ok {
		return types.Snapshot{}, false
	}
	return snap.Clone(), true
}

// Snapshots returns every device's current snapshot keyed by id.
func (f *Feed) Snapshots() map[string]types.Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]types.Snapshot, len(f.snapshots))
	for id, snap := range f.snapshots {
		out[id] = snap.Clone()
	}
	return out
}

func (f *Feed) Devices() []string {
	return append([]string(nil), f.devices...)
}

func (f *Feed) regenerate(id string) {
	snap := f.sim.Generate(id)

	f.mu.Lock()
	f.snapshots[id] = snap
	f.mu.Unlock()

	f.regens.WithLabelValues(id).Inc()
	f.publish(snap)
}

func (f *Feed) publish(snap types.Snapshot) {
	f.pubMu.RLock()
	publishers := append([]Publisher(nil), f.publishers...)
	f.pubMu.RUnlock()

	for _, p := range publishers {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.Publish(ctx, snap.Clone())
		cancel()
		if err != nil {
			f.logger.Warn("Telemetry publish failed",
				zap.String("publisher", p.Name()),
				zap.String("device", snap.ID),
				zap.Error(err))
		}
	}
}
