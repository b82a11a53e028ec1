// Package telemetry simulates live RTU readings and fans them out.
package telemetry

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

// Measurement is the realistic range one reading is redrawn from.
type Measurement struct {
	Min    float64
	Max    float64
	Places int
}

var DefaultMeasurements = map[string]Measurement{
	"temperature": {Min: 0, Max: 50, Places: 1},
	"humidity":    {Min: 0, Max: 100, Places: 1},
	"power":       {Min: 0, Max: 1000, Places: 2},
	"voltage":     {Min: 220, Max: 230, Places: 1},
	"current":     {Min: 0, Max: 10, Places: 2},
}

// Weights is the relative likelihood of each status.
type Weights map[types.TelemetryStatus]int

var DefaultWeights = Weights{
	types.TelemetryOnline:  70,
	types.TelemetryWarning: 15,
	types.TelemetryError:   5,
	types.TelemetryOffline: 10,
}

type weightedStatus struct {
	status types.TelemetryStatus
	upTo   int
}

// Simulator draws snapshots. It is shared by every device poller, so the
// random source sits behind a mutex.
type Simulator struct {
	rng      *rand.Rand
	statuses []weightedStatus
	total    int
	names    []string
	ranges   map[string]Measurement
	now      func() time.Time
	mu       sync.Mutex
}

func NewSimulator(seed uint64, weights Weights, measurements map[string]Measurement) (*Simulator, error) {
	if len(weights) == 0 {
		weights = DefaultWeights
	}
	if len(measurements) == 0 {
		measurements = DefaultMeasurements
	}

	s := &Simulator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)),
		ranges: make(map[string]Measurement, len(measurements)),
		now:    func() time.Time { return time.Now().UTC() },
	}

	// Fixed iteration order keeps a seeded run reproducible.
	for _, status := range types.TelemetryStatuses {
		w, ok := weights[status]
		if !ok || w == 0 {
			continue
		}
		if w < 0 {
			return nil, fmt.Errorf("negative weight %d for status %q", w, status)
		}
		s.total += w
		s.statuses = append(s.statuses, weightedStatus{status: status, upTo: s.total})
	}
	for status := range weights {
		if !status.Valid() {
			return nil, fmt.Errorf("unknown telemetry status %q", status)
		}
	}
	if s.total == 0 {
		return nil, fmt.Errorf("status weights must not all be zero")
	}

	for name, m := range measurements {
		if m.Max < m.Min {
			return nil, fmt.Errorf("measurement %q: max %.2f below min %.2f", name, m.Max, m.Min)
		}
		s.ranges[name] = m
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)

	return s, nil
}

// Generate draws a complete snapshot for id. Battery and signal are only
// present when the device is reachable.
func (s *Simulator) Generate(id string) types.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := types.Snapshot{
		ID:        id,
		Timestamp: s.now(),
		Status:    s.drawStatus(),
		Values:    make(map[string]float64, len(s.names)),
	}

	if snap.Status.Reachable() {
		battery := math.Floor(s.rng.Float64() * 100)
		signal := -math.Floor(s.rng.Float64()*100 + 30)
		snap.BatteryLevel = &battery
		snap.SignalStrength = &signal
	}

	for _, name := range s.names {
		m := s.ranges[name]
		snap.Values[name] = round(m.Min+s.rng.Float64()*(m.Max-m.Min), m.Places)
	}

	return snap
}

// Interval draws a per-device period in [lo, hi).
func (s *Simulator) Interval(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + time.Duration(s.rng.Int64N(int64(hi-lo)))
}

func (s *Simulator) drawStatus() types.TelemetryStatus {
	n := s.rng.IntN(s.total)
	for _, ws := range s.statuses {
		if n < ws.upTo {
			return ws.status
		}
	}
	return s.statuses[len(s.statuses)-1].status
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
