package interfaces

import (
	"context"
	"time"

	"github.com/KevinKickass/PlantDeck/internal/config"
)

// SystemStatus is the snapshot served by /api/system/status.
type SystemStatus struct {
	State            string    `json:"state"`
	StartedAt        time.Time `json:"started_at"`
	Plants           int       `json:"plants"`
	RTUs             int       `json:"rtus"`
	TelemetryDevices int       `json:"telemetry_devices"`
	TelemetryRunning bool      `json:"telemetry_running"`
	WebsocketClients int       `json:"websocket_clients"`
	HistoryBackend   string    `json:"history_backend"`
}

type LifecycleManager interface {
	Config() *config.Config
	GetCurrentStatus() SystemStatus
	Shutdown(ctx context.Context) error
}
