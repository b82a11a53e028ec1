package system

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/KevinKickass/PlantDeck/internal/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	return lis.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Server.HTTPPort = freePort(t)
	cfg.Server.GRPCPort = freePort(t)
	cfg.History.Dir = t.TempDir()
	cfg.Seed.Plants = 5
	cfg.Seed.RTUs = 10
	cfg.Seed.RandomSeed = 7
	cfg.Telemetry.MinInterval = 5 * time.Millisecond
	cfg.Telemetry.MaxInterval = 10 * time.Millisecond
	cfg.Telemetry.RandomSeed = 7
	return cfg
}

func TestLifecycleStartAndShutdown(t *testing.T) {
	cfg := testConfig(t)

	lm, err := NewLifecycleManager(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	status := lm.GetCurrentStatus()
	assert.Equal(t, "INITIALIZING", status.State)
	assert.Equal(t, 5, status.Plants)
	assert.Equal(t, 10, status.RTUs)
	assert.Equal(t, 5, status.TelemetryDevices)
	assert.False(t, status.TelemetryRunning)

	require.NoError(t, lm.Start())
	assert.Equal(t, StateRunning, lm.State())
	assert.True(t, lm.GetCurrentStatus().TelemetryRunning)

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.HTTPPort)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	conn, err := grpc.NewClient(fmt.Sprintf("127.0.0.1:%d", cfg.Server.GRPCPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	require.NoError(t, lm.Shutdown(shutdownCtx))
	assert.Equal(t, StateStopped, lm.State())
	assert.False(t, lm.GetCurrentStatus().TelemetryRunning)

	assert.NoError(t, lm.Shutdown(shutdownCtx))
}

func TestLifecycleLoadsFixtures(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	fixtures := `
plants:
  - id: 3
    status: operating
    infra:
      name: Andong Hydro
      type: hydro
      capacity: 800
rtus: []
`
	require.NoError(t, os.WriteFile(path, []byte(fixtures), 0o644))
	cfg.Seed.FixturesPath = path

	lm, err := NewLifecycleManager(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = lm.Shutdown(context.Background()) })

	status := lm.GetCurrentStatus()
	assert.Equal(t, 1, status.Plants)
	assert.Equal(t, 0, status.RTUs)

	plant, err := lm.plants.Get(3)
	require.NoError(t, err)
	assert.Equal(t, "Andong Hydro", plant.Infra.Name)
}

func TestLifecycleRejectsMissingFixtures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed.FixturesPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewLifecycleManager(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
