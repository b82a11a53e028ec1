package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/interfaces"
)

// GET /health
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// GET /api/system/status
func (s *Server) systemStatus(c *gin.Context) {
	if s.deps.Lifecycle != nil {
		respond(c, http.StatusOK, s.deps.Lifecycle.GetCurrentStatus(), nil)
		return
	}

	status := interfaces.SystemStatus{
		State:          "RUNNING",
		Plants:         s.deps.Plants.Len(),
		RTUs:           s.deps.RTUs.Len(),
		HistoryBackend: s.cfg.History.Backend,
	}
	if s.deps.Telemetry != nil {
		status.TelemetryDevices = len(s.deps.Telemetry.Snapshots())
	}
	if s.deps.Hub != nil {
		status.WebsocketClients = s.deps.Hub.ClientCount()
	}
	respond(c, http.StatusOK, status, nil)
}
