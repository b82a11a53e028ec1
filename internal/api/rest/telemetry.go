package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

// GET /api/rtus/data
func (s *Server) telemetryData(c *gin.Context) {
	if id := c.Query("id"); id != "" {
		s.writeSnapshot(c, id)
		return
	}

	snaps := s.deps.Telemetry.Snapshots()
	respond(c, http.StatusOK, snaps, gin.H{"total": len(snaps)})
}

// GET /api/rtus/data/:id
func (s *Server) telemetryDevice(c *gin.Context) {
	s.writeSnapshot(c, c.Param("id"))
}

func (s *Server) writeSnapshot(c *gin.Context, id string) {
	snap, ok := s.deps.Telemetry.Snapshot(id)
	if !ok {
		s.fail(c, types.NotFound("telemetry device", id))
		return
	}
	respond(c, http.StatusOK, snap, nil)
}
