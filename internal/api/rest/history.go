package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/schema"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

// GET /api/plants/history
func (s *Server) listHistory(c *gin.Context) {
	limit, err := intQuery(c, "limit", s.cfg.History.RecentLimit, 1)
	if err != nil {
		s.fail(c, err)
		return
	}
	if limit > s.cfg.Query.MaxPageSize {
		s.fail(c, types.Invalid("limit", "must not exceed %d, got %d", s.cfg.Query.MaxPageSize, limit))
		return
	}

	entries, err := s.deps.History.Recent(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, entries, gin.H{"total": len(entries), "limit": limit})
}

// POST /api/plants/history
func (s *Server) storeHistory(c *gin.Context) {
	var entry types.HistoryEntry
	if err := s.bindBody(c, schema.HistoryEntry, &entry); err != nil {
		s.fail(c, err)
		return
	}
	if entry.ChangedBy == "" {
		entry.ChangedBy = auth.CurrentUser(c)
	}

	stored, err := s.deps.History.Store(c.Request.Context(), entry)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, stored, nil)
}
