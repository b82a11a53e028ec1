package types

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

func (t ChangeType) Valid() bool {
	switch t {
	case ChangeCreate, ChangeUpdate, ChangeDelete:
		return true
	default:
		return false
	}
}

type Changes struct {
	Before *Plant `json:"before"`
	After  *Plant `json:"after"`
}

// HistoryEntry is one audited mutation of a plant record.
type HistoryEntry struct {
	ID        uuid.UUID  `json:"id"`
	PlantID   string     `json:"plantId"`
	Type      ChangeType `json:"type"`
	Changes   Changes    `json:"changes"`
	ChangedBy string     `json:"changedBy"`
	ChangedAt time.Time  `json:"changedAt"`
}

// NewHistoryEntry snapshots before/after copies so later mutations of the
// store cannot leak into the audit record.
func NewHistoryEntry(kind ChangeType, plantID string, before, after *Plant, actor string) HistoryEntry {
	if actor == "" {
		actor = "system"
	}
	entry := HistoryEntry{
		ID:        uuid.New(),
		PlantID:   plantID,
		Type:      kind,
		ChangedBy: actor,
		ChangedAt: time.Now().UTC(),
	}
	if before != nil {
		b := before.Clone()
		entry.Changes.Before = &b
	}
	if after != nil {
		a := after.Clone()
		entry.Changes.After = &a
	}
	return entry
}
