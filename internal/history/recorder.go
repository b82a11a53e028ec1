// Package history keeps the audit trail of plant mutations.
package history

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

const DefaultRecentLimit = 50

// Recorder persists history entries. Implementations: FileRecorder and
// storage.PostgresClient.
type Recorder interface {
	Record(ctx context.Context, entry types.HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error)
}

// Tracker turns store mutations into history entries. Recording failures
// are logged and swallowed; the mutation itself has already succeeded.
type Tracker struct {
	recorder Recorder
	logger   *zap.Logger
}

func NewTracker(recorder Recorder, logger *zap.Logger) *Tracker {
	return &Tracker{recorder: recorder, logger: logger}
}

func (t *Tracker) Created(ctx context.Context, after types.Plant, actor string) {
	t.track(ctx, types.ChangeCreate, after.ID, nil, &after, actor)
}

func (t *Tracker) Updated(ctx context.Context, before, after types.Plant, actor string) {
	t.track(ctx, types.ChangeUpdate, after.ID, &before, &after, actor)
}

func (t *Tracker) Deleted(ctx context.Context, before types.Plant, actor string) {
	t.track(ctx, types.ChangeDelete, before.ID, &before, nil, actor)
}

func (t *Tracker) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return t.recorder.Recent(ctx, limit)
}

// Store records a client-supplied entry as is, after filling id and time.
func (t *Tracker) Store(ctx context.Context, entry types.HistoryEntry) (types.HistoryEntry, error) {
	if !entry.Type.Valid() {
		return types.HistoryEntry{}, types.Invalid("type", "must be create, update or delete")
	}
	if entry.PlantID == "" {
		return types.HistoryEntry{}, types.Invalid("plantId", "is required")
	}

	fresh := types.NewHistoryEntry(entry.Type, entry.PlantID, entry.Changes.Before, entry.Changes.After, entry.ChangedBy)
	if err := t.recorder.Record(ctx, fresh); err != nil {
		return types.HistoryEntry{}, err
	}
	return fresh, nil
}

func (t *Tracker) track(ctx context.Context, kind types.ChangeType, plantID int, before, after *types.Plant, actor string) {
	entry := types.NewHistoryEntry(kind, strconv.Itoa(plantID), before, after, actor)
	if err := t.recorder.Record(ctx, entry); err != nil {
		t.logger.Error("Failed to record plant history",
			zap.String("type", string(kind)),
			zap.Int("plant_id", plantID),
			zap.Error(err))
		return
	}
	t.logger.Debug("Plant history recorded",
		zap.String("type", string(kind)),
		zap.Int("plant_id", plantID),
		zap.String("entry_id", entry.ID.String()))
}
