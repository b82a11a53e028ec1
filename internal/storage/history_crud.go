package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS plant_history (
	id          UUID PRIMARY KEY,
	plant_id    TEXT NOT NULL,
	change_type TEXT NOT NULL,
	changes     JSONB NOT NULL,
	changed_by  TEXT NOT NULL,
	changed_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS plant_history_changed_at_idx ON plant_history (changed_at DESC);
`

// EnsureHistorySchema creates the history table when it is missing.
func (p *PostgresClient) EnsureHistorySchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Record stores one history entry.
func (p *PostgresClient) Record(ctx context.Context, entry types.HistoryEntry) error {
	changesJSON, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO plant_history (id, plant_id, change_type, changes, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.PlantID, string(entry.Type), changesJSON, entry.ChangedBy, entry.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (p *PostgresClient) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, plant_id, change_type, changes, changed_by, changed_at
		FROM plant_history
		ORDER BY changed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.HistoryEntry, error) {
		var (
			entry       types.HistoryEntry
			changeType  string
			changesJSON []byte
		)
		if err := row.Scan(&entry.ID, &entry.PlantID, &changeType, &changesJSON, &entry.ChangedBy, &entry.ChangedAt); err != nil {
			return types.HistoryEntry{}, err
		}
		entry.Type = types.ChangeType(changeType)
		if err := json.Unmarshal(changesJSON, &entry.Changes); err != nil {
			return types.HistoryEntry{}, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
		return entry, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan history: %w", err)
	}

	return entries, nil
}
