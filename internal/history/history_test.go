package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

func plant(id int, name string) types.Plant {
	return types.Plant{ID: id, Infra: types.Infra{Name: name, Type: types.PlantTypeSolar}}
}

func TestFileRecorderRecentNewestFirst(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewFileRecorder(dir, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := range 3 {
		p := plant(i+1, "p")
		entry := types.NewHistoryEntry(types.ChangeCreate, "1", nil, &p, "")
		require.NoError(t, rec.Record(ctx, entry))
		path := filepath.Join(dir, entry.ID.String()+".json")
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, mt, mt))
		ids = append(ids, entry.ID.String())
	}

	entries, err := rec.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[2], entries[0].ID.String())
	assert.Equal(t, ids[1], entries[1].ID.String())
	assert.Equal(t, "system", entries[0].ChangedBy)
	require.NotNil(t, entries[0].Changes.After)
	assert.Equal(t, 3, entries[0].Changes.After.ID)
}

func TestFileRecorderSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewFileRecorder(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	p := plant(1, "ok")
	require.NoError(t, rec.Record(context.Background(), types.NewHistoryEntry(types.ChangeDelete, "1", &p, nil, "kim")))

	entries, err := rec.Recent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.ChangeDelete, entries[0].Type)
	assert.Nil(t, entries[0].Changes.After)
}

type memoryRecorder struct {
	entries []types.HistoryEntry
	err     error
}

func (m *memoryRecorder) Record(_ context.Context, e types.HistoryEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRecorder) Recent(_ context.Context, limit int) ([]types.HistoryEntry, error) {
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func TestTrackerSnapshots(t *testing.T) {
	mem := &memoryRecorder{}
	tr := NewTracker(mem, zap.NewNop())
	ctx := context.Background()

	before := plant(5, "old")
	after := plant(5, "new")
	tr.Created(ctx, before, "lee")
	tr.Updated(ctx, before, after, "")
	tr.Deleted(ctx, after, "park")

	require.Len(t, mem.entries, 3)
	assert.Equal(t, types.ChangeCreate, mem.entries[0].Type)
	assert.Nil(t, mem.entries[0].Changes.Before)
	assert.Equal(t, "lee", mem.entries[0].ChangedBy)

	upd := mem.entries[1]
	assert.Equal(t, "5", upd.PlantID)
	assert.Equal(t, "old", upd.Changes.Before.Infra.Name)
	assert.Equal(t, "new", upd.Changes.After.Infra.Name)
	assert.Equal(t, "system", upd.ChangedBy)

	assert.Nil(t, mem.entries[2].Changes.After)
}

func TestTrackerSwallowsFailures(t *testing.T) {
	tr := NewTracker(&memoryRecorder{err: errors.New("disk full")}, zap.NewNop())
	assert.NotPanics(t, func() {
		tr.Created(context.Background(), plant(1, "x"), "")
	})
}

func TestTrackerStoreValidates(t *testing.T) {
	mem := &memoryRecorder{}
	tr := NewTracker(mem, zap.NewNop())

	_, err := tr.Store(context.Background(), types.HistoryEntry{Type: "rename", PlantID: "1"})
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = tr.Store(context.Background(), types.HistoryEntry{Type: types.ChangeUpdate})
	assert.ErrorIs(t, err, types.ErrValidation)

	stored, err := tr.Store(context.Background(), types.HistoryEntry{Type: types.ChangeUpdate, PlantID: "9", ChangedBy: "choi"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID.String())
	assert.False(t, stored.ChangedAt.IsZero())
	assert.Len(t, mem.entries, 1)
}
