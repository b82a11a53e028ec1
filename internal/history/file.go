package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

// FileRecorder stores one pretty-printed JSON document per entry.
type FileRecorder struct {
	dir    string
	logger *zap.Logger
}

func NewFileRecorder(dir string, logger *zap.Logger) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &FileRecorder{dir: dir, logger: logger}, nil
}

func (r *FileRecorder) Record(_ context.Context, entry types.HistoryEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close history entry: %w", err)
	}

	final := filepath.Join(r.dir, entry.ID.String()+".json")
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("failed to store history entry: %w", err)
	}
	return nil
}

type historyFile struct {
	name    string
	modTime time.Time
}

// Recent returns the newest entries by file modification time. Files that
// cannot be decoded are skipped.
func (r *FileRecorder) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	dirEntries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list history dir: %w", err)
	}

	files := make([]historyFile, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, historyFile{name: de.Name(), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].name < files[j].name
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	entries := make([]types.HistoryEntry, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(r.dir, f.name))
		if err != nil {
			r.logger.Warn("Failed to read history entry", zap.String("file", f.name), zap.Error(err))
			continue
		}
		var entry types.HistoryEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			r.logger.Warn("Skipping malformed history entry", zap.String("file", f.name), zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
