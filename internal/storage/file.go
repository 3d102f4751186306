package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/world"
)

// FileStore keeps one JSON file per slot in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ SaveStore = (*FileStore)(nil)

// NewFileStore creates dir if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if dir == "" {
		dir = "./saves"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (f *FileStore) path(slot string) string {
	return filepath.Join(f.dir, slot+".json")
}

// Save writes a temp file in the same directory and renames it over the
// slot.
func (f *FileStore) Save(ctx context.Context, slot string, s *world.SaveState) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("save %s: nil save state", slot)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		f.logger.Error("Failed to marshal save state", "slot", slot, "error", err)
		return fmt.Errorf("failed to marshal save state: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, slot+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp save: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write save: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(slot)); err != nil {
		f.logger.Error("Failed to save state", "slot", slot, "error", err)
		return fmt.Errorf("failed to save state: %w", err)
	}
	f.logger.Debug("Saved state", "slot", slot, "bytes", len(data))
	return nil
}

func (f *FileStore) Load(ctx context.Context, slot string) (*world.SaveState, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(slot))
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Debug("Save slot empty", "slot", slot)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read save: %w", err)
	}
	var s world.SaveState
	if err := json.Unmarshal(data, &s); err != nil {
		f.logger.Error("Failed to unmarshal save state", "slot", slot, "error", err)
		return nil, fmt.Errorf("failed to unmarshal save state: %w", err)
	}
	return &s, nil
}

func (f *FileStore) Delete(ctx context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	if err := os.Remove(f.path(slot)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	return nil
}

func (f *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read save directory: %w", err)
	}
	slots := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		slot := strings.TrimSuffix(name, ".json")
		if checkSlot(slot) == nil {
			slots = append(slots, slot)
		}
	}
	slices.Sort(slots)
	return slots, nil
}
