package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/story-sim/pkg/scenario"
)

// LoadScenario reads a .json, .yaml or .yml scenario file. A narrator_id
// is resolved against the narrators directory beside the scenarios
// directory. The result is normalized and validated; repairs are logged.
func LoadScenario(path string, logger *slog.Logger) (*scenario.Scenario, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenario not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var s scenario.Scenario
	if err := DecodeContent(path, data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario: %w", err)
	}

	if s.Narrator == nil && s.NarratorID != "" {
		dir := filepath.Join(filepath.Dir(filepath.Dir(path)), "narrators")
		n, err := LoadNarrator(dir, s.NarratorID)
		if err != nil {
			return nil, err
		}
		s.Narrator = n
	}

	for _, w := range s.Normalize(logger) {
		logger.Debug("scenario repaired", "path", path, "repair", w)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	logger.Debug("Loaded scenario", "path", path, "name", s.Name,
		"characters", len(s.Characters), "locations", len(s.Locations))
	return &s, nil
}

// DecodeContent unmarshals JSON or YAML, chosen by the file extension.
// YAML is converted to JSON first so the json tags and custom
// unmarshalers apply to both formats.
func DecodeContent(path string, data []byte, v any) error {
	data, err := toJSON(path, data)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// DecodeStrict is DecodeContent that rejects unknown fields.
func DecodeStrict(path string, data []byte, v any) error {
	data, err := toJSON(path, data)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after document")
	}
	return nil
}

func toJSON(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("yaml to json: %w", err)
		}
		return converted, nil
	default:
		return data, nil
	}
}

// LoadNarrator reads <dir>/<id>.json.
func LoadNarrator(dir, id string) (*scenario.Narrator, error) {
	path := filepath.Join(dir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("narrator not found: %s (tried: %s)", id, path)
		}
		return nil, fmt.Errorf("failed to read narrator file %s: %w", path, err)
	}
	var n scenario.Narrator
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse narrator JSON from %s: %w", path, err)
	}
	if n.Name == "" {
		n.Name = id
	}
	return &n, nil
}

// ListScenarios maps scenario names to file paths under dir. Unreadable
// files are skipped with a warning.
func ListScenarios(dir string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	scenarios := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
		default:
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to read scenario file", "path", path, "error", err)
			return nil
		}
		var s scenario.Scenario
		if err := DecodeContent(path, data, &s); err != nil {
			logger.Warn("Failed to unmarshal scenario file", "path", path, "error", err)
			return nil
		}
		name := s.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		scenarios[name] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return scenarios, nil
}
