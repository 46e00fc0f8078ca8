package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Load reads model.json from stateDir, creating a fresh model (salted from
// the wall clock) if none exists yet.
func Load(stateDir string) (*Model, error) {
	path := filepath.Join(stateDir, "model.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(uint32(time.Now().UnixNano())), nil
		}
		return nil, fmt.Errorf("read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return &m, nil
}

// Save writes the model to stateDir/model.json.
func Save(stateDir string, m *Model) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	return os.WriteFile(filepath.Join(stateDir, "model.json"), data, 0o644)
}
