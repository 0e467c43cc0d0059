package registers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RadioSnapshot is a register dump saved to disk
type RadioSnapshot struct {
	Serial    string      `json:"serial,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Registers RegisterMap `json:"registers"`
}

// SaveSnapshot writes a snapshot as indented JSON, creating parent directories
func SaveSnapshot(snap *RadioSnapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot
func LoadSnapshot(path string) (*RadioSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var snap RadioSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
