package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/idilsaglam/violet/internal/model"
)

// JSON snapshot of the three collections as last fetched. Single file,
// human-readable, written by `violet export`.

const defaultFileName = "violet-export.json"

// Snapshot is the exported document.
type Snapshot struct {
	ExportedAt time.Time      `json:"exported_at"`
	Source     string         `json:"source"`
	Agents     []model.Agent  `json:"dolls"`
	Clients    []model.Client `json:"clientes"`
	Letters    []model.Letter `json:"cartas"`
}

// Path resolves name against the working directory, falling back to the
// default export file name.
func Path(name string) (string, error) {
	if name == "" {
		name = defaultFileName
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(wd, name), nil
}

// Load reads a snapshot. A missing file yields an empty snapshot.
func Load(p string) (Snapshot, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return snap, nil
}

// Save writes snap to p, replacing any previous export.
func Save(p string, snap Snapshot) error {
	if snap.Agents == nil {
		snap.Agents = []model.Agent{}
	}
	if snap.Clients == nil {
		snap.Clients = []model.Client{}
	}
	if snap.Letters == nil {
		snap.Letters = []model.Letter{}
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
