package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tandberg/decycle/pkg/logging"
	"github.com/tandberg/decycle/pkg/model"
)

// snapshotFile is the on-disk wire format written by the external parser
type snapshotFile struct {
	Components []model.Component `json:"components"`
}

// FileProvider loads a component-model snapshot from a JSON file. This is how
// the CLI consumes real projects: the external source parser writes the
// snapshot, this provider reads it fresh on every run.
type FileProvider struct {
	Path string
}

// NewFileProvider creates a provider reading the snapshot at path
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) Name() string {
	return "File"
}

func (p *FileProvider) Components(ctx context.Context) ([]model.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", p.Path, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", p.Path, err)
	}

	logging.Debug("loaded component snapshot", "path", p.Path, "components", len(snap.Components))
	return snap.Components, nil
}
