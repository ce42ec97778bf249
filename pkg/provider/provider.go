package provider

import (
	"context"

	"github.com/tandberg/decycle/pkg/model"
)

// Provider supplies the managed-component model for one analysis run.
// Implementations encapsulate how the model is obtained (parsing a project,
// reading a snapshot file); the analysis core only consumes the result.
type Provider interface {
	// Name returns the unique name of the provider (e.g., "Snapshot", "File").
	Name() string

	// Components returns the current component model.
	// It should respect the context for cancellation.
	Components(ctx context.Context) ([]model.Component, error)
}

// Snapshot is an in-memory provider, used by tests and embedding callers
// that already hold a component model.
type Snapshot struct {
	Items []model.Component
}

func (s *Snapshot) Name() string {
	return "Snapshot"
}

func (s *Snapshot) Components(ctx context.Context) ([]model.Component, error) {
	return s.Items, nil
}
