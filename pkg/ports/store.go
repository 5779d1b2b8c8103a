package ports

import (
	"context"

	"github.com/aretw0/foreman/pkg/domain"
)

// RunStore defines the interface for persisting run state.
// It enables durable execution: a run checkpointed after every turn can be
// inspected or resumed later.
type RunStore interface {
	// Save persists the state for a given run ID.
	Save(ctx context.Context, runID string, state *domain.State) error

	// Load retrieves the state for a given run ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.State, error)

	// Delete removes the state for a given run ID. Deleting a missing run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}
