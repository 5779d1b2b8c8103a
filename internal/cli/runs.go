package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/presentation/graph"
)

// ListRuns prints the persisted run IDs with their phase.
func ListRuns(ctx context.Context, eng *foreman.Engine, w io.Writer) error {
	ids, err := eng.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing runs: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	fmt.Fprintln(w, "Runs:")
	for _, id := range ids {
		state, err := eng.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "- %s (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Fprintf(w, "- %s  %-11s step %d\n", id, state.Phase, state.StepCount)
	}
	return nil
}

// InspectRun prints the state of a run as indented JSON.
func InspectRun(ctx context.Context, eng *foreman.Engine, runID string, w io.Writer) error {
	state, err := eng.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("error loading run '%s': %w", runID, err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling state: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveRuns deletes the given runs, reporting every failure.
func RemoveRuns(ctx context.Context, eng *foreman.Engine, runIDs []string, w io.Writer) error {
	var errs []error
	for _, id := range runIDs {
		if err := eng.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed run '%s'\n", id)
	}
	return errors.Join(errs...)
}

// PrintGraph writes the workflow diagram, overlaid with a run's path when
// runID is set.
func PrintGraph(ctx context.Context, eng *foreman.Engine, runID string, w io.Writer) error {
	if runID == "" {
		fmt.Fprint(w, graph.GenerateMermaid(nil))
		return nil
	}
	state, err := eng.Load(ctx, runID)
	if err != nil {
		return fmt.Errorf("error loading run '%s': %w", runID, err)
	}
	fmt.Fprint(w, graph.GenerateMermaid(graph.OverlayFromState(state)))
	return nil
}
