package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/foreman/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	t.Helper()
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405.000000000")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(runID, "what changed in go 1.25?")
		state.TaskKind = domain.TaskResearch
		state.Facts = append(state.Facts, domain.Fact{Source: "https://go.dev", Snippet: "release notes"})
		state.Record(domain.AgentSupervisor, domain.OutcomeOK, "routed to research")
		state.Record(domain.AgentResearch, domain.OutcomeOK, "found 1 result")
		state.StepCount = 2
		state.Phase = domain.PhaseSupervising

		require.NoError(t, store.Save(ctx, runID, state), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Query, loaded.Query)
		assert.Equal(t, state.TaskKind, loaded.TaskKind)
		assert.Equal(t, state.Facts, loaded.Facts)
		assert.Equal(t, state.Visited(), loaded.Visited())
		assert.Equal(t, 2, loaded.StepCount)
		assert.Equal(t, domain.PhaseSupervising, loaded.Phase)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.Facts[0].Snippet = "mutated"

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, "release notes", again.Facts[0].Snippet)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Failure Survives", func(t *testing.T) {
		id := runID + "-failed"
		state := domain.NewState(id, "q")
		state.Phase = domain.PhaseFailed
		state.Failure = domain.NewFailure(domain.FailureProgressBound, domain.AgentResearch, nil, "limit 4")
		require.NoError(t, store.Save(ctx, id, state))
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, loaded.Failure)
		assert.ErrorIs(t, loaded.Failure, domain.ErrProgressBound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewState(id1, "q1")))
		require.NoError(t, store.Save(ctx, id2, domain.NewState(id2, "q2")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, runID), "Deleting twice is not an error")
	})
}
