package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		snap := &domain.Snapshot{
			ID:    sessionID,
			Entry: "start",
			Journal: []domain.Step{
				{Op: domain.StepInput, Value: "1"},
				{Op: domain.StepOutput},
				{Op: domain.StepBack},
			},
			CreatedAt: created,
			UpdatedAt: created.Add(time.Minute),
		}

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "start", loaded.Entry)
		assert.Equal(t, snap.Journal, loaded.Journal)
		assert.True(t, created.Equal(loaded.CreatedAt))
		assert.False(t, loaded.Submitted)
	})

	t.Run("Load is isolated from caller mutation", func(t *testing.T) {
		snap := &domain.Snapshot{ID: sessionID, Entry: "start", Journal: []domain.Step{{Op: domain.StepInput, Value: "a"}}}
		require.NoError(t, store.Save(ctx, sessionID, snap))

		snap.Journal[0].Value = "mutated"
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "a", loaded.Journal[0].Value)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-session-id")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, sessionID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)

		// Deleting twice is not an error.
		assert.NoError(t, store.Delete(ctx, sessionID))
	})
}
