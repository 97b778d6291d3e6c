package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepwise/pkg/adapters/file"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_Atomicity(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	snapshot := &domain.Snapshot{ID: "s1", Entry: "start", Journal: []domain.Step{{Op: domain.StepInput, Value: "1"}}}
	require.NoError(t, store.Save(ctx, "s1", snapshot))

	// A leftover temp file from a crashed write is not a session.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-s2-123.json"), []byte("{"), 0644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snapshot.Journal, loaded.Journal)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "../escape", &domain.Snapshot{}))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
