package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/adapters/file"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineEntryPoint(t *testing.T) {
	createDir := func(t *testing.T, files []string) string {
		dir := t.TempDir()
		for _, f := range files {
			err := os.WriteFile(filepath.Join(dir, f), []byte("content"), 0644)
			require.NoError(t, err)
		}
		return dir
	}

	t.Run("Default to start if exists", func(t *testing.T) {
		dir := createDir(t, []string{"start.md", "main.md"})
		assert.Equal(t, "start", determineEntryPoint(dir))
	})

	t.Run("Fallback to main", func(t *testing.T) {
		dir := createDir(t, []string{"main.yaml", "index.md"})
		assert.Equal(t, "main", determineEntryPoint(dir))
	})

	t.Run("Fallback to index", func(t *testing.T) {
		dir := createDir(t, []string{"index.json", "other.md"})
		assert.Equal(t, "index", determineEntryPoint(dir))
	})

	t.Run("Fallback to DirectoryName", func(t *testing.T) {
		moduleDir := filepath.Join(t.TempDir(), "checkout")
		require.NoError(t, os.Mkdir(moduleDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(moduleDir, "checkout.yml"), []byte("content"), 0644))

		assert.Equal(t, "checkout", determineEntryPoint(moduleDir))
	})

	t.Run("Default to start if nothing matches", func(t *testing.T) {
		dir := createDir(t, []string{"other.md"})
		assert.Equal(t, "start", determineEntryPoint(dir))
	})
}

func flowDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("main.yaml", `
name: main
kind: options
options:
  - name: Answer
    target: answer
`)
	write("answer.yaml", `
name: answer
kind: context
fields:
  - name: text
`)
	return dir
}

func TestCreateEngine_FileSource(t *testing.T) {
	dir := flowDir(t)
	engine, err := CreateEngine(RunOptions{RepoPath: dir, Source: SourceFile}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "main", engine.Entry())

	_, err = CreateEngine(RunOptions{RepoPath: dir, Source: "ftp"}, logging.NewNop())
	assert.ErrorContains(t, err, `unknown source "ftp"`)
}

func TestResumeSession(t *testing.T) {
	dir := flowDir(t)
	engine, err := CreateEngine(RunOptions{RepoPath: dir, Source: SourceFile}, logging.NewNop())
	require.NoError(t, err)
	store := file.NewStore(filepath.Join(t.TempDir(), "sessions"))
	ctx := context.Background()

	s, resumed, err := resumeSession(ctx, engine, store, "dev")
	require.NoError(t, err)
	assert.False(t, resumed)
	_, err = s.Input(ctx, "Answer")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "dev", s.Snapshot()))
	s.Close()

	again, resumed, err := resumeSession(ctx, engine, store, "dev")
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, "answer", domain.NameOf(again.Current()))

	anon, resumed, err := resumeSession(ctx, engine, nil, "")
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, "cli", anon.ID())
}

func TestOpenStore(t *testing.T) {
	store, err := OpenStore("", t.TempDir(), false)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = OpenStore("", t.TempDir(), true)
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, store)

	_, err = OpenStore("not-a-url", "", true)
	assert.Error(t, err)
}

func TestSealStore(t *testing.T) {
	ctx := context.Background()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	dir := t.TempDir()

	plain := file.NewStore(dir)
	same, err := SealStore(plain, nil)
	require.NoError(t, err)
	assert.Same(t, plain, same)

	sealed, err := SealStore(plain, []string{key})
	require.NoError(t, err)
	snap := &domain.Snapshot{ID: "s", Entry: "start", Journal: []domain.Step{{Op: domain.StepInput, Value: "secret"}}}
	require.NoError(t, sealed.Save(ctx, "s", snap))

	raw, err := plain.Load(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, raw.Journal)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := sealed.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, snap.Journal, loaded.Journal)

	_, err = SealStore(plain, []string{"short"})
	assert.Error(t, err)
}

func TestExecute_RejectsWatchWithJSON(t *testing.T) {
	err := Execute(RunOptions{Watch: true, JSON: true})
	assert.ErrorContains(t, err, "--watch")
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(io.EOF))
	assert.NoError(t, handleExecutionError(context.Canceled))

	boom := errors.New("boom")
	assert.ErrorIs(t, handleExecutionError(boom), boom)
}
