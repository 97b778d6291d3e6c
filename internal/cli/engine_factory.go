package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/adapters/file"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/ports"
)

var entryExtensions = []string{".md", ".yaml", ".yml", ".json"}

// CreateEngine initializes an engine with the standard CLI conventions.
func CreateEngine(opts RunOptions, logger *slog.Logger, extra ...stepwise.Option) (*stepwise.Engine, error) {
	engineOpts := []stepwise.Option{stepwise.WithLogger(logger)}
	if opts.Debug {
		engineOpts = append(engineOpts, stepwise.WithLifecycleHooks(observability.LogHooks(logger)))
	}

	entry := opts.Entry
	if entry == "" {
		entry = determineEntryPoint(opts.RepoPath)
	}
	engineOpts = append(engineOpts, stepwise.WithEntry(entry))

	switch opts.Source {
	case "", SourceLoam:
	case SourceFile:
		engineOpts = append(engineOpts, stepwise.WithSources(file.NewSource(opts.RepoPath)))
	default:
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", opts.Source, SourceLoam, SourceFile)
	}
	engineOpts = append(engineOpts, extra...)

	engine, err := stepwise.New(opts.RepoPath, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// determineEntryPoint picks the entry description of a directory:
// start, then main, then index, then a file named after the directory.
func determineEntryPoint(repoPath string) string {
	candidates := []string{"start", "main", "index"}
	if abs, err := filepath.Abs(repoPath); err == nil {
		candidates = append(candidates, filepath.Base(abs))
	}
	for _, name := range candidates {
		if hasDescription(repoPath, name) {
			return name
		}
	}
	return stepwise.DefaultEntry
}

func hasDescription(repoPath, name string) bool {
	for _, ext := range entryExtensions {
		if _, err := os.Stat(filepath.Join(repoPath, name+ext)); err == nil {
			return true
		}
	}
	return false
}

// openStore returns the session store selected by opts, or nil when sessions are not persisted.
func openStore(opts RunOptions) (ports.SessionStore, error) {
	store, err := OpenStore(opts.RedisURL, opts.SessionDir, opts.SessionID != "")
	if err != nil {
		return nil, err
	}
	return SealStore(store, opts.SessionKeys)
}
