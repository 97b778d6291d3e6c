package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/stepwise/internal/presentation/tui"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/runner"
)

// reloadDelay lets the file system settle before the flow is rebuilt.
const reloadDelay = 100 * time.Millisecond

// RunWatch executes a flow in development mode, rebuilding it whenever a
// description changes. Progress survives reloads through journal replay; a
// journal that no longer fits the changed flow starts the session over.
func RunWatch(opts RunOptions) error {
	logger := CreateLogger(opts.Debug, opts.NoColor)
	tui.PrintBanner(os.Stdout)

	// Scope the default session by path hash to prevent collisions between projects.
	if opts.SessionID == "" {
		hash := md5.Sum([]byte(opts.RepoPath))
		opts.SessionID = fmt.Sprintf("watch-%x", hash[:4])
	}

	store, err := openStore(opts)
	if err != nil {
		return err
	}
	if opts.Fresh {
		_ = store.Delete(context.Background(), opts.SessionID)
	}

	logger.Info("Starting watcher", "path", opts.RepoPath, "session_id", opts.SessionID)
	printSystemMessage("Watcher at '%s' session.", opts.SessionID)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	// One handler for every iteration so only one stdin pump exists.
	handler := newTextHandler(logger)

	for runWatchIteration(sigCtx, opts, store, handler, logger) {
		logger.Info("Watcher restarting")
	}
	return nil
}

func runWatchIteration(parent *SignalContext, opts RunOptions, store ports.SessionStore, handler runner.IOHandler, logger *slog.Logger) bool {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	engine, err := CreateEngine(opts, logger)
	if err != nil {
		logger.Error("Engine initialization failed", "err", err)
		select {
		case <-parent.Done():
			return false
		case <-time.After(2 * time.Second):
			return true
		}
	}
	watchCh, err := engine.Watch(ctx)
	if err != nil {
		logger.Warn("Source cannot be watched, changes will not reload", "err", err)
	}

	s, resumed, err := resumeSession(ctx, engine, store, opts.SessionID)
	if err != nil {
		logger.Warn("Session no longer fits the flow, starting over", "err", err)
		printSystemMessage("Flow changed, starting '%s' over.", opts.SessionID)
		if delErr := store.Delete(ctx, opts.SessionID); delErr != nil {
			logger.Error("Failed to reset session", "err", delErr)
		}
		s, resumed, err = resumeSession(ctx, engine, store, opts.SessionID)
	}
	if err != nil {
		logger.Error("Session start failed", "err", err)
		return waitForChange(parent, watchCh)
	}
	defer s.Close()

	if resumed {
		printSystemMessage("Resuming at '%s' node...", domain.NameOf(s.Current()))
	}

	r := runner.NewRunner(createRunnerOptions(logger, opts, store, handler)...)

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()
	done := make(chan error, 1)
	go func() {
		done <- r.Run(runCtx, s)
	}()

	select {
	case <-parent.Done():
		runCancel()
		<-done
		logCompletion(domain.NameOf(s.Current()), context.Canceled, false, parent.Signal())
		return false
	case event, ok := <-watchCh:
		runCancel()
		<-done
		if !ok {
			return false
		}
		logger.Info("Change detected, triggering reload", "event", event)
		printSystemMessage("\nChange detected in '%s'.", event)
		time.Sleep(reloadDelay)
		return true
	case err := <-done:
		switch {
		case err == nil:
			logCompletion(domain.NameOf(s.Current()), nil, false, nil)
			printSystemMessage("Waiting for changes...")
			if err := store.Delete(ctx, opts.SessionID); err != nil {
				logger.Error("Failed to reset finished session", "err", err)
			}
		case errors.Is(err, context.Canceled):
			return parent.Err() == nil
		case isInterrupted(err):
			return false
		default:
			logger.Error("Runtime error", "err", err)
			printSystemMessage("Error: %v", err)
		}
		return waitForChange(parent, watchCh)
	}
}

// waitForChange blocks until a description changes or the watcher is stopped.
func waitForChange(parent *SignalContext, watchCh <-chan string) bool {
	if watchCh == nil {
		<-parent.Done()
		return false
	}
	select {
	case <-parent.Done():
		return false
	case _, ok := <-watchCh:
		if ok {
			time.Sleep(reloadDelay)
		}
		return ok
	}
}
