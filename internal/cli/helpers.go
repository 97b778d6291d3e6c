package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/internal/presentation/tui"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/aretw0/stepwise/pkg/session"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger configures the application logger.
// In debug mode it writes colored lines to stderr to keep stdout for the flow.
func CreateLogger(debug, noColor bool) *slog.Logger {
	if debug {
		return logging.NewTerminal(os.Stderr, slog.LevelDebug, noColor)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// createRunnerOptions prepares the functional options for the Runner.
func createRunnerOptions(logger *slog.Logger, opts RunOptions, store ports.SessionStore, handler runner.IOHandler) []runner.Option {
	rOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless || opts.JSON),
	}
	if store != nil {
		rOpts = append(rOpts, runner.WithStore(store))
	}

	switch {
	case handler != nil:
		rOpts = append(rOpts, runner.WithInputHandler(handler))
	case opts.JSON || opts.Headless:
		rOpts = append(rOpts, runner.WithInputHandler(runner.NewJSONHandler(os.Stdin, os.Stdout)))
	default:
		rOpts = append(rOpts, runner.WithInputHandler(newTextHandler(logger)))
	}
	return rOpts
}

// newTextHandler renders markdown with glamour when stdout is a terminal.
func newTextHandler(logger *slog.Logger) *runner.TextHandler {
	h := runner.NewTextHandler(os.Stdin, os.Stdout)
	if !tui.IsTerminal(os.Stdout) {
		return h
	}
	render, err := tui.NewRenderer()
	if err != nil {
		logger.Warn("Markdown renderer unavailable", "err", err)
		return h
	}
	h.Renderer = render
	return h
}

// resumeSession restores id from store, or starts a fresh session when there is nothing to restore.
func resumeSession(ctx context.Context, engine *stepwise.Engine, store ports.SessionStore, id string) (*session.Session, bool, error) {
	if store == nil || id == "" {
		s, err := engine.Start(ctx, sessionIDOrDefault(id))
		return s, false, err
	}

	snap, err := store.Load(ctx, id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s, err := engine.Start(ctx, id)
		return s, false, err
	case err != nil:
		return nil, false, err
	}

	s, err := session.Restore(ctx, engine.Factory(), snap)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func sessionIDOrDefault(id string) string {
	if id == "" {
		return "cli"
	}
	return id
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

func logCompletion(nodeName string, err error, quiet bool, sig os.Signal) {
	if quiet {
		return
	}
	switch {
	case err == nil:
		printSystemMessage("Finished at '%s' node.", nodeName)
	case sig == os.Interrupt:
		fmt.Printf("[CTRL+C]\n")
		printSystemMessage("Interrupted at '%s' node.", nodeName)
	case sig != nil:
		fmt.Printf("\n")
		printSystemMessage("Terminated at '%s' node.", nodeName)
	case isInterrupted(err):
		printSystemMessage("Left at '%s' node.", nodeName)
	}
}
