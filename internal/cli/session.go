package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stepwise/internal/presentation/tui"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/runner"
)

// RunSession executes a single session.
func RunSession(opts RunOptions) error {
	logger := CreateLogger(opts.Debug, opts.NoColor)
	quiet := opts.JSON || opts.Headless

	if !quiet {
		tui.PrintBanner(os.Stdout)
	}

	engine, err := CreateEngine(opts, logger)
	if err != nil {
		return err
	}

	store, err := openStore(opts)
	if err != nil {
		return err
	}
	if opts.Fresh && store != nil && opts.SessionID != "" {
		if err := store.Delete(context.Background(), opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	s, resumed, err := resumeSession(sigCtx, engine, store, opts.SessionID)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	defer s.Close()

	if resumed {
		logger.Info("Session resumed", "session_id", s.ID(), "node", domain.NameOf(s.Current()))
		if !quiet {
			printSystemMessage("Resuming at '%s' node...", domain.NameOf(s.Current()))
		}
	} else if opts.SessionID != "" && !quiet {
		printSystemMessage("Session '%s' active.", s.ID())
	}

	r := runner.NewRunner(createRunnerOptions(logger, opts, store, nil)...)
	runErr := r.Run(sigCtx, s)

	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	logCompletion(domain.NameOf(s.Current()), runErr, quiet, sigCtx.Signal())
	return handleExecutionError(runErr)
}
