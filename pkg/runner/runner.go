package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
)

// Keywords understood by Run in addition to regular answers.
const (
	KeywordBack = "back"
	KeywordExit = "exit"
	KeywordQuit = "quit"
)

// Runner drives a session against an IOHandler until it is submitted or the input ends.
type Runner struct {
	Handler  IOHandler
	Logger   *slog.Logger
	Store    ports.SessionStore
	Headless bool
	Renderer ContentRenderer
}

// NewRunner creates a new Runner. Without options it talks plain text on stdin/stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		if r.Headless {
			r.Handler = NewJSONHandler(nil, nil)
		} else {
			r.Handler = NewTextHandler(nil, nil, WithTextHandlerRenderer(r.Renderer))
		}
	}
	return r
}

// Run executes the prompt/answer loop.
// It returns nil when the session was submitted and io.EOF when the user left early.
func (r *Runner) Run(ctx context.Context, s *session.Session) error {
	logger := r.Logger.With("session_id", s.ID())
	logger.Debug("runner started", "entry", s.Entry())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Submitted() {
			return r.done(ctx, s, logger)
		}

		prompt, err := s.Prompt(ctx)
		if errors.Is(err, domain.ErrSessionSubmitted) {
			continue
		}
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		if err := r.Handler.Output(ctx, prompt); err != nil {
			return fmt.Errorf("output: %w", err)
		}

		raw, err := r.Handler.Input(ctx)
		if err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(raw)) {
		case KeywordExit, KeywordQuit:
			logger.Debug("runner exit requested")
			return io.EOF
		case KeywordBack:
			if _, err := s.Back(ctx); err != nil {
				return fmt.Errorf("back: %w", err)
			}
		default:
			res, err := s.Input(ctx, raw)
			if err != nil {
				return fmt.Errorf("input: %w", err)
			}
			if !res.InputRecognized {
				logger.Debug("input not recognized", "input", raw)
			}
		}

		if err := r.save(ctx, s); err != nil {
			return err
		}
	}
}

func (r *Runner) done(ctx context.Context, s *session.Session, logger *slog.Logger) error {
	if err := r.save(ctx, s); err != nil {
		return err
	}
	entries := s.Entries()
	logger.Info("session submitted", "entries", len(entries))
	return r.Handler.Done(ctx, entries)
}

func (r *Runner) save(ctx context.Context, s *session.Session) error {
	if r.Store == nil {
		return nil
	}
	if err := r.Store.Save(ctx, s.ID(), s.Snapshot()); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID(), err)
	}
	return nil
}
