package runner

import (
	"context"

	"github.com/aretw0/stepwise/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the current step.
	Output(ctx context.Context, prompt domain.Prompt) error

	// Input reads a response from the user.
	Input(ctx context.Context) (string, error)

	// Done presents the collection of a submitted flow.
	Done(ctx context.Context, entries []domain.Entry) error

	// SystemOutput presents a meta-message (status updates, recoverable errors).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms markdown before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling this package to a renderer.
type ContentRenderer func(string) (string, error)
