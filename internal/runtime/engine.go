package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
)

// Engine implements the navigation primitives (output, input, back, collect)
// against a current node. It holds no per-session state; the node graph does.
type Engine struct {
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	menuEntries bool
	now         func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMenuEntries makes Collect emit one entry per menu selection on the
// ancestor chain, in addition to context fields.
func WithMenuEntries(enabled bool) EngineOption {
	return func(e *Engine) {
		e.menuEntries = enabled
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a navigation engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Hooks returns the registered lifecycle hooks.
func (e *Engine) Hooks() domain.LifecycleHooks {
	return e.hooks
}

func (e *Engine) base(ctx context.Context, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, SessionID: domain.SessionIDFrom(ctx)}
}

// transition reports leaving from and entering to.
func (e *Engine) transition(ctx context.Context, from, to domain.Node) {
	e.logger.Debug("Transition",
		"from", domain.NameOf(from),
		"to", domain.NameOf(to),
		"session_id", domain.SessionIDFrom(ctx),
	)
	if e.hooks.OnNodeLeave != nil && from != nil {
		e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			EventBase: e.base(ctx, domain.EventNodeLeave),
			Node:      domain.NameOf(from),
			Kind:      domain.KindOf(from),
		})
	}
	if e.hooks.OnNodeEnter != nil && to != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			EventBase: e.base(ctx, domain.EventNodeEnter),
			Node:      domain.NameOf(to),
			Kind:      domain.KindOf(to),
		})
	}
}

// Enter reports n becoming current without a transition, e.g. a session root.
func (e *Engine) Enter(ctx context.Context, n domain.Node) {
	e.transition(ctx, nil, n)
}

func (e *Engine) unrecognized(ctx context.Context, n domain.Node, raw string) {
	e.logger.Debug("Input not recognized", "node", domain.NameOf(n), "size", len(raw))
	if e.hooks.OnUnrecognized != nil {
		e.hooks.OnUnrecognized(ctx, &domain.NodeEvent{
			EventBase: e.base(ctx, domain.EventUnrecognized),
			Node:      domain.NameOf(n),
			Kind:      domain.KindOf(n),
		})
	}
}

// Submitted fires the submit hook for a finished flow and returns its collection.
func (e *Engine) Submitted(ctx context.Context, terminal domain.Node) []domain.Entry {
	entries := e.Collect(terminal)
	e.logger.Info("Flow submitted",
		"node", domain.NameOf(terminal),
		"entries", len(entries),
		"session_id", domain.SessionIDFrom(ctx),
	)
	if e.hooks.OnSubmit != nil {
		e.hooks.OnSubmit(ctx, &domain.SubmitEvent{
			EventBase: e.base(ctx, domain.EventSubmit),
			Node:      domain.NameOf(terminal),
			Entries:   entries,
		})
	}
	return entries
}

// resolve forces a lazy reference.
func resolve(ctx context.Context, n domain.Node) (domain.Node, error) {
	if h, ok := n.(*domain.HolderNode); ok {
		return h.Resolve(ctx)
	}
	return n, nil
}

// materialized returns the built node behind n without forcing anything.
func materialized(n domain.Node) domain.Node {
	if h, ok := n.(*domain.HolderNode); ok {
		return h.Resolved()
	}
	return n
}
