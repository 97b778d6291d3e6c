package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepwise/pkg/domain"
)

// Combine returns hooks that call every non-nil callback of each set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		out.OnNodeLeave = chain(out.OnNodeLeave, h.OnNodeLeave)
		out.OnMaterialize = chain(out.OnMaterialize, h.OnMaterialize)
		out.OnUnrecognized = chain(out.OnUnrecognized, h.OnUnrecognized)
		out.OnSubmit = chain(out.OnSubmit, h.OnSubmit)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

// LogHooks returns hooks that write every event to logger at debug level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node entered", "session_id", e.SessionID, "node", e.Node, "kind", e.Kind)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node left", "session_id", e.SessionID, "node", e.Node, "kind", e.Kind)
		},
		OnMaterialize: func(ctx context.Context, e *domain.LoadEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "materialize failed", "path", e.Path, "source", e.Source, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "materialized", "path", e.Path, "source", e.Source, "cache_hit", e.CacheHit, "duration", e.Duration)
		},
		OnUnrecognized: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "input not recognized", "session_id", e.SessionID, "node", e.Node)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.InfoContext(ctx, "flow submitted", "session_id", e.SessionID, "node", e.Node, "entries", len(e.Entries))
		},
	}
}
