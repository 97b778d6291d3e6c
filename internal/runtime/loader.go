package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// Loader materializes holder nodes through the configured sources and
// memoizes the result in its Cache. It implements domain.Materializer.
type Loader struct {
	sources []ports.ConfigSource
	cache   *Cache
	fetches singleflight.Group
	logger  *slog.Logger
	hooks   domain.LifecycleHooks
}

// LoaderOption configures the Loader.
type LoaderOption func(*Loader)

// WithCache makes the loader use c instead of a private cache.
// Sharing one cache between loaders shares subtrees between sessions.
func WithCache(c *Cache) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.cache = c
		}
	}
}

// WithLoaderLogger sets the structured logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLoaderHooks registers the materialization hook.
func WithLoaderHooks(hooks domain.LifecycleHooks) LoaderOption {
	return func(l *Loader) {
		l.hooks = hooks
	}
}

// NewLoader creates a loader over sources. Holders select a source by index.
func NewLoader(sources []ports.ConfigSource, opts ...LoaderOption) *Loader {
	l := &Loader{
		sources: sources,
		cache:   NewCache(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cache returns the loader cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Holder creates a placeholder bound to this loader.
func (l *Loader) Holder(path string, source int, lazy bool, parent domain.Node, backSteps int) *domain.HolderNode {
	return &domain.HolderNode{
		Path:      path,
		Source:    source,
		Lazy:      lazy,
		Parent:    parent,
		BackSteps: backSteps,
		Loader:    l,
	}
}

// Root builds the entry node of a flow.
func (l *Loader) Root(ctx context.Context, path string) (domain.Node, error) {
	return l.Holder(path, 0, false, nil, 0).Resolve(ctx)
}

type chainKey struct{}

// chain returns the keys currently being built by this call stack.
func chain(ctx context.Context) []string {
	keys, _ := ctx.Value(chainKey{}).([]string)
	return keys
}

func withChain(ctx context.Context, key string) context.Context {
	keys := chain(ctx)
	next := make([]string, len(keys), len(keys)+1)
	copy(next, keys)
	return context.WithValue(ctx, chainKey{}, append(next, key))
}

// Materialize returns the cached node for the holder path or builds it.
// Building fetches the description once (concurrent fetches of one key are
// collapsed), builds the subtree with the holder's parent, then inserts it.
// A failure aborts only this branch and leaves the cache untouched.
func (l *Loader) Materialize(ctx context.Context, h *domain.HolderNode) (domain.Node, error) {
	key := CacheKey(h.Path, h.Source)
	start := time.Now()

	if n, ok := l.cache.Get(key); ok {
		l.report(ctx, h, true, start, nil)
		return n, nil
	}

	if slices.Contains(chain(ctx), key) {
		err := &domain.ConstructionError{Path: h.Path, Reason: "eager reference cycle: " + fmt.Sprint(append(chain(ctx), key))}
		l.report(ctx, h, false, start, err)
		return nil, err
	}

	if h.Source < 0 || h.Source >= len(l.sources) {
		err := &domain.LoadError{Path: h.Path, Source: h.Source, Err: domain.ErrSourceNotFound}
		l.report(ctx, h, false, start, err)
		return nil, err
	}
	source := l.sources[h.Source]

	v, err, _ := l.fetches.Do(key, func() (any, error) {
		return source.Load(ctx, h.Path)
	})
	if err != nil {
		var loadErr *domain.LoadError
		if !errors.As(err, &loadErr) {
			err = &domain.LoadError{Path: h.Path, Source: h.Source, Err: err}
		}
		l.report(ctx, h, false, start, err)
		return nil, err
	}
	desc, ok := v.(*domain.Description)
	if !ok || desc == nil {
		err := &domain.LoadError{Path: h.Path, Source: h.Source, Err: fmt.Errorf("source returned no description")}
		l.report(ctx, h, false, start, err)
		return nil, err
	}

	node, err := l.Build(withChain(ctx, key), desc, h.Path, h.Parent, h.BackSteps)
	if err != nil {
		l.report(ctx, h, false, start, err)
		return nil, err
	}

	resident, stored := l.cache.Insert(key, node)
	if !stored {
		l.logger.Debug("Concurrent build discarded", "path", h.Path)
	}
	l.report(ctx, h, false, start, nil)
	return resident, nil
}

func (l *Loader) report(ctx context.Context, h *domain.HolderNode, hit bool, start time.Time, err error) {
	if err != nil {
		l.logger.Warn("Materialization failed", "path", h.Path, "source", h.Source, "err", err)
	} else if !hit {
		l.logger.Debug("Materialized", "path", h.Path, "source", h.Source, "lazy", h.Lazy)
	}
	if l.hooks.OnMaterialize == nil {
		return
	}
	l.hooks.OnMaterialize(ctx, &domain.LoadEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventMaterialize, SessionID: domain.SessionIDFrom(ctx)},
		Path:      h.Path,
		Source:    h.Source,
		CacheHit:  hit,
		Duration:  time.Since(start),
		Err:       err,
	})
}
