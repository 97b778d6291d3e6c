package stepwise

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/internal/runtime"
	loamAdapter "github.com/aretw0/stepwise/pkg/adapters/loam"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// DefaultEntry is the path a session starts from unless WithEntry says otherwise.
const DefaultEntry = "start"

// Engine is the high-level entry point for the Stepwise library.
// It wires description sources, the navigation runtime and session construction.
type Engine struct {
	runtime     *runtime.Engine
	sources     []ports.ConfigSource
	shared      *runtime.Cache
	sharedCache bool
	entry       string
	menuEntries bool
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	clock       clockwork.Clock
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSources injects description sources, bypassing the default Loam repository.
// Holders select a source by index; index 0 serves the entry node.
func WithSources(sources ...ports.ConfigSource) Option {
	return func(e *Engine) {
		e.sources = sources
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEntry configures the entry path (default: "start").
func WithEntry(path string) Option {
	return func(e *Engine) {
		if path != "" {
			e.entry = path
		}
	}
}

// WithMenuEntries makes collections include one entry per menu selection.
func WithMenuEntries(enabled bool) Option {
	return func(e *Engine) {
		e.menuEntries = enabled
	}
}

// WithSharedCache makes every session resolve paths through one cache.
// Sessions then share materialized subtrees, including their progress.
func WithSharedCache(enabled bool) Option {
	return func(e *Engine) {
		e.sharedCache = enabled
	}
}

// WithClock sets the clock used for session timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New initializes a new Stepwise Engine.
// By default, it reads descriptions from a Loam repository at repoPath.
// If WithSources is provided, repoPath can be empty and Loam is skipped.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{entry: DefaultEntry}
	for _, opt := range opts {
		opt(eng)
	}

	if len(eng.sources) == 0 {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no custom source is provided")
		}
		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		// Read-only: the engine never writes descriptions.
		source, err := loamAdapter.Open(absPath)
		if err != nil {
			return nil, err
		}
		eng.sources = []ports.ConfigSource{source}
	} else if repoPath != "" {
		eng.Name = filepath.Base(repoPath)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("flow", eng.Name)
	}
	if eng.clock == nil {
		eng.clock = clockwork.NewRealClock()
	}
	if eng.sharedCache {
		eng.shared = runtime.NewCache()
	}

	eng.runtime = runtime.NewEngine(
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithMenuEntries(eng.menuEntries),
		runtime.WithClock(eng.clock.Now),
	)
	return eng, nil
}

func (e *Engine) loader() *runtime.Loader {
	return runtime.NewLoader(e.sources,
		runtime.WithCache(e.shared),
		runtime.WithLoaderLogger(e.logger),
		runtime.WithLoaderHooks(e.hooks),
	)
}

// Start creates a session positioned on the entry node.
func (e *Engine) Start(ctx context.Context, sessionID string) (*session.Session, error) {
	return e.StartAt(ctx, sessionID, e.entry)
}

// StartAt creates a session positioned on the node at path.
func (e *Engine) StartAt(ctx context.Context, sessionID, path string) (*session.Session, error) {
	return session.New(ctx, sessionID, path, e.runtime, e.loader(),
		session.WithClock(e.clock),
		session.WithOwnedCache(e.shared == nil),
	)
}

// Factory returns the session constructor used by a session.Manager.
func (e *Engine) Factory() session.Factory {
	return e.StartAt
}

// NewManager returns a session manager backed by store.
func (e *Engine) NewManager(store ports.SessionStore, opts ...session.ManagerOption) *session.Manager {
	opts = append([]session.ManagerOption{session.WithLogger(e.logger)}, opts...)
	return session.NewManager(store, e.Factory(), opts...)
}

// Entry returns the configured entry path.
func (e *Engine) Entry() string {
	return e.entry
}

// Sources returns the configured description sources.
func (e *Engine) Sources() []ports.ConfigSource {
	return e.sources
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// Tree materializes the node at path with a private cache, for inspection.
// Lazy references stay unresolved.
func (e *Engine) Tree(ctx context.Context, path string) (domain.Node, error) {
	return runtime.NewLoader(e.sources, runtime.WithLoaderLogger(e.logger)).Root(ctx, path)
}

// Watch returns a channel that emits the path of every changed description.
// Returns error if the primary source does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.sources[0].(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current source does not support watching")
}

// Invalidate drops path from the shared cache so new resolutions reload it.
// Nodes already handed to sessions are unaffected.
func (e *Engine) Invalidate(path string) {
	if e.shared != nil {
		e.shared.Evict(runtime.CacheKey(path, 0))
	}
}

// Validate builds every description listed by the primary source, each in
// isolation with lazy references left unresolved, and reports every failure.
func (e *Engine) Validate(ctx context.Context) error {
	lister, ok := e.sources[0].(ports.Lister)
	if !ok {
		_, err := e.Tree(ctx, e.entry)
		return err
	}
	paths, err := lister.List(ctx)
	if err != nil {
		return err
	}

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, path := range paths {
		g.Go(func() error {
			if _, err := e.Tree(ctx, path); err != nil {
				mu.Lock()
				result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return result.ErrorOrNil()
}
