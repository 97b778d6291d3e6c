package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/jonboulle/clockwork"
)

// maxSettle bounds how many state-changing outputs one Prompt may follow.
const maxSettle = 256

// ErrStalled is returned when rendering keeps moving without reaching a prompt,
// e.g. a lazy cycle of already completed contexts.
var ErrStalled = errors.New("navigation did not settle on a prompt")

// Session is one user walking a wizard. It owns the current-node pointer and
// records every state-changing primitive so the walk can be replayed.
type Session struct {
	mu sync.Mutex

	id        string
	entry     string
	engine    *runtime.Engine
	loader    *runtime.Loader
	ownsCache bool
	clock     clockwork.Clock

	root      domain.Node
	current   domain.Node
	journal   []domain.Step
	submitted bool
	entries   []domain.Entry
	lastErr   string
	createdAt time.Time
	updatedAt time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used for timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithOwnedCache marks the loader cache as private to this session,
// so Close empties it.
func WithOwnedCache(owned bool) Option {
	return func(s *Session) {
		s.ownsCache = owned
	}
}

// New materializes the entry node and returns a session positioned on it.
func New(ctx context.Context, id, entry string, engine *runtime.Engine, loader *runtime.Loader, opts ...Option) (*Session, error) {
	s := &Session{
		id:     id,
		entry:  entry,
		engine: engine,
		loader: loader,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx = domain.WithSessionID(ctx, id)
	root, err := loader.Root(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to start session at %q: %w", entry, err)
	}
	s.root = root
	s.current = root
	s.createdAt = s.clock.Now()
	s.updatedAt = s.createdAt
	engine.Enter(ctx, root)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Entry returns the path the session started from.
func (s *Session) Entry() string {
	return s.entry
}

// Root returns the entry node.
func (s *Session) Root() domain.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Current returns the current node.
func (s *Session) Current() domain.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Submitted reports whether the flow has finished.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Entries returns the collection captured at submission, or nil.
func (s *Session) Entries() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Entry(nil), s.entries...)
}

// Collect returns the values gathered so far, leaf-to-root from the current node.
func (s *Session) Collect() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return append([]domain.Entry(nil), s.entries...)
	}
	return s.engine.Collect(s.current)
}

// Prompt renders the current step, following any state changes the engine
// makes on the way (verified menus, deferred backs, completed contexts).
func (s *Session) Prompt(ctx context.Context) (domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.Prompt{}, domain.ErrSessionSubmitted
	}
	ctx = domain.WithSessionID(ctx, s.id)

	for range maxSettle {
		out, settled, err := s.output(ctx)
		if err != nil {
			return domain.Prompt{}, err
		}
		if s.submitted {
			return domain.Prompt{}, domain.ErrSessionSubmitted
		}
		if settled {
			out.Prompt.Error = s.lastErr
			return out.Prompt, nil
		}
	}
	return domain.Prompt{}, ErrStalled
}

// output performs one Output call and journals it when it changed state.
func (s *Session) output(ctx context.Context) (domain.OutputResult, bool, error) {
	out, err := s.engine.Output(ctx, s.current)
	if err != nil {
		return domain.OutputResult{}, false, err
	}
	if !out.StateChanged && !out.Submit {
		return out, true, nil
	}

	s.record(domain.Step{Op: domain.StepOutput})
	terminal := s.current
	if out.Next != nil {
		s.current = out.Next
	}
	if out.Submit {
		s.finish(ctx, terminal)
	}
	return out, false, nil
}

// Input applies raw input to the current node.
// Unrecognized input leaves the session unchanged and is reported by the next Prompt.
func (s *Session) Input(ctx context.Context, raw string) (domain.TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.TransitionResult{}, domain.ErrSessionSubmitted
	}
	ctx = domain.WithSessionID(ctx, s.id)

	res, err := s.engine.Input(ctx, s.current, raw)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	if !res.InputRecognized {
		s.lastErr = fmt.Sprintf("%q is not a valid answer", raw)
		return res, nil
	}

	s.lastErr = ""
	s.record(domain.Step{Op: domain.StepInput, Value: raw})
	s.apply(ctx, res)
	return res, nil
}

// Back moves one step backwards.
func (s *Session) Back(ctx context.Context) (domain.TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return domain.TransitionResult{}, domain.ErrSessionSubmitted
	}
	ctx = domain.WithSessionID(ctx, s.id)

	res, err := s.engine.Back(ctx, s.current)
	if err != nil {
		return domain.TransitionResult{}, err
	}
	s.lastErr = ""
	s.record(domain.Step{Op: domain.StepBack})
	s.apply(ctx, res)
	return res, nil
}

func (s *Session) apply(ctx context.Context, res domain.TransitionResult) {
	terminal := s.current
	if res.StateChanged && res.Next != nil {
		s.current = res.Next
	}
	if res.Submit {
		s.finish(ctx, terminal)
	}
}

// finish collects from the node that triggered the submission.
func (s *Session) finish(ctx context.Context, terminal domain.Node) {
	s.submitted = true
	s.entries = s.engine.Submitted(ctx, terminal)
}

func (s *Session) record(step domain.Step) {
	s.journal = append(s.journal, step)
	s.updatedAt = s.clock.Now()
}

// Replay re-applies a journal recorded by another instance of the same flow.
func (s *Session) Replay(ctx context.Context, steps []domain.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx = domain.WithSessionID(ctx, s.id)

	for i, step := range steps {
		if s.submitted {
			return fmt.Errorf("replay step %d: %w", i, domain.ErrSessionSubmitted)
		}
		switch step.Op {
		case domain.StepOutput:
			if _, _, err := s.output(ctx); err != nil {
				return fmt.Errorf("replay step %d: %w", i, err)
			}
		case domain.StepInput:
			res, err := s.engine.Input(ctx, s.current, step.Value)
			if err != nil {
				return fmt.Errorf("replay step %d: %w", i, err)
			}
			if !res.InputRecognized {
				return fmt.Errorf("replay step %d: input %q no longer recognized", i, step.Value)
			}
			s.record(step)
			s.apply(ctx, res)
		case domain.StepBack:
			res, err := s.engine.Back(ctx, s.current)
			if err != nil {
				return fmt.Errorf("replay step %d: %w", i, err)
			}
			s.record(step)
			s.apply(ctx, res)
		default:
			return fmt.Errorf("replay step %d: unknown op %q", i, step.Op)
		}
	}
	return nil
}

// Snapshot returns the durable form of the session.
func (s *Session) Snapshot() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &domain.Snapshot{
		ID:        s.id,
		Entry:     s.entry,
		Journal:   append([]domain.Step(nil), s.journal...),
		Submitted: s.submitted,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// Restore rebuilds a session from its snapshot: a fresh tree from the entry
// path, then the journal replayed on top of it.
func Restore(ctx context.Context, factory Factory, snap *domain.Snapshot) (*Session, error) {
	s, err := factory(ctx, snap.ID, snap.Entry)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild session %s: %w", snap.ID, err)
	}
	if err := s.Replay(ctx, snap.Journal); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to restore session %s: %w", snap.ID, err)
	}
	s.restoreTimes(snap)
	return s, nil
}

// restoreTimes carries timestamps over from a stored snapshot.
func (s *Session) restoreTimes(snap *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !snap.CreatedAt.IsZero() {
		s.createdAt = snap.CreatedAt
	}
	if !snap.UpdatedAt.IsZero() {
		s.updatedAt = snap.UpdatedAt
	}
}

// Close releases the node tree. The session must not be used afterwards.
// Trees built from a shared cache belong to every session and are left intact.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownsCache {
		runtime.Teardown(s.root, s.loader.Cache())
	}
	s.root = nil
	s.current = nil
}
