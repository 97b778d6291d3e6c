package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/google/uuid"
)

// Factory builds a fresh session positioned on the entry node.
type Factory func(ctx context.Context, id, entry string) (*Session, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// Live sessions stay in memory; a session missing from memory is rebuilt
// from its stored snapshot by replaying the journal.
// Locks are reference counted so unused ones are garbage collected.
type Manager struct {
	store   ports.SessionStore
	factory Factory

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks

	liveMu sync.Mutex
	live   map[string]*Session

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) ManagerOption {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID generator for new sessions.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a Session Manager over the given store.
func NewManager(store ports.SessionStore, factory Factory, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		factory: factory,
		locks:   make(map[string]*lockEntry),
		live:    make(map[string]*Session),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		entry.unlock = unlock
		defer func() {
			entry.unlock = nil
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start creates a session at entry and persists it.
func (m *Manager) Start(ctx context.Context, entry string) (*Session, error) {
	id := m.newID()
	var s *Session
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		s, err = m.factory(ctx, id, entry)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, id, s.Snapshot()); err != nil {
			s.Close()
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.remember(s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("Session started", "session_id", id, "entry", entry)
	return s, nil
}

// Do runs fn against the session under its lock and persists the result.
// The snapshot is saved even when fn fails, since fn may have applied steps first.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(ctx context.Context, s *Session) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.get(ctx, sessionID)
		if err != nil {
			return err
		}
		fnErr := fn(ctx, s)
		if err := m.store.Save(ctx, sessionID, s.Snapshot()); err != nil {
			return errors.Join(fnErr, fmt.Errorf("failed to save session: %w", err))
		}
		return fnErr
	})
}

// View runs fn against the session under its lock without persisting.
func (m *Manager) View(ctx context.Context, sessionID string, fn func(ctx context.Context, s *Session) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.get(ctx, sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, s)
	})
}

// get returns the live session or restores it from the store. Callers hold the session lock.
func (m *Manager) get(ctx context.Context, sessionID string) (*Session, error) {
	m.liveMu.Lock()
	s, ok := m.live[sessionID]
	m.liveMu.Unlock()
	if ok {
		return s, nil
	}

	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s, err = Restore(ctx, m.factory, snap)
	if err != nil {
		return nil, err
	}
	if s.Submitted() != snap.Submitted {
		m.logger.Warn("Restored session disagrees with snapshot",
			"session_id", sessionID,
			"submitted", snap.Submitted,
		)
	}
	m.remember(s)
	m.logger.Debug("Session restored", "session_id", sessionID, "steps", len(snap.Journal))
	return s, nil
}

func (m *Manager) remember(s *Session) {
	m.liveMu.Lock()
	m.live[s.ID()] = s
	m.liveMu.Unlock()
}

// Evict drops the in-memory session; the next access restores it from the store.
func (m *Manager) Evict(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.forget(sessionID)
		return nil
	})
}

// EvictAll drops every in-memory session.
func (m *Manager) EvictAll(ctx context.Context) {
	m.liveMu.Lock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	m.liveMu.Unlock()

	for _, id := range ids {
		if err := m.Evict(ctx, id); err != nil {
			m.logger.Warn("Failed to evict session", "session_id", id, "err", err)
		}
	}
}

func (m *Manager) forget(sessionID string) {
	m.liveMu.Lock()
	s, ok := m.live[sessionID]
	delete(m.live, sessionID)
	m.liveMu.Unlock()
	if ok {
		s.Close()
	}
}

// Delete removes the session from memory and from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.forget(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Live returns how many sessions are held in memory.
func (m *Manager) Live() int {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	return len(m.live)
}
