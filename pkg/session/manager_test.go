package session_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, store ports.SessionStore, opts ...session.ManagerOption) *session.Manager {
	t.Helper()
	return session.NewManager(store, factory(memory.NewSource(signup), clockwork.NewFakeClock()), opts...)
}

func TestManager_StartPersists(t *testing.T) {
	store := memory.NewStore()
	var n int
	m := newManager(t, store, session.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	ctx := context.Background()

	s, err := m.Start(ctx, "start")
	require.NoError(t, err)
	assert.Equal(t, "id-1", s.ID())

	snap, err := store.Load(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "start", snap.Entry)
	assert.Empty(t, snap.Journal)

	_, err = m.Start(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDescriptionNotFound)
}

func TestManager_RestoreAfterEviction(t *testing.T) {
	store := memory.NewStore()
	m := newManager(t, store)
	ctx := context.Background()

	s, err := m.Start(ctx, "start")
	require.NoError(t, err)
	id := s.ID()

	err = m.Do(ctx, id, func(ctx context.Context, s *session.Session) error {
		if _, err := s.Input(ctx, "1"); err != nil {
			return err
		}
		_, err := s.Input(ctx, "cy@example.com")
		return err
	})
	require.NoError(t, err)

	require.NoError(t, m.Evict(ctx, id))
	assert.Zero(t, m.Live())

	var prompt domain.Prompt
	err = m.Do(ctx, id, func(ctx context.Context, s *session.Session) error {
		var err error
		prompt, err = s.Prompt(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "plan", prompt.Title)
	assert.Equal(t, 1, m.Live())

	// A second manager over the same store sees the same walk.
	other := newManager(t, store)
	err = other.View(ctx, id, func(ctx context.Context, s *session.Session) error {
		assert.Equal(t, "plan", domain.NameOf(s.Current()))
		return nil
	})
	require.NoError(t, err)
}

func TestManager_UnknownSession(t *testing.T) {
	m := newManager(t, memory.NewStore())
	err := m.View(context.Background(), "ghost", func(ctx context.Context, s *session.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_Delete(t *testing.T) {
	store := memory.NewStore()
	m := newManager(t, store)
	ctx := context.Background()

	s, err := m.Start(ctx, "start")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, s.ID()))

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, m.Live())
}

func TestManager_SerializesAccess(t *testing.T) {
	m := newManager(t, memory.NewStore())
	ctx := context.Background()
	s, err := m.Start(ctx, "start")
	require.NoError(t, err)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.View(ctx, s.ID(), func(ctx context.Context, s *session.Session) error {
				cur := atomic.AddInt32(&inside, 1)
				for {
					old := atomic.LoadInt32(&maxInside)
					if cur <= old || atomic.CompareAndSwapInt32(&maxInside, old, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	m := newManager(t, memory.NewStore(), session.WithLocker(locker), session.WithIDGenerator(func() string { return "fixed" }))
	ctx := context.Background()

	_, err := m.Start(ctx, "start")
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, "fixed"))

	assert.Equal(t, []string{"fixed", "fixed"}, locker.locked)
	assert.Equal(t, 2, locker.unlocked)
}
