package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, sessionID string, snapshot *domain.Snapshot) error {
	return nil
}
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{}, nil)
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.WithLock(ctx, sid, func(ctx context.Context) error { return nil })
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("expected 0 locks remaining, got %d (leak)", lockCount)
	}
}
