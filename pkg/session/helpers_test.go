package session_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/jonboulle/clockwork"
)

var signup = map[string]string{
	"start": `
name: start
kind: options
options:
  - name: Sign up
    target: account
  - name: Leave
    submit: true
    target: bye
`,
	"account": `
name: account
description: Create your account
kind: context
fields:
  - name: email
  - name: plan
    kind: verified
    choices:
      - name: Free
      - name: Pro
next: confirm
`,
	"confirm": `
name: confirm
kind: context
submit: true
fields:
  - name: nickname
`,
	"bye": `
name: bye
kind: context
fields:
  - name: reason
`,
}

func factory(source ports.ConfigSource, clock clockwork.Clock) session.Factory {
	engine := runtime.NewEngine()
	return func(ctx context.Context, id, entry string) (*session.Session, error) {
		loader := runtime.NewLoader([]ports.ConfigSource{source})
		return session.New(ctx, id, entry, engine, loader,
			session.WithClock(clock),
			session.WithOwnedCache(true),
		)
	}
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := factory(memory.NewSource(signup), clockwork.NewFakeClock())(context.Background(), "s1", "start")
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	return s
}
