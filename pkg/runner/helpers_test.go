package runner_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/stretchr/testify/require"
)

var survey = map[string]string{
	"start": `
name: start
kind: options
options:
  - name: Profile
    target: profile
`,
	"profile": `
name: profile
description: Tell us about you
kind: context
submit: true
fields:
  - name: name
  - name: city
`,
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	loader := runtime.NewLoader([]ports.ConfigSource{memory.NewSource(survey)})
	s, err := session.New(context.Background(), "run-1", "start", runtime.NewEngine(), loader,
		session.WithOwnedCache(true),
	)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}
