package stepwise_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSource() *memory.Source {
	return memory.NewSource(map[string]string{
		"start": `
name: start
kind: options
options:
  - name: Form
    target: form
  - name: Later
    target:
      path: later
      lazy: true
`,
		"form": `
name: form
kind: context
fields:
  - name: a
`,
		"later": `
name: later
kind: context
fields:
  - name: b
`,
		"orphan": `
name: orphan
kind: context
next: nowhere
fields:
  - name: c
`,
	})
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := stepwise.New("")
	assert.Error(t, err)
}

func TestEngine_SessionsAreIsolated(t *testing.T) {
	eng, err := stepwise.New("", stepwise.WithSources(newSource()))
	require.NoError(t, err)
	ctx := context.Background()

	one, err := eng.Start(ctx, "one")
	require.NoError(t, err)
	two, err := eng.Start(ctx, "two")
	require.NoError(t, err)

	_, err = one.Input(ctx, "Form")
	require.NoError(t, err)
	assert.NotSame(t, one.Current(), two.Current())
	assert.Equal(t, "start", domain.NameOf(two.Current()))
}

func TestEngine_SharedCache(t *testing.T) {
	source := newSource()
	eng, err := stepwise.New("", stepwise.WithSources(source), stepwise.WithSharedCache(true))
	require.NoError(t, err)
	ctx := context.Background()

	one, err := eng.Start(ctx, "one")
	require.NoError(t, err)
	two, err := eng.Start(ctx, "two")
	require.NoError(t, err)
	assert.Same(t, one.Current(), two.Current())
	assert.Equal(t, 1, source.Loads("start"))

	eng.Invalidate("start")
	three, err := eng.Start(ctx, "three")
	require.NoError(t, err)
	assert.NotSame(t, one.Current(), three.Current())
}

func TestEngine_Validate(t *testing.T) {
	eng, err := stepwise.New("", stepwise.WithSources(newSource()))
	require.NoError(t, err)

	err = eng.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orphan")
	assert.ErrorIs(t, err, domain.ErrDescriptionNotFound)
}

func TestEngine_Tree(t *testing.T) {
	eng, err := stepwise.New("", stepwise.WithSources(newSource()), stepwise.WithEntry("form"))
	require.NoError(t, err)
	assert.Equal(t, "form", eng.Entry())

	root, err := eng.Tree(context.Background(), eng.Entry())
	require.NoError(t, err)
	assert.Equal(t, "form", domain.NameOf(root))

	_, err = eng.Watch(context.Background())
	assert.Error(t, err, "memory sources cannot be watched")
}
