package runtime_test

import (
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chain = map[string]string{
	"root": `
name: root
kind: options
options:
  - name: Start
    target: first
`,
	"first": `
name: first
kind: context
fields:
  - name: x
  - name: y
next: second
`,
	"second": `
name: second
kind: context
submit: true
fields:
  - name: z
`,
}

func TestCollect_LeafToRoot(t *testing.T) {
	f := newFlow(t, chain)
	root := f.root(t, "root")
	first := f.input(t, root, "Start").Next
	f.input(t, first, "1")
	second := f.input(t, first, "2").Next
	res := f.input(t, second, "3")
	require.True(t, res.Submit)

	assert.Equal(t, []domain.Entry{
		{Node: "second", Field: "z", Value: "3"},
		{Node: "first", Field: "x", Value: "1"},
		{Node: "first", Field: "y", Value: "2"},
	}, f.engine.Collect(second))

	reversed := domain.Reverse(f.engine.Collect(second))
	assert.Equal(t, "y", reversed[0].Field)
	assert.Equal(t, "z", reversed[2].Field)
}

func TestCollect_MenuEntries(t *testing.T) {
	f := newFlow(t, chain, runtime.WithMenuEntries(true))
	root := f.root(t, "root")
	first := f.input(t, root, "Start").Next
	f.input(t, first, "1")
	second := f.input(t, first, "2").Next
	f.input(t, second, "3")

	entries := f.engine.Collect(second)
	require.Len(t, entries, 4)
	assert.Equal(t, domain.Entry{Node: "root", Field: "root", Value: "Start"}, entries[3])
}

func TestCollect_PrefilledValues(t *testing.T) {
	f := newFlow(t, map[string]string{
		"form": `
name: form
kind: context
fields:
  - name: country
    value: BR
  - name: city
`,
	})
	form := f.root(t, "form")

	assert.Equal(t, []domain.Entry{
		{Node: "form", Field: "country", Value: "BR"},
		{Node: "form", Field: "city", Value: ""},
	}, f.engine.Collect(form))
}

func TestCollect_ParentCyclePanics(t *testing.T) {
	a := domain.NewContextNode("a", "", nil, domain.StepsFromField)
	b := domain.NewContextNode("b", "", a, domain.StepsFromField)
	a.Parent = b

	engine := runtime.NewEngine()
	assert.PanicsWithValue(t, domain.InvariantViolation{Node: "a", Detail: "cycle in parent links"}, func() {
		engine.Collect(a)
	})
}

func TestTeardown(t *testing.T) {
	f := newFlow(t, chain)
	root := optionsNode(t, f.root(t, "root"))
	first := contextNode(t, f.input(t, root, "Start").Next)
	require.NotZero(t, f.loader.Cache().Len())

	runtime.Teardown(root, f.loader.Cache())

	assert.Zero(t, f.loader.Cache().Len())
	assert.Nil(t, root.Options[0].Target)
	assert.Nil(t, first.Next)
	assert.Nil(t, first.Parent)
}

func TestReset(t *testing.T) {
	f := newFlow(t, chain)
	root := optionsNode(t, f.root(t, "root"))
	f.input(t, root, "Start")

	runtime.Reset(root)
	_, selected := root.Selection()
	assert.False(t, selected)
}
