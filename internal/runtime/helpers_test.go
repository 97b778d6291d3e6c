package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise/internal/runtime"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/ports"
	"github.com/stretchr/testify/require"
)

type flow struct {
	engine *runtime.Engine
	loader *runtime.Loader
	source *memory.Source
}

func newFlow(t *testing.T, docs map[string]string, opts ...runtime.EngineOption) *flow {
	t.Helper()
	source := memory.NewSource(docs)
	return &flow{
		engine: runtime.NewEngine(opts...),
		loader: runtime.NewLoader([]ports.ConfigSource{source}),
		source: source,
	}
}

func (f *flow) root(t *testing.T, path string) domain.Node {
	t.Helper()
	n, err := f.loader.Root(context.Background(), path)
	require.NoError(t, err)
	return n
}

func (f *flow) input(t *testing.T, n domain.Node, raw string) domain.TransitionResult {
	t.Helper()
	res, err := f.engine.Input(context.Background(), n, raw)
	require.NoError(t, err)
	return res
}

func (f *flow) output(t *testing.T, n domain.Node) domain.OutputResult {
	t.Helper()
	res, err := f.engine.Output(context.Background(), n)
	require.NoError(t, err)
	return res
}

func (f *flow) back(t *testing.T, n domain.Node) domain.TransitionResult {
	t.Helper()
	res, err := f.engine.Back(context.Background(), n)
	require.NoError(t, err)
	return res
}

// settle follows state-changing outputs until a prompt is rendered or the flow submits.
func (f *flow) settle(t *testing.T, n domain.Node) (domain.Node, domain.OutputResult) {
	t.Helper()
	for range 32 {
		out := f.output(t, n)
		if out.Submit || !out.StateChanged {
			return n, out
		}
		n = out.Next
	}
	t.Fatalf("output did not settle")
	return nil, domain.OutputResult{}
}

func contextNode(t *testing.T, n domain.Node) *domain.ContextNode {
	t.Helper()
	c, ok := n.(*domain.ContextNode)
	require.Truef(t, ok, "expected *domain.ContextNode, got %T", n)
	return c
}

func optionsNode(t *testing.T, n domain.Node) *domain.OptionsNode {
	t.Helper()
	o, ok := n.(*domain.OptionsNode)
	require.Truef(t, ok, "expected *domain.OptionsNode, got %T", n)
	return o
}
