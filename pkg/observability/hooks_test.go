package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnNodeEnter: func(context.Context, *domain.NodeEvent) { calls = append(calls, "b") },
		OnSubmit:    func(context.Context, *domain.SubmitEvent) { calls = append(calls, "submit") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnNodeEnter(context.Background(), &domain.NodeEvent{})
	h.OnSubmit(context.Background(), &domain.SubmitEvent{})

	assert.Equal(t, []string{"a", "b", "submit"}, calls)
	assert.Nil(t, h.OnNodeLeave)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.LogHooks(logger)

	ctx := context.Background()
	h.OnNodeEnter(ctx, &domain.NodeEvent{Node: "start", Kind: "options"})
	h.OnSubmit(ctx, &domain.SubmitEvent{Node: "form", Entries: []domain.Entry{{}, {}}})

	out := buf.String()
	assert.Contains(t, out, "node entered")
	assert.Contains(t, out, "node=start")
	assert.Contains(t, out, "flow submitted")
	assert.Contains(t, out, "entries=2")
}
