package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	source := memory.NewSource(map[string]string{
		"start": `
name: start
kind: options
options:
  - name: Feedback
    target: feedback
`,
		"feedback": `
name: feedback
kind: context
fields:
  - name: rating
    kind: verified
    choices:
      - name: Good
      - name: Bad
  - name: comment
`,
	})
	eng, err := stepwise.New("", stepwise.WithSources(source))
	require.NoError(t, err)
	return NewServer(eng.NewManager(memory.NewStore()), "start", "test", nil)
}

func TestServer_ToolsWalkASession(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	started, err := s.handleStart(ctx, req, startArgs{})
	require.NoError(t, err)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, []string{"Feedback"}, started.Prompt.Items)
	id := started.SessionID

	resp, err := s.handleInput(ctx, req, inputArgs{SessionID: id, Input: "Feedback"})
	require.NoError(t, err)
	assert.Equal(t, "rating", resp.Prompt.Title)
	assert.Equal(t, []string{"Good", "Bad", "Other"}, resp.Prompt.Items)

	resp, err = s.handleInput(ctx, req, inputArgs{SessionID: id, Input: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"comment"}, resp.Prompt.Items)

	resp, err = s.handleOutput(ctx, req, sessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, "feedback", resp.Prompt.Title)

	coll, err := s.handleCollect(ctx, req, sessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.False(t, coll.Submitted)
	assert.Contains(t, coll.Entries, domain.Entry{Node: "feedback", Field: "rating", Value: "Bad"})

	resp, err = s.handleInput(ctx, req, inputArgs{SessionID: id, Input: "too slow"})
	require.NoError(t, err)
	assert.True(t, resp.Submitted)
	assert.Nil(t, resp.Prompt)
	assert.Equal(t, []domain.Entry{
		{Node: "feedback", Field: "rating", Value: "Bad"},
		{Node: "feedback", Field: "comment", Value: "too slow"},
	}, resp.Entries)

	_, err = s.handleBack(ctx, req, sessionArgs{SessionID: id})
	assert.ErrorIs(t, err, domain.ErrSessionSubmitted)
}

func TestServer_Back(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	started, err := s.handleStart(ctx, req, startArgs{Entry: "start"})
	require.NoError(t, err)
	_, err = s.handleInput(ctx, req, inputArgs{SessionID: started.SessionID, Input: "1"})
	require.NoError(t, err)

	resp, err := s.handleBack(ctx, req, sessionArgs{SessionID: started.SessionID})
	require.NoError(t, err)
	assert.Equal(t, "start", resp.Prompt.Title)
}

func TestServer_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleOutput(ctx, req, sessionArgs{})
	assert.Error(t, err)

	_, err = s.handleOutput(ctx, req, sessionArgs{SessionID: "nope"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = s.handleStart(ctx, req, startArgs{Entry: "missing"})
	assert.ErrorIs(t, err, domain.ErrDescriptionNotFound)

	t.Setenv("STEPWISE_MAX_INPUT_SIZE", "2")
	_, err = s.handleInput(ctx, req, inputArgs{SessionID: "x", Input: "long"})
	assert.Error(t, err)
}
