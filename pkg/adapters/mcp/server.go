package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/runner"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StepResponse is the structured result of every session tool.
type StepResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"Identifier to pass to the next call"`
	Prompt    *domain.Prompt `json:"prompt,omitempty" jsonschema_description:"The step waiting for an answer"`
	Submitted bool           `json:"submitted" jsonschema_description:"Indicates the flow is finished"`
	Entries   []domain.Entry `json:"entries,omitempty" jsonschema_description:"Collected values, leaf to root"`
}

type startArgs struct {
	Entry string `json:"entry"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type inputArgs struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

// Server exposes a session.Manager as an MCP server.
type Server struct {
	manager   *session.Manager
	entry     string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. entry is used when start_session names none.
func NewServer(manager *session.Manager, entry, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		manager:   manager,
		entry:     entry,
		logger:    logger,
		mcpServer: server.NewMCPServer("stepwise-mcp", version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))
	allow := cors.AllowAll().Handler

	mux := http.NewServeMux()
	mux.Handle("/sse", allow(sseServer.SSEHandler()))
	mux.Handle("/message", allow(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new wizard session and return its first step."),
		mcp.WithString("entry", mcp.Description("Path of the entry description (optional)")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("output",
		mcp.WithDescription("Show the step the session is waiting on."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleOutput))

	s.mcpServer.AddTool(mcp.NewTool("input",
		mcp.WithDescription("Answer the current step. Menus accept a 1-based number or the exact option name."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithString("input", mcp.Required(), mcp.Description("User answer")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleInput))

	s.mcpServer.AddTool(mcp.NewTool("back",
		mcp.WithDescription("Go back one step."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("collect",
		mcp.WithDescription("Return the values gathered so far, leaf to root."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleCollect))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args startArgs) (StepResponse, error) {
	entry := args.Entry
	if entry == "" {
		entry = s.entry
	}
	sess, err := s.manager.Start(ctx, entry)
	if err != nil {
		return StepResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return s.step(ctx, sess.ID(), nil)
}

func (s *Server) handleOutput(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	return s.step(ctx, args.SessionID, nil)
}

func (s *Server) handleInput(ctx context.Context, request mcp.CallToolRequest, args inputArgs) (StepResponse, error) {
	clean, err := runner.SanitizeAnswer(args.Input)
	if err != nil {
		s.logger.Warn("MCP Input: Input rejected", "error", err, "size", len(args.Input))
		return StepResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	return s.step(ctx, args.SessionID, func(ctx context.Context, sess *session.Session) error {
		_, err := sess.Input(ctx, clean)
		return err
	})
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	return s.step(ctx, args.SessionID, func(ctx context.Context, sess *session.Session) error {
		_, err := sess.Back(ctx)
		return err
	})
}

func (s *Server) handleCollect(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	resp := StepResponse{SessionID: args.SessionID}
	err := s.manager.View(ctx, args.SessionID, func(ctx context.Context, sess *session.Session) error {
		resp.Submitted = sess.Submitted()
		resp.Entries = sess.Collect()
		return nil
	})
	if err != nil {
		return StepResponse{}, fmt.Errorf("collect failed: %w", err)
	}
	return resp, nil
}

// step applies fn, when given, and renders the session afterwards.
func (s *Server) step(ctx context.Context, id string, fn func(context.Context, *session.Session) error) (StepResponse, error) {
	if id == "" {
		return StepResponse{}, errors.New("session_id is required")
	}
	resp := StepResponse{SessionID: id}
	err := s.manager.Do(ctx, id, func(ctx context.Context, sess *session.Session) error {
		if fn != nil {
			if err := fn(ctx, sess); err != nil {
				return err
			}
		}
		if !sess.Submitted() {
			p, err := sess.Prompt(ctx)
			switch {
			case errors.Is(err, domain.ErrSessionSubmitted):
			case err != nil:
				return err
			default:
				resp.Prompt = &p
			}
		}
		if sess.Submitted() {
			resp.Submitted = true
			resp.Entries = sess.Entries()
		}
		return nil
	})
	if err != nil {
		return StepResponse{}, err
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("stepwise://sessions", "Stored sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.manager.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "stepwise://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
