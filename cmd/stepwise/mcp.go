package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/aretw0/stepwise/internal/logging"
	"github.com/aretw0/stepwise/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [dir]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server so agents can drive flows through tools.

Supported transports:
- stdio (default): standard input and output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		level := slog.LevelInfo
		if opts.Debug {
			level = slog.LevelDebug
		}
		// Stdout carries JSON-RPC, so logs go to stderr.
		logger := logging.New(level)

		engine, err := cli.CreateEngine(opts, logger)
		if err != nil {
			logger.Error("Failed to initialize engine", "err", err)
			os.Exit(1)
		}
		persist, _ := cmd.Flags().GetBool("persist")
		manager, closeStore, err := newManager(engine, opts, persist, logger)
		if err != nil {
			logger.Error("Failed to open session store", "err", err)
			os.Exit(1)
		}
		defer closeStore()
		srv := mcp.NewServer(manager, engine.Entry(), stepwise.Version, logger)

		switch transport {
		case "stdio":
			logger.Info("Starting MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("Starting MCP server (SSE)", "port", port)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("MCP server failed", "err", err)
				os.Exit(1)
			}
			logger.Info("MCP server stopped gracefully")
		default:
			logger.Error("Unknown transport, supported: stdio, sse", "transport", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Bool("persist", false, "Store sessions on disk instead of in memory")
}
