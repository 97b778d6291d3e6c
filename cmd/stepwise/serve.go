package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/aretw0/stepwise/internal/logging"
	httpAdapter "github.com/aretw0/stepwise/pkg/adapters/http"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/adapters/redis"
	"github.com/aretw0/stepwise/pkg/observability"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP server",
	Long:  `Serves sessions over a JSON API. Sessions are stored in files, or in Redis when --redis-url is set.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		port, _ := cmd.Flags().GetString("port")
		watch, _ := cmd.Flags().GetBool("watch")
		origins, _ := cmd.Flags().GetStringSlice("origin")

		if err := serve(opts, port, watch, origins); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload descriptions when they change")
	serveCmd.Flags().StringSlice("origin", []string{"*"}, "Allowed CORS origins")
}

func serve(opts cli.RunOptions, port string, watch bool, origins []string) error {
	logger := logging.NewJSON(os.Stderr, slog.LevelInfo)
	if opts.Debug {
		logger = cli.CreateLogger(true, opts.NoColor)
	}

	metrics := observability.NewMetrics("stepwise")
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		return err
	}

	hooks := metrics.Hooks()
	if opts.Debug {
		hooks = observability.Combine(hooks, observability.LogHooks(logger))
	}
	engine, err := cli.CreateEngine(opts, logger,
		stepwise.WithLifecycleHooks(hooks),
		stepwise.WithSharedCache(watch),
	)
	if err != nil {
		return err
	}

	manager, closeStore, err := newManager(engine, opts, true, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithEntry(engine.Entry()),
		httpAdapter.WithVersion(stepwise.Version),
		httpAdapter.WithGatherer(registry),
		httpAdapter.WithAllowedOrigins(origins...),
		httpAdapter.WithLogger(logger),
	}
	if watch {
		handlerOpts = append(handlerOpts, httpAdapter.WithWatch(engine.Watch))
		go reloadOnChange(ctx, engine, manager)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: httpAdapter.NewHandler(manager, handlerOpts...),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", srv.Addr, "dir", opts.RepoPath, "entry", engine.Entry())
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		logger.Info("Server stopped gracefully")
		return nil
	}
}

// reloadOnChange drops changed descriptions from the shared cache and evicts
// live sessions, which are rebuilt from their journals on next access.
func reloadOnChange(ctx context.Context, engine *stepwise.Engine, manager *session.Manager) {
	events, err := engine.Watch(ctx)
	if err != nil {
		engine.Logger().Warn("Watch unavailable", "err", err)
		return
	}
	for path := range events {
		engine.Logger().Info("Description changed", "path", path)
		engine.Invalidate(path)
		manager.EvictAll(ctx)
	}
}

// newManager opens the session store for opts and returns a manager over it.
// Redis stores get a distributed lock so several servers can share sessions.
// Without Redis and persist, sessions live in memory.
func newManager(engine *stepwise.Engine, opts cli.RunOptions, persist bool, logger *slog.Logger) (*session.Manager, func(), error) {
	store, err := cli.OpenStore(opts.RedisURL, opts.SessionDir, persist)
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		store = memory.NewStore()
	}

	closeStore := func() {}
	managerOpts := []session.ManagerOption{session.WithLogger(logger)}
	if rs, ok := store.(*redis.Store); ok {
		managerOpts = append(managerOpts, session.WithLocker(redis.NewLocker(rs.Client(), rs.Prefix())))
		closeStore = func() { _ = rs.Close() }
	}

	store, err = cli.SealStore(store, opts.SessionKeys)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return engine.NewManager(store, managerOpts...), closeStore, nil
}
