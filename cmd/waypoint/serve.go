package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/logging"
	"github.com/vango-dev/waypoint/pkg/manifest"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/server"
	"github.com/vango-dev/waypoint/pkg/session"
)

func serveCmd() *cobra.Command {
	var (
		host string
		port int
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the app shell and the navigation socket",
		Long: `Start the waypoint server.

The server answers deep links with the app shell, serves the thin client,
and runs one navigation controller per connected tab. The route manifest
is polled and swapped in without dropping sessions.

Example:
  waypoint serve
  waypoint serve --port 8080 --host 0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cmd, cfg, dev)
		},
	}

	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "Host to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().BoolVar(&dev, "dev", false, "Disable client caching")

	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command, cfg *config.Config, dev bool) error {
	logger, _, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return err
	}

	src, err := manifestSource(cfg)
	if err != nil {
		return err
	}
	table, version, err := manifest.Load(ctx, src, nil)
	if err != nil {
		return err
	}
	for _, e := range table.Shadowed() {
		logger.Warn("route can never match", "path", e.Path(), "name", e.Name())
	}

	mode, _ := cfg.HistoryMode()
	srvConfig := server.DefaultServerConfig()
	srvConfig.Address = cfg.Address()
	srvConfig.Title = cfg.Title()
	srvConfig.Base = cfg.Base
	srvConfig.Mode = mode
	srvConfig.StaticDir = cfg.StaticPath()
	srvConfig.ShellFile = cfg.ShellPath()
	srvConfig.SessionConfig.MaxRedirects = cfg.MaxRedirects
	srvConfig.DevMode = dev

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ttl, _ := cfg.SessionTTL()
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithTracker(session.NewTracker(store,
			session.WithTTL(ttl),
			session.WithLogger(logger))),
		server.WithObserver(middleware.OpenTelemetry()),
	}

	var metrics *middleware.Metrics
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = middleware.Prometheus(
			middleware.WithRegistry(registry),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, server.WithMetrics(metrics, registry))
	}

	srv := server.New(table, srvConfig, opts...)

	if interval, _ := cfg.PollInterval(); interval > 0 {
		watcher := manifest.NewWatcher(src, srv.ReplaceTable,
			manifest.WithInterval(interval),
			manifest.WithLogger(logger.With("component", "manifest")))
		watcher.Seed(version)
		go watchManifest(ctx, watcher, interval, metrics)
	}

	printBanner(cmd)
	success(cmd, "Loaded %d routes from %s", table.Len(), src.Name())
	info(cmd, "Listening on %s", cyan.Sprintf("http://%s%s/", srvConfig.Address, srvConfig.Base))
	info(cmd, "History mode: %s, sessions: %s", mode, cfg.Session.Store)
	if cfg.Metrics.Enabled {
		info(cmd, "Metrics: %s", cyan.Sprintf("http://%s/metrics", srvConfig.Address))
	}
	fmt.Fprintln(cmd.OutOrStdout())

	return srv.Run(ctx)
}

// openStore opens the session store cfg names.
func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Session.Store != "redis" {
		return session.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Session.RedisAddr, err)
	}
	return session.NewRedisStore(client, session.WithRedisPrefix(prefixFor(cfg))), nil
}

func prefixFor(cfg *config.Config) string {
	if cfg.Name == "" {
		return "waypoint:session:"
	}
	return "waypoint:" + cfg.Name + ":session:"
}

// watchManifest polls w until ctx is done, recording every reload attempt
// that changed or was rejected.
func watchManifest(ctx context.Context, w *manifest.Watcher, interval time.Duration, metrics *middleware.Metrics) {
	if metrics == nil {
		_ = w.Run(ctx)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := w.Poll(ctx)
			if changed || err != nil {
				metrics.ManifestReloaded(err)
			}
		}
	}
}
