package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Yonela986/kanban-board/internal/clock"
	"github.com/Yonela986/kanban-board/internal/config"
	"github.com/Yonela986/kanban-board/internal/events"
	"github.com/Yonela986/kanban-board/internal/gateways/websocket"
	"github.com/Yonela986/kanban-board/internal/kanban"
	"github.com/Yonela986/kanban-board/internal/notify"
	"github.com/Yonela986/kanban-board/internal/seed"
	"github.com/Yonela986/kanban-board/internal/server"
	"github.com/Yonela986/kanban-board/internal/storage/sqlite"
	"github.com/Yonela986/kanban-board/internal/timers"
	"github.com/Yonela986/kanban-board/internal/util"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the board API, websocket feed and timer scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			addr, _ := cmd.Flags().GetString("addr")
			return serve(cmd.Context(), path, addr)
		},
	}
	cmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
	return cmd
}

func serve(parent context.Context, configPath, addrOverride string) error {
	util.LoadEnv(zap.NewNop())

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addrOverride != "" {
		cfg.Addr = addrOverride
	}

	logger, err := util.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("kanban board starting", zap.String("version", Version), zap.String("env", cfg.Env))

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	clk := clock.Real()
	registry := kanban.NewRegistry(kanban.WithClock(clk), kanban.WithBus(bus))

	inbox, err := sqlite.Open(cfg.Notifications.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open notification inbox: %w", err)
	}
	defer inbox.Close()

	hub := websocket.NewHub(registry, clk.Now, logger)
	hub.Attach(bus)

	sinks := notify.NewMulti(logger, notify.NewLogSink(logger), inbox, hub)
	if cfg.Redis.URL != "" {
		client, err := notify.NewRedisClient(ctx, cfg.Redis.URL, logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()
		sinks.Add(notify.NewRedisSink(client, cfg.Redis.Channel))
	}

	gate := notify.NewGate(sinks, notify.PermissionDefault, logger)
	if cfg.Notifications.AutoGrant {
		if err := gate.RequestOnce(ctx, notify.StaticRequester(notify.PermissionGranted)); err != nil {
			logger.Warn("notification permission request failed", zap.Error(err))
		}
	}

	scheduler := timers.NewScheduler(clk, registry, gate, logger)
	scheduler.Attach(bus)
	defer scheduler.Close()

	if cfg.SeedFile != "" {
		if _, err := seed.NewSeeder(registry, logger).SeedFile(cfg.SeedFile); err != nil {
			logger.Warn("seed file not applied", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
	}
	scheduler.Resync()

	go hub.Run(ctx)

	srv := server.New(server.Options{
		Registry:       registry,
		Inbox:          inbox,
		Gate:           gate,
		Hub:            hub,
		Logger:         logger,
		Env:            cfg.Env,
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
