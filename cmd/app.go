package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qrave1/anonspeak/internal/application/config"
	"github.com/qrave1/anonspeak/internal/application/constant"
	"github.com/qrave1/anonspeak/internal/application/metric"
	"github.com/qrave1/anonspeak/internal/domain/input"
	"github.com/qrave1/anonspeak/internal/infra/adapters/memory"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/handlers"
	"github.com/qrave1/anonspeak/internal/infra/ports/http/server"
	"github.com/qrave1/anonspeak/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: level},
			),
		),
	)

	registry := memory.NewRoomRegistry(memory.RegistryOptions{
		CleanupDelay:             cfg.Rooms.CleanupDelay,
		AllowTransferToNonMember: cfg.Rooms.AllowTransferToNonMember,
		StrictDemote:             cfg.Rooms.StrictDemote,
	})
	defer registry.Close()

	permanent := make([]input.CreateRoomInput, 0, len(cfg.Rooms.Permanent))
	for _, p := range cfg.Rooms.Permanent {
		permanent = append(permanent, input.CreateRoomInput{Name: p.Name, MaxUsers: p.MaxUsers})
	}

	if err = registry.SeedPermanentRooms(permanent); err != nil {
		slog.Error("seed permanent rooms", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	limiter := memory.NewRateLimiter(nil, cfg.RateLimit.Retention, nil)
	go limiter.Run(ctx, cfg.RateLimit.SweepInterval)

	wsConnRepo := memory.NewWSConnectionRepository()

	signalingUsecase := usecase.NewSignalingUsecase(registry, limiter, wsConnRepo)
	adminUsecase := usecase.NewAdminUsecase(registry, wsConnRepo)
	roomUsecase := usecase.NewRoomUsecase(registry)

	roomHandler := handlers.NewRoomHandler(cfg.StaticDir, roomUsecase)
	iceHandler := handlers.NewIceHandler(cfg)
	wsHandler := handlers.NewWebSocketHandler(cfg, signalingUsecase, wsConnRepo)
	adminHandler := handlers.NewAdminHandler(adminUsecase)

	echoSrv := server.New(cfg, roomHandler, iceHandler, wsHandler, adminHandler)

	metricsSrv := metric.NewServer()

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	// Запускаем HTTP сервер
	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	// Запускаем сервер метрик
	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	slog.Info(
		"server started",
		slog.String("port", cfg.Port),
		slog.String("metric_port", cfg.MetricPort),
		slog.Int("permanent_rooms", len(permanent)),
		slog.Bool("admin_api", cfg.AdminSecret != ""),
		slog.Bool("turn", cfg.Coturn.Enabled()),
	)

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	// Graceful shutdown. Контекст сигнала уже отменен, берем свежий.
	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}
