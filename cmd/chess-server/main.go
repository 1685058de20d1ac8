package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/immersive-chess/internal/chessbuilder"
	appcfg "github.com/park285/immersive-chess/internal/config"
	"github.com/park285/immersive-chess/internal/httpapi"
	"github.com/park285/immersive-chess/internal/obslog"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_invalid", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("chess_init_failed", zap.Error(err))
	}

	api := httpapi.New(deps.Service, logger)
	go func() {
		if err := api.ListenAndServe(cfg.HTTPAddr); err != nil {
			logger.Error("http_server_stopped", zap.Error(err))
			stop()
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := deps.Stream.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("world_stream_connect_failed", zap.String("url", cfg.WorldWSURL), zap.Error(err))
	}
	cancel()

	if err := deps.Service.Serve(ctx, deps.Stream); err != nil {
		logger.Error("event_loop_failed", zap.Error(err))
	}

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := api.Shutdown(sctx); err != nil {
		logger.Warn("http_shutdown_failed", zap.Error(err))
	}
	if err := deps.Close(sctx); err != nil {
		logger.Warn("shutdown_close_failed", zap.Error(err))
	}
	logger.Info("chess_server_stopped")
}
