package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"photobooth/internal/auth"
	"photobooth/internal/availability"
	"photobooth/internal/config"
	"photobooth/internal/infrastructure/logger"
	"photobooth/internal/infrastructure/metrics"
	"photobooth/internal/reservation"
	"photobooth/internal/server"

	"go.uber.org/zap"
)

func main() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	source, cleanup, err := reservation.NewModule(cfg.Source, zapLogger)
	if err != nil {
		zapLogger.Fatal("creating reservation source", zap.Error(err))
	}
	defer cleanup()
	zapLogger.Info("reservation source ready",
		zap.String("kind", source.Name()),
		zap.Int("totalCapacity", cfg.Availability.TotalCapacity),
		zap.String("timezone", cfg.Availability.Timezone),
	)

	m := metrics.New()

	module, err := availability.NewModule(source, cfg.Availability, m, zapLogger)
	if err != nil {
		zapLogger.Fatal("creating availability module", zap.Error(err))
	}

	if cfg.Auth.JWTSecret == "" {
		zapLogger.Warn("JWT_SECRET not set, admin endpoints will reject every request")
	}

	router := server.NewRouter(
		module.Availability,
		module.ManyChat,
		auth.NewJWTValidator(cfg.Auth.JWTSecret),
		m,
		server.RouterConfig{MetricsEnabled: cfg.Metrics.Enabled, MetricsPath: cfg.Metrics.Path},
		zapLogger,
	)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
		return
	}

	zapLogger.Info("server stopped gracefully")
}
