package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/turtacn/esign/internal/config"
	"github.com/turtacn/esign/internal/infrastructure/kms"
	"github.com/turtacn/esign/internal/infrastructure/monitoring"
	sandbox "github.com/turtacn/esign/internal/interfaces/http"
	"github.com/turtacn/esign/pkg/logger"
)

func main() {
	configFile := flag.String("config", "", "config file (default ./config.yaml or /etc/esign/config.yaml)")
	flag.Parse()

	// Logger for startup
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})

	// Load config
	cfg, err := config.LoadSandboxConfig(*configFile, startupLogger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Initialize tracing
	cfg.Tracing.ServiceName = "esign-sandbox"
	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(context.Background(), "Failed to initialize tracing", err)
	}
	defer tracing.Shutdown(context.Background())

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router := sandbox.NewRouter(&cfg.Sandbox, kms.NewStaticSecretProvider(cfg.Sandbox.Apps), appLogger,
		sandbox.WithMetrics(metrics, prometheus.DefaultGatherer),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- router.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Fatal(context.Background(), "Sandbox server failed", err)
		}
	case sig := <-quit:
		appLogger.Info(context.Background(), "Shutting down sandbox", logger.Fields{"signal": sig.String()})
		if err := router.Stop(context.Background()); err != nil {
			appLogger.Error(context.Background(), "Sandbox shutdown failed", err)
		}
	}
}
