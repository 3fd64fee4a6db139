package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-mechanics/internal/bridge"
	"github.com/lexiqai/voice-mechanics/internal/config"
	"github.com/lexiqai/voice-mechanics/internal/observability"
	"github.com/lexiqai/voice-mechanics/internal/reaction"
	"github.com/lexiqai/voice-mechanics/internal/resilience"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	for _, w := range cfg.Warnings {
		logger.Warn().Str("setting", w).Msg("Mechanics value clamped")
	}

	logger.Info().
		Str("port", cfg.Port).
		Str("grpc_port", cfg.GRPCPort).
		Str("host_url", cfg.HostURL).
		Int("tick_rate", cfg.TickRate).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice Mechanics Service starting")

	settings := reaction.NewSettingsStore(reaction.NewSettings(&cfg.Mechanics))

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// Create HTTP server
	mux := http.NewServeMux()

	// Game hosts connect here
	mux.HandleFunc("/streams/host", bridge.HandleHostWS(cfg, settings))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	settingsCheck := func(ctx context.Context) (bool, error) {
		if settings.Load() == nil {
			return false, errors.New("mechanics settings not loaded")
		}
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"settings": settingsCheck,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts. WebSocket sessions are hijacked and
	// end through rootCtx instead.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return rootCtx },
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", hostEndpoint(cfg)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// gRPC health service
	grpcHealth := observability.NewGRPCHealthServer()
	go func() {
		addr := fmt.Sprintf(":%s", cfg.GRPCPort)
		logger.Info().Str("addr", addr).Msg("gRPC health service listening")
		if err := grpcHealth.Serve(addr); err != nil {
			logger.Error().Err(err).Msg("gRPC health service failed")
		}
	}()

	// Outbound mode: dial the host as well as accepting inbound hosts
	if cfg.HostURL != "" {
		go func() {
			dialLogger := observability.WithComponent("bridge")
			if err := bridge.DialHost(rootCtx, cfg, settings, dialLogger); err != nil {
				dialLogger.Error().Err(err).Msg("Giving up on host connection")
			}
		}()
	}

	// Reload on SIGHUP, shut down on SIGINT/SIGTERM
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for running := true; running; {
		select {
		case <-reload:
			reloadSettings(cfg, settings, logger)
		case <-quit:
			running = false
		}
	}

	logger.Info().Msg("Shutting down server...")
	grpcHealth.SetServing(false)
	cancelRoot()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	grpcHealth.Stop()

	logger.Info().Msg("Server exited gracefully")
}

// reloadSettings re-reads configuration and swaps the mechanics every
// session uses. The mechanics file may be mid-replace when the signal
// arrives, so loading is retried; a failed reload keeps the current settings.
func reloadSettings(current *config.Config, settings *reaction.SettingsStore, logger zerolog.Logger) {
	var cfg *config.Config
	err := resilience.Retry(context.Background(), func(ctx context.Context) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	}, &resilience.RetryConfig{
		MaxAttempts:       current.RetryMaxAttempts,
		InitialBackoff:    time.Duration(current.RetryInitialBackoff) * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2.0,
	}, nil)
	if err != nil {
		logger.Error().Err(err).Msg("Reload failed, keeping current settings")
		return
	}
	for _, w := range cfg.Warnings {
		logger.Warn().Str("setting", w).Msg("Mechanics value clamped")
	}

	settings.Store(reaction.NewSettings(&cfg.Mechanics))
	observability.SetLevel(cfg.LogLevel)
	logger.Info().
		Str("log_level", cfg.LogLevel).
		Str("mechanics_file", cfg.MechanicsFile).
		Msg("Settings reloaded")
}

func hostEndpoint(cfg *config.Config) string {
	if cfg.PublicURL == "" {
		return fmt.Sprintf("ws://localhost:%s/streams/host", cfg.Port)
	}
	base := strings.TrimSuffix(cfg.PublicURL, "/")
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	return base + "/streams/host"
}
