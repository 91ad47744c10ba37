package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/cache"
	"github.com/safedialog/safedialog/internal/config"
	"github.com/safedialog/safedialog/internal/detector"
	"github.com/safedialog/safedialog/internal/dictionary"
	"github.com/safedialog/safedialog/internal/logger"
	"github.com/safedialog/safedialog/internal/masker"
	"github.com/safedialog/safedialog/internal/prompt"
	"github.com/safedialog/safedialog/internal/responder"
	"github.com/safedialog/safedialog/internal/server"
)

var (
	version = "1.0.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("Safe Dialog %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck {
		performHealthCheck()
		return
	}

	// .env carries secrets like the responder API key in development
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Safe Dialog",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	deps, cleanup, err := buildDeps(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer cleanup()

	// Config file changes are logged but applied only on restart; component
	// wiring is fixed at startup.
	if err := config.Watch(cfg, func(newCfg *config.Config) {
		log.Info("Configuration file changed, restart to apply",
			zap.String("log_level", newCfg.Logging.Level))
	}); err != nil {
		log.Warn("Configuration watch unavailable", zap.Error(err))
	}

	srv := server.New(cfg, deps, log)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			os.Exit(1)
		}

		log.Info("Server shutdown complete")
	}
}

// buildDeps assembles the masking pipeline from configuration.
func buildDeps(cfg *config.Config, log *logger.Logger) (server.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := buildStore(cfg, log)
	if err != nil {
		return server.Deps{}, cleanup, err
	}
	closers = append(closers, func() { store.Close() })

	det, err := buildDetector(cfg, log)
	if err != nil {
		cleanup()
		return server.Deps{}, func() {}, err
	}

	var spanCache masker.SpanCache
	var detectionCache *cache.DetectionCache
	if cfg.Cache.Enabled {
		dc, err := cache.NewDetectionCache(&cache.Config{
			RedisURL:       cfg.Cache.RedisURL,
			MaxConnections: cfg.Cache.MaxConnections,
			MinIdleConns:   cfg.Cache.MinIdleConns,
			DefaultTTL:     cfg.Cache.DefaultTTL,
			KeyPrefix:      cfg.Cache.KeyPrefix,
		}, log.WithComponent("cache").Logger)
		if err != nil {
			cleanup()
			return server.Deps{}, func() {}, fmt.Errorf("failed to create detection cache: %w", err)
		}
		closers = append(closers, func() { dc.Close() })
		spanCache = dc
		detectionCache = dc
	}

	m := masker.New(masker.Config{
		DetectionTimeout:  cfg.Masking.DetectionTimeout,
		RequestsPerSecond: cfg.Masking.RequestsPerSecond,
		Burst:             cfg.Masking.Burst,
	}, det, store, spanCache, log.WithComponent("masker").Logger)

	promptStore := prompt.NewStore(cfg.Prompt.Path, log.WithComponent("prompt").Logger)

	var client *responder.Client
	if cfg.Responder.APIKey != "" {
		client, err = responder.NewClient(&responder.Config{
			BaseURL:     cfg.Responder.BaseURL,
			APIKey:      cfg.Responder.APIKey,
			Model:       cfg.Responder.Model,
			Referer:     cfg.Responder.Referer,
			Title:       cfg.Responder.Title,
			MaxTokens:   cfg.Responder.MaxTokens,
			Temperature: cfg.Responder.Temperature,
			Timeout:     cfg.Responder.Timeout,
		}, log.WithComponent("responder").Logger)
		if err != nil {
			cleanup()
			return server.Deps{}, func() {}, fmt.Errorf("failed to create responder client: %w", err)
		}
	} else {
		log.Warn("Responder API key not configured, /api/process is disabled")
	}

	return server.Deps{
		Masker:    m,
		Store:     store,
		Prompt:    promptStore,
		Responder: client,
		Cache:     detectionCache,
	}, cleanup, nil
}

func buildStore(cfg *config.Config, log *logger.Logger) (dictionary.Store, error) {
	switch cfg.Dictionary.Driver {
	case "postgres":
		return dictionary.NewPostgresStore(&dictionary.PostgresConfig{
			DatabaseURL:     cfg.Dictionary.DatabaseURL,
			MaxOpenConns:    cfg.Dictionary.MaxConns,
			MaxIdleConns:    cfg.Dictionary.MaxIdle,
			ConnMaxLifetime: cfg.Dictionary.ConnMaxLife,
		}, log.WithComponent("dictionary").Logger)
	default:
		return dictionary.NewMemoryStore(log.WithComponent("dictionary").Logger), nil
	}
}

func buildDetector(cfg *config.Config, log *logger.Logger) (detector.Detector, error) {
	switch cfg.Detector.Provider {
	case "rules":
		return detector.NewRuleDetector(cfg.Detector.Rules, log.WithComponent("detector").Logger)
	default:
		return detector.NewOllamaDetector(detector.OllamaConfig{
			BaseURL: cfg.Detector.Ollama.BaseURL,
			Model:   cfg.Detector.Ollama.Model,
		}, log.WithComponent("detector").Logger)
	}
}

// performHealthCheck performs a health check against the running server
func performHealthCheck() {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8000/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
