package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/topicdex/internal/config"
	dbValkey "github.com/kailas-cloud/topicdex/internal/db/valkey"
	logpkg "github.com/kailas-cloud/topicdex/internal/logger"
	"github.com/kailas-cloud/topicdex/internal/metrics"
	"github.com/kailas-cloud/topicdex/internal/oracle"
	modelrepo "github.com/kailas-cloud/topicdex/internal/repository/model"
	chiTransport "github.com/kailas-cloud/topicdex/internal/transport/chi"
	openaiLabeler "github.com/kailas-cloud/topicdex/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/topicdex/internal/usecase/analysis"
	healthuc "github.com/kailas-cloud/topicdex/internal/usecase/health"
	"github.com/kailas-cloud/topicdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting topicdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("models_driver", cfg.Models.Driver),
		zap.Bool("labeling", cfg.Labeling.Enabled),
	)

	// Register analysis metrics explicitly (no init())
	metrics.RegisterAnalysisMetrics()

	ctx := context.Background()
	store, pinger, closeStore := buildModelStore(ctx, cfg.Models, logger)
	defer closeStore()

	// Pass nil interfaces (not typed nil pointers!) when labeling is off.
	var (
		labeler        analysisuc.Labeler
		labelerChecker healthuc.LabelerChecker
	)
	if cfg.Labeling.Enabled {
		l := openaiLabeler.NewLabeler(&openaiLabeler.Config{
			APIKey:  cfg.Labeling.APIKey,
			BaseURL: cfg.Labeling.BaseURL,
			Model:   cfg.Labeling.Model,
			Timeout: time.Duration(cfg.Labeling.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		labeler, labelerChecker = l, l
		logger.Info("Topic labeling enabled", zap.String("model", cfg.Labeling.Model))
	}

	clusterer := analysisuc.NewInstrumentedOracle(oracle.New(oracle.Config{
		Components:         cfg.Analysis.ReduceComponents,
		Normalize:          cfg.Analysis.Normalize(),
		MinSamples:         cfg.Analysis.MinSamples,
		TopNWords:          cfg.Analysis.TopNWords,
		AutoMergeThreshold: cfg.Analysis.AutoMergeThreshold,
	}), logger)

	analysisSvc := analysisuc.New(clusterer, store, labeler, analysisuc.Config{
		MaxDocuments:     cfg.Analysis.MaxDocuments,
		LabelConcurrency: cfg.Labeling.MaxConcurrency,
		LabelSamples:     cfg.Labeling.SampleDocuments,
	}, logger)
	healthSvc := healthuc.New(pinger, labelerChecker)

	server := chiTransport.NewServer(analysisSvc, healthSvc, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:      cfg.Auth.APIKeys,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		Logger:       logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildModelStore selects the snapshot store for the configured driver.
// The returned pinger is nil for in-process drivers.
func buildModelStore(
	ctx context.Context, cfg config.ModelsConfig, logger *zap.Logger,
) (analysisuc.ModelStore, healthuc.StorePinger, func()) {
	ttl := time.Duration(cfg.TTLSec) * time.Second

	switch cfg.Driver {
	case config.DriverNone:
		logger.Warn("Model storage disabled: topic lookup and reduce are unavailable")
		return nil, nil, func() {}
	case config.DriverMemory:
		return modelrepo.NewMemoryStore(cfg.MaxEntries, ttl), nil, func() {}
	case config.DriverValkey, config.DriverRedis:
		kv, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			RESP2:    cfg.Driver == config.DriverRedis,
		})
		if err != nil {
			logger.Fatal("Failed to create model store", zap.String("driver", cfg.Driver), zap.Error(err))
		}
		if err := kv.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Model store not ready", zap.Strings("addrs", cfg.Addrs), zap.Error(err))
		}
		logger.Info("Connected to model store", zap.String("driver", cfg.Driver), zap.Strings("addrs", cfg.Addrs))
		return modelrepo.NewKVStore(kv, cfg.Driver, cfg.KeyPrefix, ttl), kv, kv.Close
	default:
		logger.Fatal("Unknown models driver", zap.String("driver", cfg.Driver))
		return nil, nil, nil
	}
}
