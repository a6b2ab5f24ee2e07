// cmd/citypulse/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"citypulse/internal/agent"
	"citypulse/internal/api"
	"citypulse/internal/common/config"
	"citypulse/internal/common/database"
	"citypulse/internal/common/logger"
	"citypulse/internal/common/observability"
	bv "citypulse/internal/stages/build-visuals"
	ci "citypulse/internal/stages/classify-intent"
	cm "citypulse/internal/stages/compute-metrics"
	eq "citypulse/internal/stages/execute-query"
	gs "citypulse/internal/stages/generate-sql"
	si "citypulse/internal/stages/synthesize-insight"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting citypulse...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("citypulse")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Open SQLite with retry ---
	var db *database.SQLiteClient
	err = retryWithBackoff(func() error {
		var err error
		db, err = database.NewSQLite(cfg.Database.SQLite)
		if err != nil {
			return err
		}
		return db.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "SQLite connection")
	if err != nil {
		zapLog.Fatal("sqlite failed after retries", zap.Error(err))
	}
	defer db.Close()
	zapLog.Info("SQLite connected successfully", zap.String("path", cfg.Database.SQLite.Path))

	// --- Build pipeline stages ---
	classifier := ci.NewHandler(ci.LoadConfig(), log)
	generator := gs.NewHandler(&gs.Config{
		Mode:       cfg.Provider.Mode,
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		DatafileID: cfg.Provider.DatafileID,
		Timeout:    config.GetDuration(cfg.Provider.Timeout),
	}, log)
	executor := eq.NewHandler(&eq.Config{
		MaxRows:      cfg.Pipeline.MaxRows,
		QueryTimeout: config.GetDuration(cfg.Database.SQLite.QueryTimeout),
	}, db, log)
	metricEngine := cm.NewHandler(cm.LoadConfig(), log)
	insights := si.NewHandler(si.LoadConfig(), log)
	visuals := bv.NewHandler(&bv.Config{
		MaxMarkers: cfg.Pipeline.MaxMarkers,
		TopN:       cfg.Pipeline.TopN,
	}, log)

	pipeline := agent.New(
		&agent.Config{
			TopN:      cfg.Pipeline.TopN,
			RawRowCap: cfg.Pipeline.RawRowCap,
		},
		classifier, generator, executor, metricEngine, insights, visuals,
		obs, log,
	)

	server := api.NewServer(cfg, pipeline, generator, db, log)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	zapLog.Info("citypulse ready",
		zap.String("addr", cfg.Server.Address),
		zap.String("providerMode", cfg.Provider.Mode),
		zap.Bool("providerConfigured", cfg.Provider.Enabled()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		zapLog.Error("http server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("citypulse stopped")
}
