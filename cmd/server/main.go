package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Brownie44l1/food-calorie-api/internal/archive"
	"github.com/Brownie44l1/food-calorie-api/internal/calories"
	"github.com/Brownie44l1/food-calorie-api/internal/config"
	"github.com/Brownie44l1/food-calorie-api/internal/handlers"
	"github.com/Brownie44l1/food-calorie-api/internal/history"
	"github.com/Brownie44l1/food-calorie-api/internal/logger"
	"github.com/Brownie44l1/food-calorie-api/internal/metrics"
	"github.com/Brownie44l1/food-calorie-api/internal/model"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	appLogger, logCloser, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	slog.SetDefault(appLogger)

	err = run(cfg, appLogger)
	if err != nil {
		appLogger.Error("server stopped", "error", err)
	}
	logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := calories.LoadTable(cfg.CalorieTablePath)
	if err != nil {
		return err
	}

	opts := handlers.Options{
		Table:          table,
		Metrics:        metrics.New(),
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}

	// A model that fails to load leaves the API up; /predict reports it.
	logger.Info("loading model", "model", cfg.ModelPath, "metadata", cfg.MetadataPath)
	modelServer, err := model.NewServer(cfg.ModelPath, cfg.MetadataPath, cfg.SharedLibraryPath, model.Options{
		ConfidenceThreshold: float32(cfg.ConfidenceThreshold),
		IoUThreshold:        float32(cfg.IoUThreshold),
		MaxDetections:       cfg.MaxDetections,
	})
	if err != nil {
		logger.Error("failed to load model", "error", err)
	} else {
		defer modelServer.Close()
		opts.Detector = modelServer
		logger.Info("model loaded", "classes", modelServer.Classes())
	}

	if cfg.DatabasePath != "" {
		db, err := history.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Store = history.NewRepository(db)
		logger.Info("prediction history enabled", "path", cfg.DatabasePath)
	}

	if cfg.GCSBucket != "" {
		gcs, err := archive.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			return err
		}
		defer gcs.Close()
		opts.Archiver = gcs
		logger.Info("upload archiving enabled", "bucket", cfg.GCSBucket)
	}

	handler := handlers.NewHandler(opts)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.Routes(cfg.AllowedOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		logger.Info(fmt.Sprintf("upload test: curl -X POST -F \"file=@makanan.jpg\" http://localhost:%d/predict/", cfg.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
