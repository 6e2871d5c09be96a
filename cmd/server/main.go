package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doculens/internal/cache/redis"
	"doculens/internal/config"
	"doculens/internal/handler"
	"doculens/internal/inference"
	_ "doculens/internal/inference/gemini"
	_ "doculens/internal/inference/openai"
	"doculens/internal/metrics"
	"doculens/internal/pagesource"
	"doculens/internal/pipeline"
	"doculens/internal/port"
	"doculens/internal/repository/postgres"
	"doculens/internal/router"
	"doculens/internal/service"
	s3storage "doculens/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	metrics.Register()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	jobRepo := postgres.NewJobRepo(db)

	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	gateway, err := inference.NewGateway(&cfg.Inference)
	if err != nil {
		return fmt.Errorf("failed to initialize inference gateway: %w", err)
	}

	var cache port.ResultCache
	if cfg.Cache.Enabled {
		redisCache, err := redis.NewCache(&cfg.Cache)
		if err != nil {
			return fmt.Errorf("failed to initialize result cache: %w", err)
		}
		defer redisCache.Close()
		cache = redisCache
	}

	pipe := pipeline.New(gateway, pipeline.Config{
		MaxConcurrency:  cfg.Pipeline.MaxConcurrency,
		MaxRetries:      cfg.Pipeline.MaxRetries,
		MaxPages:        cfg.Pipeline.MaxPages,
		MaxOutputTokens: cfg.Inference.MaxOutputTokens,
		Temperature:     cfg.Inference.Temperature,
		CallTimeout:     cfg.Inference.Timeout(),
	})

	extractionSvc := service.NewExtractionService(jobRepo, s3Client, pagesource.New(), pipe, cache, cfg)

	extractionH := handler.NewExtractionHandler(extractionSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, extractionH, healthH)

	// Queue worker runs in-process alongside the HTTP server.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewExtractQueueWorker(jobRepo, extractionSvc, service.ExtractQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopWorker()
		<-workerDone
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	stopWorker()
	<-workerDone
	return nil
}
