// Command worker is the judge worker process: it claims jobs off the
// submission queue, runs them through the sandbox, and persists and
// publishes their outcome, until told to stop.
//
// Adapted from the teacher's cmd/server/main.go wiring-and-signal-select
// shape, trimmed to a headless process (no gin router, no public API)
// with a small /healthz and /metrics HTTP surface in place of the
// teacher's full REST API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"judgeworker/internal/config"
	"judgeworker/internal/judge"
	"judgeworker/internal/logging"
	"judgeworker/internal/metrics"
	"judgeworker/internal/objectstore"
	"judgeworker/internal/queue"
	"judgeworker/internal/resilience"
	"judgeworker/internal/sandbox"
	"judgeworker/internal/store"
	"judgeworker/internal/testcase"
	"judgeworker/internal/workerloop"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logOutput := openLogOutput(cfg)
	logger := logging.New("judge-worker", logging.INFO, logOutput)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoStore, err := store.Connect(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoStore.Close(context.Background())

	redisQueue, closeRedis, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer closeRedis()

	objStore, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		log.Fatalf("failed to create object store resolver: %v", err)
	}

	breakers := resilience.New()
	testCaseClient := testcase.New(cfg.TestCaseAPIFormat)
	sandboxRunner := sandbox.New()
	metricsRegistry := metrics.New()

	resilientTestCases := &resilientFetcher{client: testCaseClient, breakers: breakers}
	resilientResultStore := &resilientStore{store: mongoStore, breakers: breakers}

	processor := judge.New(
		redisQueue,
		resilientResultStore,
		resilientTestCases,
		objStore,
		judge.NewSandboxAdapter(sandboxRunner),
		cfg.QueueKey,
		logger,
		metricsRegistry,
		cfg.DefaultTimeMs,
		cfg.DefaultMemoryMb,
	)

	loops := make([]*workerloop.Loop, cfg.WorkerCount)
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		loops[i] = workerloop.New(processor, logger, metricsRegistry, 5*time.Second, 30*time.Second)
		wg.Add(1)
		go func(l *workerloop.Loop) {
			defer wg.Done()
			l.Run(ctx)
		}(loops[i])
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metricsRegistry.Handler())

	httpServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: mux,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", map[string]any{"port": cfg.MetricsPort})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server failed: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Error("service error, shutting down", map[string]any{"error": err.Error()})
	case <-quit:
		logger.Info("shutdown signal received", nil)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server forced to shutdown", map[string]any{"error": err.Error()})
	}

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		logger.Info("worker loops drained cleanly", nil)
	case <-shutdownCtx.Done():
		logger.Warn("shutdown grace period elapsed before loops drained", nil)
	}

	logger.Info("judge worker stopped", nil)
}

func openLogOutput(cfg *config.Config) *os.File {
	if cfg.LogFilePath == "" {
		return os.Stdout
	}
	if cfg.LogDir != "" {
		os.MkdirAll(cfg.LogDir, 0o755)
	}
	f, err := os.OpenFile(cfg.LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("failed to open log file %s, falling back to stdout: %v", cfg.LogFilePath, err)
		return os.Stdout
	}
	return f
}

