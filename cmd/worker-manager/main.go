// cmd/worker-manager/main.go
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

	"paperless-workers/internal/common/aws"
	"paperless-workers/internal/common/camunda"
	"paperless-workers/internal/common/config"
	"paperless-workers/internal/common/database"
	"paperless-workers/internal/common/jobstatus"
	"paperless-workers/internal/common/llm"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/observability"
	"paperless-workers/internal/common/paperless"
	"paperless-workers/internal/common/search"
	"paperless-workers/internal/dateextract"
	"paperless-workers/internal/erp"
	"paperless-workers/internal/repository"

	// ERP Workers (2)
	cpi "paperless-workers/internal/workers/erp/create-purchase-invoice"
	cs "paperless-workers/internal/workers/erp/create-supplier"

	// Paperless Workers (4)
	eid "paperless-workers/internal/workers/paperless/extract-invoice-date"
	rar "paperless-workers/internal/workers/paperless/request-ai-response"
	sc "paperless-workers/internal/workers/paperless/sync-correspondents"
	sd "paperless-workers/internal/workers/paperless/sync-documents"
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
			delay *= 2
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

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New("worker-manager")
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if err := database.Migrate(pg.DB, cfg.Database.MigrationsPath, log); err != nil {
		zapLog.Fatal("migrations failed", zap.Error(err))
	}

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) ---
	var indexer search.Indexer = search.NoopIndexer{}
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client failed", zap.Error(err))
	}
	if es != nil {
		err = retryWithBackoff(func() error {
			return database.PingElasticsearch(ctx, es)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = search.NewESIndexer(es, cfg.Database.Elasticsearch.Index)
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Database.Elasticsearch.Index))
	}

	// --- Init Zeebe Client ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init External Service Clients ---
	var events aws.EventPublisher = aws.NoopPublisher{}
	if awsCfg := cfg.Integrations.AWS; awsCfg.SNS.Enabled {
		if events, err = aws.NewSNSPublisher(ctx, awsCfg.Region, awsCfg.SNS.TopicARN); err != nil {
			zapLog.Fatal("sns publisher failed", zap.Error(err))
		}
	}
	var reviews aws.ReviewNotifier = aws.NoopNotifier{}
	if awsCfg := cfg.Integrations.AWS; awsCfg.SES.Enabled {
		if reviews, err = aws.NewSESNotifier(ctx, awsCfg.Region, awsCfg.SES.FromEmail, awsCfg.SES.ReviewRecipients); err != nil {
			zapLog.Fatal("ses notifier failed", zap.Error(err))
		}
	}

	extractor, err := dateextract.NewExtractor(dateextract.Config{
		Keywords:      cfg.Extractor.Keywords,
		WindowSize:    cfg.Extractor.WindowSize,
		MinDate:       cfg.Extractor.MinDate,
		MaxFutureDays: cfg.Extractor.MaxFutureDays,
	})
	if err != nil {
		zapLog.Fatal("invalid extractor config", zap.Error(err))
	}

	repo := repository.New(pg.DB)
	paperlessClient := paperless.NewClient(cfg.Paperless)
	names := paperless.NewCachedLookup(paperlessClient, redis.Client,
		time.Duration(cfg.Paperless.CacheTTL)*time.Second, log)
	llmClient := llm.NewClient(cfg.LLM)
	suppliers := erp.NewSupplierService(repo, log)
	invoices := erp.NewInvoiceService(repo, suppliers, log)

	jobs := jobstatus.NewStore(redis.Client, jobstatus.DefaultTTL)

	zapLog.Info("All external service clients initialized")

	// --- START: Register Workers ---
	var started []*camunda.Worker
	register := func(taskType string, handler camunda.JobHandler) {
		wcfg := cfg.GetWorkerConfig(taskType)
		started = append(started, camunda.NewWorker(zeebe.GetClient(), taskType, handler, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
			Status:        jobs,
			Observability: obs,
		}, log))
	}
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(cfg.GetWorkerConfig(taskType).Timeout)
	}

	// --- 1. Paperless Workers (4) ---
	if cfg.IsWorkerEnabled(sd.TaskType) {
		handler := sd.NewHandler(
			&sd.Config{Timeout: timeout(sd.TaskType)},
			paperlessClient, names, repo, extractor, indexer, log,
		)
		register(sd.TaskType, handler)
	}

	if cfg.IsWorkerEnabled(eid.TaskType) {
		handler := eid.NewHandler(
			&eid.Config{
				Timeout:   timeout(eid.TaskType),
				Overwrite: cfg.GetWorkerConfig(eid.TaskType).Overwrite,
			},
			repo, extractor, indexer, log,
		)
		register(eid.TaskType, handler)
	}

	if cfg.IsWorkerEnabled(rar.TaskType) {
		handler := rar.NewHandler(
			&rar.Config{Timeout: timeout(rar.TaskType)},
			repo, llmClient, paperlessClient, events, log,
		)
		register(rar.TaskType, handler)
	}

	if cfg.IsWorkerEnabled(sc.TaskType) {
		handler := sc.NewHandler(
			&sc.Config{Timeout: timeout(sc.TaskType)},
			paperlessClient, repo, log,
		)
		register(sc.TaskType, handler)
	}

	// --- 2. ERP Workers (2) ---
	if cfg.IsWorkerEnabled(cs.TaskType) {
		handler := cs.NewHandler(
			&cs.Config{Timeout: timeout(cs.TaskType)},
			repo, suppliers, log,
		)
		register(cs.TaskType, handler)
	}

	if cfg.IsWorkerEnabled(cpi.TaskType) {
		handler := cpi.NewHandler(
			&cpi.Config{Timeout: timeout(cpi.TaskType)},
			repo, invoices, reviews, events, log,
		)
		register(cpi.TaskType, handler)
	}

	// --- END: Register Workers ---
	zapLog.Info("Workers registered", zap.Int("count", len(started)))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newServer(pg, redis, jobs, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range started {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}
