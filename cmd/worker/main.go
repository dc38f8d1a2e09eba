// The worker runs the content pipeline: scheduled collection passes over
// all active sources and classification passes over the collected backlog.
package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"localwire/internal/config"
	pgRepo "localwire/internal/infra/adapter/persistence/postgres"
	"localwire/internal/infra/classifier"
	"localwire/internal/infra/collector"
	"localwire/internal/infra/db"
	"localwire/internal/infra/fetcher"
	workerPkg "localwire/internal/infra/worker"
	"localwire/internal/observability/logging"
	"localwire/internal/resilience/circuitbreaker"
	"localwire/internal/usecase/classify"
	"localwire/internal/usecase/collect"
	"localwire/internal/usecase/health"
	"localwire/internal/usecase/match"
	"localwire/internal/usecase/route"
)

const (
	collectionJob     = "collection"
	classificationJob = "classification"

	// Hard ceilings per run; schedules tighter than these would overlap.
	collectionJobTimeout     = 10 * time.Minute
	classificationJobTimeout = 15 * time.Minute
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg := config.Load()

	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobMetrics := workerPkg.NewJobMetrics()
	startMetricsServer(ctx, logger, cfg.Metrics.Addr)

	healthServer := workerPkg.NewHealthServer(healthAddr(), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	// All repository access goes through the database circuit breaker.
	guardedDB := circuitbreaker.NewDBCircuitBreaker(database)

	collectSvc := setupCollection(logger, guardedDB, cfg)
	classifySvc, err := setupClassification(logger, guardedDB, cfg)
	if err != nil {
		logger.Error("failed to set up classification", slog.Any("error", err))
		os.Exit(1)
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Collection.Schedule, func() {
		runCollectionJob(logger, collectSvc, jobMetrics)
	})
	if err != nil {
		logger.Error("invalid collection schedule",
			slog.String("schedule", cfg.Collection.Schedule), slog.Any("error", err))
		os.Exit(1)
	}
	_, err = c.AddFunc(cfg.Classification.Schedule, func() {
		runClassificationJob(logger, classifySvc, jobMetrics)
	})
	if err != nil {
		logger.Error("invalid classification schedule",
			slog.String("schedule", cfg.Classification.Schedule), slog.Any("error", err))
		os.Exit(1)
	}

	c.Start()
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("collection_schedule", cfg.Collection.Schedule),
		slog.String("classification_schedule", cfg.Classification.Schedule))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	// Let in-flight jobs finish before exiting.
	<-c.Stop().Done()
	logger.Info("worker stopped")
}

// setupCollection wires the collection service: repositories, health
// tracking, and the per-source-type adapters with optional content
// enhancement for thin feed bodies.
func setupCollection(logger *slog.Logger, database pgRepo.DB, cfg config.Config) *collect.Service {
	sourceRepo := pgRepo.NewSourceRepo(database)
	contentRepo := pgRepo.NewRawContentRepo(database)
	tracker := health.NewTracker(sourceRepo)

	factory := collector.NewFactory(
		newCollectorHTTPClient(cfg.Collection.HTTPTimeout.Std()),
		cfg.Collection.RenderScript,
		cfg.Collection.RenderTimeout.Std(),
	)

	fetchCfg, err := fetcher.LoadConfigFromEnv()
	if err != nil {
		logger.Warn("content enhancement disabled due to configuration error",
			slog.Any("error", err))
		fetchCfg.Enabled = false
	}
	if fetchCfg.Enabled {
		factory.EnableContentEnhancement(fetcher.NewReadabilityFetcher(fetchCfg), fetchCfg.Threshold)
		logger.Info("content enhancement enabled",
			slog.Int("threshold", fetchCfg.Threshold),
			slog.Duration("timeout", fetchCfg.Timeout))
	} else {
		logger.Info("content enhancement disabled")
	}

	return collect.NewService(sourceRepo, contentRepo, factory, tracker, cfg.Collection.PoolSize)
}

// setupClassification wires the classification service: the AI backend,
// business matching, opportunity routing, and rate limiting.
func setupClassification(logger *slog.Logger, database pgRepo.DB, cfg config.Config) (*classify.Service, error) {
	contentRepo := pgRepo.NewRawContentRepo(database)
	sourceRepo := pgRepo.NewSourceRepo(database)
	businessRepo := pgRepo.NewBusinessRepo(database)
	mentionRepo := pgRepo.NewMentionRepo(database)
	opportunityRepo := pgRepo.NewOpportunityRepo(database)

	classifierCfg := classifier.LoadConfig()
	completer, err := classifier.New(classifierCfg)
	if err != nil {
		return nil, err
	}
	logger.Info("classifier backend initialized",
		slog.String("backend", classifierCfg.Backend))

	matcher := match.NewMatcher(businessRepo,
		match.NewCandidateCache(cfg.Matcher.CandidateCacheTTL.Std()))
	router := route.NewRouter(mentionRepo, opportunityRepo, matcher)

	var limiter *rate.Limiter
	if rpm := cfg.Classification.RequestsPerMinute; rpm > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}

	return classify.NewService(
		contentRepo,
		sourceRepo,
		completer,
		matcher,
		router,
		limiter,
		cfg.Classification.PoolSize,
		cfg.Classification.BatchSize,
	), nil
}

func runCollectionJob(logger *slog.Logger, svc *collect.Service, metrics *workerPkg.JobMetrics) {
	start := time.Now()
	metrics.RecordJobRun(collectionJob, "started")
	logger.Info("collection pass started")

	ctx, cancel := context.WithTimeout(context.Background(), collectionJobTimeout)
	defer cancel()

	stats, err := svc.CollectAll(ctx)
	if err != nil {
		logger.Error("collection pass failed", slog.Any("error", err))
		metrics.RecordJobRun(collectionJob, "failure")
		metrics.RecordJobDuration(collectionJob, time.Since(start).Seconds())
		return
	}

	metrics.RecordJobRun(collectionJob, "success")
	metrics.RecordJobDuration(collectionJob, time.Since(start).Seconds())
	metrics.RecordLastSuccess(collectionJob)

	logger.Info("collection pass completed",
		slog.Int("sources", stats.Sources),
		slog.Int("succeeded", stats.Succeeded),
		slog.Int("failed", stats.Failed),
		slog.Int("stored", stats.Stored),
		slog.Int("duplicates", stats.Duplicates),
		slog.Duration("duration", stats.Duration))
}

func runClassificationJob(logger *slog.Logger, svc *classify.Service, metrics *workerPkg.JobMetrics) {
	start := time.Now()
	metrics.RecordJobRun(classificationJob, "started")
	logger.Info("classification pass started")

	ctx, cancel := context.WithTimeout(context.Background(), classificationJobTimeout)
	defer cancel()

	stats, err := svc.ClassifyPending(ctx)
	if err != nil {
		logger.Error("classification pass failed", slog.Any("error", err))
		metrics.RecordJobRun(classificationJob, "failure")
		metrics.RecordJobDuration(classificationJob, time.Since(start).Seconds())
		return
	}

	metrics.RecordJobRun(classificationJob, "success")
	metrics.RecordJobDuration(classificationJob, time.Since(start).Seconds())
	metrics.RecordLastSuccess(classificationJob)

	logger.Info("classification pass completed",
		slog.Int("processed", stats.Processed),
		slog.Int("classified", stats.Classified),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))
}

// newCollectorHTTPClient builds the shared outbound client for feed and
// page fetches. TLS 1.2+ is enforced.
func newCollectorHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

// healthAddr returns the probe server address, overridable via
// WORKER_HEALTH_ADDR.
func healthAddr() string {
	if addr := os.Getenv("WORKER_HEALTH_ADDR"); addr != "" {
		return addr
	}
	return ":9091"
}
