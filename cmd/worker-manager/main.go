// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"analytics-workers/internal/catalog"
	"analytics-workers/internal/common/aws"
	"analytics-workers/internal/common/camunda"
	"analytics-workers/internal/common/config"
	"analytics-workers/internal/common/database"
	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/common/observability"
	"analytics-workers/internal/distinctcache"
	"analytics-workers/internal/executor"
	"analytics-workers/internal/feedback"
	"analytics-workers/internal/formatter"
	"analytics-workers/internal/masking"
	"analytics-workers/internal/pipeline"
	"analytics-workers/internal/querycache"
	"analytics-workers/internal/resolver"

	eq "analytics-workers/internal/workers/analytics/execute-query"
	hq "analytics-workers/internal/workers/analytics/handle-query"
	ri "analytics-workers/internal/workers/analytics/resolve-intent"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

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

	// --- Init Query Cache ---
	var store querycache.Store = querycache.NewMemoryStore()
	if cfg.Cache.Backend == "redis" {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")

		store = querycache.NewRedisStore(redisClient.Client, cfg.Cache.Prefix)
	}
	cache := querycache.New(store, config.GetDuration(cfg.Cache.TTL))

	// --- Init Pipeline Components ---
	cat := catalog.Default()

	var classifier resolver.Classifier
	if cfg.Classifier.BaseURL != "" {
		classifier = resolver.NewHTTPClassifier(
			cfg.Classifier.BaseURL,
			cfg.Classifier.APIKey,
			config.GetDuration(cfg.Classifier.Timeout),
			cfg.Classifier.MaxRetries,
			log,
		)
	}
	res := resolver.New(cat, classifier, log)
	if classifier != nil {
		res.Distinct = distinctcache.New(pg.DB, distinctcache.DefaultTTL, log)
	}

	exec := executor.New(pg.DB, config.GetDuration(cfg.Database.Postgres.QueryTimeout), log)
	form := formatter.New(cat, masking.NewMasker(cfg.Export.MaskSeed), cfg.Export.RowThreshold)

	var sink feedback.Sink = feedback.NoopSink{}
	if cfg.Feedback.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Feedback.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		sink = feedback.NewSNSSink(snsClient, cfg.Feedback.TopicARN, log)
	}

	svc := pipeline.NewService(res, cache, exec, form, sink, log)

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker

	if config.IsWorkerEnabled(cfg, ri.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, ri.TaskType)
		handler := ri.NewHandler(
			&ri.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			res, obs, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, ri.TaskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, zapLog,
		))
	}

	if config.IsWorkerEnabled(cfg, eq.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, eq.TaskType)
		handler := eq.NewHandler(
			&eq.Config{
				Timeout:   config.GetDuration(wcfg.Timeout),
				ExportDir: cfg.Export.Dir,
			},
			cache, exec, form, obs, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, eq.TaskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, zapLog,
		))
	}

	if config.IsWorkerEnabled(cfg, hq.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, hq.TaskType)
		handler := hq.NewHandler(
			&hq.Config{
				Timeout:   config.GetDuration(wcfg.Timeout),
				ExportDir: cfg.Export.Dir,
			},
			svc, obs, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient, hq.TaskType, wcfg.MaxJobsActive, config.GetDuration(wcfg.Timeout), handler, zapLog,
		))
	}

	zapLog.Info("All workers registered successfully", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  "database unreachable",
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range workers {
		w.Stop()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
