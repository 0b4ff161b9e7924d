package di

import (
	"context"
	"fmt"
	"time"

	"FinInfer/internal/domain/repository"
	domsvc "FinInfer/internal/domain/service"
	"FinInfer/internal/handler/api"
	"FinInfer/internal/handler/ws"
	mid "FinInfer/internal/middleware"
	internalrepo "FinInfer/internal/repository"
	"FinInfer/internal/service/ratelimit"
	"FinInfer/internal/services/ensemble"
	"FinInfer/internal/services/local"
	"FinInfer/internal/services/remote"
	"FinInfer/internal/services/risk"
	"FinInfer/internal/usecase"
	"FinInfer/pkg/cache"
	pkgch "FinInfer/pkg/clickhouse"
	"FinInfer/pkg/config"
	xhttp "FinInfer/pkg/http"
	pkgkafka "FinInfer/pkg/kafka"
	applogger "FinInfer/pkg/logger"
	"FinInfer/pkg/metrics"
	"FinInfer/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "json"
	}
	output := cfg.Logging.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheService creates the Redis cache when configured, otherwise the
// in-memory fallback.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Redis.Enabled {
		prefix := cfg.Cache.Redis.Prefix
		if prefix == "" {
			prefix = "fininfer"
		}
		return cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(prefix),
		)
	}
	return cache.NewMemoryCache(), nil
}

// ProvideSignalCache wraps the cache service with the result TTL.
func ProvideSignalCache(svc cache.Service, cfg *config.Config) repository.SignalCache {
	if svc == nil {
		return nil
	}
	return internalrepo.NewSignalCache(svc, cfg.Cache.TTL)
}

// ProvideRemoteAnalyzer creates the remote reasoning client when enabled.
func ProvideRemoteAnalyzer(cfg *config.Config, log *applogger.Logger) domsvc.RemoteAnalyzer {
	if !cfg.Remote.Enabled {
		return nil
	}
	return remote.NewClient(remote.Config{
		APIURL:         cfg.Remote.APIURL,
		APIKey:         cfg.Remote.APIKey,
		Model:          cfg.Remote.Model,
		MaxRetries:     cfg.Remote.MaxRetries,
		RequestTimeout: cfg.Remote.RequestTimeout,
	}, log)
}

// ProvideLocalModel creates the rule-based local predictor.
func ProvideLocalModel() domsvc.Predictor {
	return local.New()
}

// ProvideEnsemble creates the ensemble predictor with its statistical
// members. Weights default to the 0.3/0.3/0.4 split when unconfigured.
func ProvideEnsemble(cfg *config.Config, log *applogger.Logger) usecase.EnsemblePredictor {
	weights := cfg.Ensemble.Weights
	if len(weights) == 0 {
		weights = map[string]float64{
			"momentum":            0.3,
			"mean_reversion":      0.3,
			"volatility_breakout": 0.4,
		}
	}
	return ensemble.New(weights, log,
		ensemble.Momentum{},
		ensemble.MeanReversion{},
		ensemble.Breakout{},
	)
}

// ProvideRiskManager creates the risk assessor.
func ProvideRiskManager(cfg *config.Config) domsvc.RiskAssessor {
	return risk.NewManager(risk.Config{
		BasePositionSize: cfg.Risk.BasePositionSize,
		MaxPositionSize:  cfg.Risk.MaxPositionSize,
		MinPositionSize:  cfg.Risk.MinPositionSize,
		StopLossPct:      cfg.Risk.StopLossPct,
		TakeProfitPct:    cfg.Risk.TakeProfitPct,
	})
}

// ProvideOrchestrator wires the routing core.
func ProvideOrchestrator(
	cfg *config.Config,
	signalCache repository.SignalCache,
	remoteAnalyzer domsvc.RemoteAnalyzer,
	localModel domsvc.Predictor,
	ensemblePredictor usecase.EnsemblePredictor,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Orchestrator {
	return usecase.NewOrchestrator(usecase.Config{
		CacheEnabled:  cfg.Cache.Enabled,
		MaxFailures:   cfg.Orchestrator.MaxFailuresBeforeFallback,
		Anonymize:     cfg.Orchestrator.Anonymize,
		FallbackLocal: cfg.Orchestrator.FallbackToLocal,
	}, signalCache, remoteAnalyzer, localModel, ensemblePredictor, m, log)
}

// ProvideAuditor creates the ClickHouse decision auditor when enabled.
func ProvideAuditor(cfg *config.Config) (repository.DecisionAuditor, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Audit.ClickHouse.Host),
		pkgch.WithPort(cfg.Audit.ClickHouse.Port),
		pkgch.WithDatabase(cfg.Audit.ClickHouse.Database),
		pkgch.WithCredentials(cfg.Audit.ClickHouse.User, cfg.Audit.ClickHouse.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	auditor, err := internalrepo.NewClickHouseAuditor(ctx, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return auditor, nil
}

// ProvidePublisher creates the Kafka decision publisher when enabled.
func ProvidePublisher(cfg *config.Config) (repository.DecisionPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Events.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.Kafka.RequiredAcks),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Events.Kafka.Topic), nil
}

// ProvideHub creates the decision WebSocket hub.
func ProvideHub(log *applogger.Logger) *ws.Hub {
	return ws.NewHub(log)
}

// ProvidePipeline creates the async decision fan-out with the hub broadcast
// attached.
func ProvidePipeline(
	auditor repository.DecisionAuditor,
	publisher repository.DecisionPublisher,
	m repository.Metrics,
	log *applogger.Logger,
	hub *ws.Hub,
) *mid.DecisionPipeline {
	return mid.NewDecisionPipeline(auditor, publisher, m, log,
		mid.WithBroadcast(hub.Broadcast),
	)
}

// ProvideRateLimiter creates the per-symbol request limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	orch *usecase.Orchestrator,
	riskAssessor domsvc.RiskAssessor,
	pipeline *mid.DecisionPipeline,
	hub *ws.Hub,
	rl *ratelimit.Limiter,
	log *applogger.Logger,
) xhttp.Handler {
	return api.NewInferenceHandler(orch, riskAssessor, pipeline, hub, rl, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	pipeline *mid.DecisionPipeline,
	hub *ws.Hub,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, log, handler, pipeline, hub, cacheSvc)
}
