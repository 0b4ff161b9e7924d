package usecase

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"FinInfer/internal/domain/models"
	"FinInfer/internal/domain/repository"
	domsvc "FinInfer/internal/domain/service"
	"FinInfer/internal/services/classifier"
	"FinInfer/internal/services/privacy"
	"FinInfer/pkg/cache"
	"FinInfer/pkg/logger"
)

const cacheKeyPrefix = "ai_signal:"

// Config tunes routing and degradation behavior.
type Config struct {
	CacheEnabled   bool
	MaxFailures    int  // consecutive remote failures before the breaker opens
	Anonymize      bool // strip non-whitelisted fields before remote calls
	FallbackLocal  bool // route to the local model when the remote path fails
	RemoteDisabled bool // no remote client configured
}

// Orchestrator routes each inference request to the cheapest backend that can
// serve it: cache, local rule model, ensemble, or the remote reasoning API.
// Remote failures trip a circuit breaker that only a remote success resets.
type Orchestrator struct {
	cfg        Config
	cache      repository.SignalCache
	remote     domsvc.RemoteAnalyzer
	local      domsvc.Predictor
	ensemble   EnsemblePredictor
	anonymizer *privacy.Anonymizer
	metrics    repository.Metrics
	log        *logger.Logger

	mu    sync.Mutex
	stats counters
}

// EnsemblePredictor is the ensemble backend surface the orchestrator needs.
type EnsemblePredictor interface {
	Predict(features models.FeatureVector, history []models.FeatureVector) (models.PredictionResult, models.EnsembleConsensus)
}

type counters struct {
	totalRequests       int64
	cacheHits           int64
	remoteCalls         int64
	localCalls          int64
	ensembleCalls       int64
	fallbackCalls       int64
	errors              int64
	consecutiveFailures int
}

func NewOrchestrator(
	cfg Config,
	signalCache repository.SignalCache,
	remote domsvc.RemoteAnalyzer,
	local domsvc.Predictor,
	ensemblePredictor EnsemblePredictor,
	metrics repository.Metrics,
	log *logger.Logger,
) *Orchestrator {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if remote == nil {
		cfg.RemoteDisabled = true
	}
	return &Orchestrator{
		cfg:        cfg,
		cache:      signalCache,
		remote:     remote,
		local:      local,
		ensemble:   ensemblePredictor,
		anonymizer: privacy.NewAnonymizer(),
		metrics:    metrics,
		log:        log,
	}
}

// Infer produces a trading decision for the request. It never returns an
// error for remote-path failures; those degrade to the local model. The only
// error cases are an invalid model_type override, which the HTTP layer
// already rejects, and a nil local backend.
func (o *Orchestrator) Infer(ctx context.Context, req *models.InferenceRequest) (*models.PredictionResult, error) {
	start := time.Now()
	snapshot := req.Snapshot()
	features := models.FeatureVector(req.Features)

	o.mu.Lock()
	o.stats.totalRequests++
	o.mu.Unlock()

	key := fingerprint(snapshot, features)

	if o.cfg.CacheEnabled && o.cache != nil {
		if cached := o.cacheLookup(ctx, key); cached != nil {
			o.markCacheHit()
			annotate(cached, cached.Metadata.Complexity, cached.Metadata.ClassificationReason, start, true)
			return cached, nil
		}
	}

	complexity, reason := o.route(req, snapshot, features)

	var result models.PredictionResult
	switch complexity {
	case models.ComplexityComplex:
		result = o.inferRemote(ctx, req, snapshot, features)
	case "ensemble":
		result = o.inferEnsemble(features)
	default:
		var err error
		result, err = o.inferLocal(snapshot, features)
		if err != nil {
			return nil, err
		}
	}

	annotate(&result, normalizeComplexity(complexity), reason, start, false)

	if o.cfg.CacheEnabled && o.cache != nil {
		if err := o.cache.Set(ctx, key, &result); err != nil {
			o.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
		}
	}

	return &result, nil
}

// route resolves the model_type override, falling back to scenario
// classification when the override is "auto" or absent.
func (o *Orchestrator) route(req *models.InferenceRequest, snapshot models.MarketSnapshot, features models.FeatureVector) (complexity, reason string) {
	switch req.ModelType {
	case "local":
		return models.ComplexitySimple, "forced by model_type override"
	case "remote":
		return models.ComplexityComplex, "forced by model_type override"
	case "ensemble":
		return "ensemble", "forced by model_type override"
	}
	return classifier.Classify(snapshot, features)
}

func (o *Orchestrator) inferLocal(snapshot models.MarketSnapshot, features models.FeatureVector) (models.PredictionResult, error) {
	if o.local == nil {
		return models.PredictionResult{}, errors.New("local model is not configured")
	}
	result, err := o.local.Predict(snapshot, features)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("local predict: %w", err)
	}

	o.mu.Lock()
	o.stats.localCalls++
	o.mu.Unlock()
	o.metrics.RecordRequest(models.SourceLocalRule)

	return result, nil
}

func (o *Orchestrator) inferEnsemble(features models.FeatureVector) models.PredictionResult {
	result, consensus := o.ensemble.Predict(features, nil)

	o.mu.Lock()
	o.stats.ensembleCalls++
	o.mu.Unlock()
	o.metrics.RecordRequest(models.SourceEnsemble)

	o.log.Debug("ensemble consensus",
		logger.Any("consensus", consensus),
		logger.String("signal", string(result.Signal)))
	return result
}

// inferRemote runs the gated remote path. A privacy violation aborts before
// any network call and does not count against the breaker; transport and
// parse failures do.
func (o *Orchestrator) inferRemote(ctx context.Context, req *models.InferenceRequest, snapshot models.MarketSnapshot, features models.FeatureVector) models.PredictionResult {
	if o.cfg.RemoteDisabled {
		return o.fallback(ctx, snapshot, features, "remote backend disabled")
	}

	o.mu.Lock()
	breakerOpen := o.stats.consecutiveFailures >= o.cfg.MaxFailures
	o.mu.Unlock()
	if breakerOpen {
		return o.fallback(ctx, snapshot, features, "circuit breaker open")
	}

	if ok, fields := privacy.Validate(outboundPayload(snapshot, features, req.Sentiment, req.OnChain)); !ok {
		err := &models.SensitiveDataError{Fields: fields}
		o.log.Warn("remote call blocked by privacy gate", logger.Error(err))
		o.metrics.RecordError("privacy")
		return o.fallback(ctx, snapshot, features, "privacy gate rejected payload")
	}

	safeSnapshot, safeFeatures, sentiment, onChain := snapshot, features, req.Sentiment, req.OnChain
	if o.cfg.Anonymize {
		safeSnapshot, safeFeatures, sentiment, onChain = o.anonymizer.Anonymize(snapshot, features, req.Sentiment, req.OnChain)
	}

	result, err := o.remote.Analyze(ctx, safeSnapshot, safeFeatures, sentiment, onChain)
	if err != nil {
		o.mu.Lock()
		o.stats.errors++
		o.stats.consecutiveFailures++
		opened := o.stats.consecutiveFailures >= o.cfg.MaxFailures
		o.mu.Unlock()
		if opened {
			o.metrics.SetBreakerOpen(true)
		}
		o.metrics.RecordError(errorKind(err))
		o.log.Error("remote analysis failed", logger.String("symbol", snapshot.Symbol), logger.Error(err))
		return o.fallback(ctx, snapshot, features, "remote call failed")
	}

	o.mu.Lock()
	o.stats.remoteCalls++
	o.stats.consecutiveFailures = 0
	o.mu.Unlock()
	o.metrics.SetBreakerOpen(false)
	o.metrics.RecordRequest(models.SourceRemote)

	return result
}

// fallback serves the request from the local model when the remote path is
// unavailable. With fallback disabled it still degrades to a neutral HOLD
// rather than failing the request.
func (o *Orchestrator) fallback(_ context.Context, snapshot models.MarketSnapshot, features models.FeatureVector, why string) models.PredictionResult {
	o.mu.Lock()
	o.stats.fallbackCalls++
	o.mu.Unlock()
	o.metrics.RecordFallback()

	if !o.cfg.FallbackLocal || o.local == nil {
		return models.PredictionResult{
			Signal:        models.SignalHold,
			Confidence:    0.5,
			Probabilities: models.Probabilities{Buy: 0.33, Hold: 0.34, Sell: 0.33},
			PositionSize:  0.1,
			Reasoning:     "degraded: " + why,
			Source:        models.SourceLocalRule,
		}
	}

	result, err := o.local.Predict(snapshot, features)
	if err != nil {
		o.mu.Lock()
		o.stats.errors++
		o.mu.Unlock()
		return models.PredictionResult{
			Signal:        models.SignalHold,
			Confidence:    0.5,
			Probabilities: models.Probabilities{Buy: 0.33, Hold: 0.34, Sell: 0.33},
			PositionSize:  0.1,
			Reasoning:     "degraded: " + why,
			Source:        models.SourceLocalRule,
		}
	}

	o.mu.Lock()
	o.stats.localCalls++
	o.mu.Unlock()
	o.metrics.RecordRequest(models.SourceLocalRule)

	result.Reasoning = result.Reasoning + " (fallback: " + why + ")"
	return result
}

func (o *Orchestrator) cacheLookup(ctx context.Context, key string) *models.PredictionResult {
	result, err := o.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			o.log.Warn("cache read failed", logger.String("key", key), logger.Error(err))
		}
		return nil
	}
	if result == nil || result.Metadata == nil {
		return nil
	}
	copied := *result
	meta := *result.Metadata
	copied.Metadata = &meta
	return &copied
}

func (o *Orchestrator) markCacheHit() {
	o.mu.Lock()
	o.stats.cacheHits++
	o.mu.Unlock()
	o.metrics.RecordCacheHit()
}

// Stats returns a snapshot of the orchestrator counters with derived rates.
func (o *Orchestrator) Stats() models.StatsSnapshot {
	o.mu.Lock()
	c := o.stats
	o.mu.Unlock()

	snap := models.StatsSnapshot{
		TotalRequests:       c.totalRequests,
		CacheHits:           c.cacheHits,
		RemoteCalls:         c.remoteCalls,
		LocalCalls:          c.localCalls,
		EnsembleCalls:       c.ensembleCalls,
		FallbackCalls:       c.fallbackCalls,
		Errors:              c.errors,
		ConsecutiveFailures: c.consecutiveFailures,
	}
	if c.totalRequests > 0 {
		total := float64(c.totalRequests)
		snap.CacheHitRate = rate(c.cacheHits, total)
		snap.RemoteUsageRate = rate(c.remoteCalls, total)
		snap.LocalUsageRate = rate(c.localCalls, total)
		snap.FallbackRate = rate(c.fallbackCalls, total)
		snap.ErrorRate = rate(c.errors, total)
	}
	return snap
}

// Health reports component availability. The service stays up in degraded
// mode as long as the local model can answer.
func (o *Orchestrator) Health(ctx context.Context) models.HealthReport {
	components := map[string]string{
		"local_model": "healthy",
	}
	degraded := false

	o.mu.Lock()
	breakerOpen := o.stats.consecutiveFailures >= o.cfg.MaxFailures
	o.mu.Unlock()

	switch {
	case o.cfg.RemoteDisabled:
		components["remote_api"] = "disabled"
	case breakerOpen:
		components["remote_api"] = "circuit breaker open"
		degraded = true
	default:
		components["remote_api"] = "healthy"
	}

	if o.cfg.CacheEnabled && o.cache != nil {
		if err := o.cache.Ping(ctx); err != nil {
			components["cache"] = "unreachable"
			degraded = true
		} else {
			components["cache"] = "healthy"
		}
	} else {
		components["cache"] = "disabled"
	}

	status := "healthy"
	if degraded {
		status = "degraded"
	}
	return models.HealthReport{
		Status:     status,
		Components: components,
		Timestamp:  time.Now().Unix(),
	}
}

// fingerprint derives the cache key from the economically meaningful request
// fields: symbol, price, and features, each rounded to two decimals so that
// sub-cent noise does not defeat caching. Map keys serialize sorted, so the
// key is deterministic for equivalent requests.
func fingerprint(snapshot models.MarketSnapshot, features models.FeatureVector) string {
	rounded := make(map[string]float64, len(features))
	for name, value := range features {
		rounded[name] = round2(value)
	}
	payload, _ := json.Marshal(struct {
		Symbol   string             `json:"symbol"`
		Price    float64            `json:"price"`
		Features map[string]float64 `json:"features"`
	}{
		Symbol:   snapshot.Symbol,
		Price:    round2(snapshot.Price),
		Features: rounded,
	})
	sum := md5.Sum(payload)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func outboundPayload(snapshot models.MarketSnapshot, features models.FeatureVector, sentiment, onChain map[string]any) map[string]any {
	featureAny := make(map[string]any, len(features))
	for name, value := range features {
		featureAny[name] = value
	}
	payload := map[string]any{
		"symbol":   snapshot.Symbol,
		"price":    snapshot.Price,
		"features": featureAny,
	}
	if sentiment != nil {
		payload["sentiment_data"] = sentiment
	}
	if onChain != nil {
		payload["on_chain_data"] = onChain
	}
	return payload
}

func annotate(result *models.PredictionResult, complexity, reason string, start time.Time, cached bool) {
	result.Metadata = &models.ResultMetadata{
		Complexity:           complexity,
		ClassificationReason: reason,
		ResponseTimeMs:       time.Since(start).Milliseconds(),
		Cached:               cached,
	}
}

// normalizeComplexity maps the internal ensemble route tag back onto the two
// public complexity labels.
func normalizeComplexity(complexity string) string {
	if complexity == "ensemble" {
		return models.ComplexityComplex
	}
	return complexity
}

func errorKind(err error) string {
	var parseErr *models.ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	return "remote_api"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func rate(n int64, total float64) float64 {
	return math.Round(float64(n)/total*10000) / 100
}
