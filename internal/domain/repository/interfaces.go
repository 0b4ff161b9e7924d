package repository

import (
	"context"

	"FinInfer/internal/domain/models"
)

// SignalCache stores prediction results keyed by request fingerprint.
// Entries are immutable once written and expire by TTL only.
type SignalCache interface {
	Get(ctx context.Context, key string) (*models.PredictionResult, error)
	Set(ctx context.Context, key string, result *models.PredictionResult) error
	Ping(ctx context.Context) error
}

// DecisionAuditor persists completed decisions for offline analysis.
type DecisionAuditor interface {
	Record(ctx context.Context, rec models.DecisionRecord) error
	Close() error
}

// DecisionPublisher emits completed decisions to downstream consumers.
type DecisionPublisher interface {
	Publish(ctx context.Context, rec models.DecisionRecord) error
	Close() error
}

// Metrics abstracts operational metric recording.
type Metrics interface {
	RecordRequest(backend string)
	RecordCacheHit()
	RecordFallback()
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetBreakerOpen(open bool)
}
