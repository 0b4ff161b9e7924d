package models

import "time"

// StatsSnapshot is a point-in-time copy of the orchestrator counters.
type StatsSnapshot struct {
	TotalRequests       int64   `json:"total_requests"`
	CacheHits           int64   `json:"cache_hits"`
	RemoteCalls         int64   `json:"remote_calls"`
	LocalCalls          int64   `json:"local_calls"`
	EnsembleCalls       int64   `json:"ensemble_calls"`
	FallbackCalls       int64   `json:"fallback_calls"`
	Errors              int64   `json:"errors"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
	CacheHitRate        float64 `json:"cache_hit_rate"`    // percent
	RemoteUsageRate     float64 `json:"remote_usage_rate"` // percent
	LocalUsageRate      float64 `json:"local_usage_rate"`  // percent
	FallbackRate        float64 `json:"fallback_rate"`     // percent
	ErrorRate           float64 `json:"error_rate"`        // percent
}

// HealthReport describes per-component availability. Degraded operation is
// surfaced here, never through a failed inference call.
type HealthReport struct {
	Status     string            `json:"status"` // healthy | degraded
	Components map[string]string `json:"components"`
	Timestamp  int64             `json:"timestamp"`
}

// DecisionRecord is the audit/event view of one completed inference.
type DecisionRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Symbol     string    `json:"symbol"`
	Signal     Signal    `json:"signal"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"`
	Complexity string    `json:"complexity"`
	Cached     bool      `json:"cached"`
	RiskScore  float64   `json:"risk_score"`
	ElapsedMs  int64     `json:"elapsed_ms"`
}
