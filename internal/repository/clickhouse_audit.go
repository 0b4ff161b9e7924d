package repository

import (
	"context"
	"fmt"

	"FinInfer/internal/domain/models"
	domrepo "FinInfer/internal/domain/repository"
	"FinInfer/pkg/clickhouse"
)

const decisionsSchema = `
CREATE TABLE IF NOT EXISTS inference_decisions (
    ts          DateTime64(3) CODEC(Delta, ZSTD),
    symbol      LowCardinality(String),
    signal      LowCardinality(String),
    confidence  Float64,
    source      LowCardinality(String),
    complexity  LowCardinality(String),
    cached      UInt8,
    risk_score  Float64,
    elapsed_ms  Int64
) ENGINE = MergeTree()
ORDER BY (symbol, ts)
TTL toDateTime(ts) + INTERVAL 90 DAY
`

const insertDecision = `
INSERT INTO inference_decisions
    (ts, symbol, signal, confidence, source, complexity, cached, risk_score, elapsed_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// ClickHouseAuditor persists completed decisions for offline analysis.
type ClickHouseAuditor struct {
	client *clickhouse.Client
}

// NewClickHouseAuditor ensures the decisions table exists and returns the
// auditor.
func NewClickHouseAuditor(ctx context.Context, client *clickhouse.Client) (*ClickHouseAuditor, error) {
	if err := client.InitSchema(ctx, []string{decisionsSchema}); err != nil {
		return nil, fmt.Errorf("decisions schema: %w", err)
	}
	return &ClickHouseAuditor{client: client}, nil
}

func (a *ClickHouseAuditor) Record(ctx context.Context, rec models.DecisionRecord) error {
	cached := uint8(0)
	if rec.Cached {
		cached = 1
	}
	_, err := a.client.DB().ExecContext(ctx, insertDecision,
		rec.Timestamp,
		rec.Symbol,
		string(rec.Signal),
		rec.Confidence,
		rec.Source,
		rec.Complexity,
		cached,
		rec.RiskScore,
		rec.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (a *ClickHouseAuditor) Close() error {
	return a.client.Close()
}

var _ domrepo.DecisionAuditor = (*ClickHouseAuditor)(nil)
