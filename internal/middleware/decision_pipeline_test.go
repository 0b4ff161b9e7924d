package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinInfer/internal/domain/models"
	"FinInfer/pkg/logger"
)

type fakeAuditor struct {
	mu      sync.Mutex
	records []models.DecisionRecord
	err     error
	closed  bool
}

func (f *fakeAuditor) Record(_ context.Context, rec models.DecisionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeAuditor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeAuditor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakePublisher struct {
	mu      sync.Mutex
	records []models.DecisionRecord
	closed  bool
}

func (f *fakePublisher) Publish(_ context.Context, rec models.DecisionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordRequest(string) {}
func (m *countingMetrics) RecordCacheHit()      {}
func (m *countingMetrics) RecordFallback()      {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) SetBreakerOpen(bool)           {}

func (m *countingMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func pipelineLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func record(symbol string) models.DecisionRecord {
	return models.DecisionRecord{
		Timestamp:  time.Now(),
		Symbol:     symbol,
		Signal:     models.SignalBuy,
		Confidence: 0.8,
		Source:     models.SourceLocalRule,
		Complexity: models.ComplexitySimple,
	}
}

func TestPipelineDeliversToSinks(t *testing.T) {
	auditor := &fakeAuditor{}
	publisher := &fakePublisher{}
	p := NewDecisionPipeline(auditor, publisher, newCountingMetrics(), pipelineLogger(t))

	p.Start(context.Background())
	p.Dispatch(record("BTC"))
	p.Dispatch(record("ETH"))
	p.Stop()

	require.Equal(t, 2, auditor.count())
	assert.Equal(t, "BTC", auditor.records[0].Symbol)
	assert.Len(t, publisher.records, 2)
}

func TestPipelineStopDrainsBuffer(t *testing.T) {
	auditor := &fakeAuditor{}
	p := NewDecisionPipeline(auditor, nil, newCountingMetrics(), pipelineLogger(t))

	// Enqueue before the worker starts so the buffer is full at Stop time.
	for i := 0; i < 10; i++ {
		p.Dispatch(record("BTC"))
	}
	p.Start(context.Background())
	p.Stop()

	assert.Equal(t, 10, auditor.count(), "buffered records must survive shutdown")
}

func TestPipelineDropsWhenBufferFull(t *testing.T) {
	metrics := newCountingMetrics()
	p := NewDecisionPipeline(nil, nil, metrics, pipelineLogger(t), WithBufferSize(2))

	// Worker not started: the third record has nowhere to go.
	p.Dispatch(record("BTC"))
	p.Dispatch(record("ETH"))
	p.Dispatch(record("SOL"))

	assert.Equal(t, 1, metrics.errorCount("pipeline_buffer_full"))
}

func TestPipelineAuditFailureDoesNotStopPublishing(t *testing.T) {
	auditor := &fakeAuditor{err: errors.New("clickhouse down")}
	publisher := &fakePublisher{}
	metrics := newCountingMetrics()
	p := NewDecisionPipeline(auditor, publisher, metrics, pipelineLogger(t))

	p.Start(context.Background())
	p.Dispatch(record("BTC"))
	p.Stop()

	assert.Len(t, publisher.records, 1)
	assert.Equal(t, 1, metrics.errorCount("pipeline_audit"))
}

func TestPipelineBroadcastHook(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	p := NewDecisionPipeline(nil, nil, newCountingMetrics(), pipelineLogger(t),
		WithBroadcast(func(rec models.DecisionRecord) {
			mu.Lock()
			seen = append(seen, rec.Symbol)
			mu.Unlock()
		}))

	p.Start(context.Background())
	p.Dispatch(record("BTC"))
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"BTC"}, seen)
}

func TestPipelineCloseSinks(t *testing.T) {
	auditor := &fakeAuditor{}
	publisher := &fakePublisher{}
	p := NewDecisionPipeline(auditor, publisher, newCountingMetrics(), pipelineLogger(t))

	p.Start(context.Background())
	p.Stop()
	p.CloseSinks()

	assert.True(t, auditor.closed)
	assert.True(t, publisher.closed)
}
