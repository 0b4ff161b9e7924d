package middleware

import (
	"context"
	"sync"
	"time"

	"FinInfer/internal/domain/models"
	domrepo "FinInfer/internal/domain/repository"
	"FinInfer/pkg/logger"
)

// DecisionPipeline fans completed decisions out to the audit store, the
// event publisher, and any registered broadcast hooks without blocking the
// request path. Dispatch is non-blocking: when the buffer is full the record
// is dropped and counted, never the request delayed.
type DecisionPipeline struct {
	auditor   domrepo.DecisionAuditor
	publisher domrepo.DecisionPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger

	bufCh      chan models.DecisionRecord
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	mu         sync.Mutex
	broadcasts []func(models.DecisionRecord)
}

type PipelineOption func(*DecisionPipeline)

// WithBufferSize sets the dispatch buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(p *DecisionPipeline) {
		if n > 0 {
			p.bufCh = make(chan models.DecisionRecord, n)
		}
	}
}

// WithBroadcast registers a synchronous fan-out hook, called from the worker
// goroutine for every record.
func WithBroadcast(fn func(models.DecisionRecord)) PipelineOption {
	return func(p *DecisionPipeline) {
		p.broadcasts = append(p.broadcasts, fn)
	}
}

// NewDecisionPipeline creates the pipeline. Auditor and publisher may be nil
// when the corresponding backend is not configured.
func NewDecisionPipeline(auditor domrepo.DecisionAuditor, publisher domrepo.DecisionPublisher, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *DecisionPipeline {
	p := &DecisionPipeline{
		auditor:   auditor,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		bufCh:     make(chan models.DecisionRecord, 1000),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the background worker.
func (p *DecisionPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-p.stopCh:
				// drain what is already buffered before exiting
				for {
					select {
					case rec := <-p.bufCh:
						p.deliver(ctx, rec)
					default:
						return
					}
				}
			case rec := <-p.bufCh:
				p.deliver(ctx, rec)
			}
		}
	}()
}

// Stop stops the worker and waits for buffered records to drain.
func (p *DecisionPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
}

// Dispatch enqueues a record for delivery. Never blocks.
func (p *DecisionPipeline) Dispatch(rec models.DecisionRecord) {
	select {
	case p.bufCh <- rec:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
		p.log.Warn("decision pipeline buffer full, dropping record",
			logger.String("symbol", rec.Symbol))
	}
}

// CloseSinks closes the auditor and publisher. Call after Stop.
func (p *DecisionPipeline) CloseSinks() {
	if p.auditor != nil {
		if err := p.auditor.Close(); err != nil {
			p.log.Warn("auditor close error", logger.Error(err))
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			p.log.Warn("publisher close error", logger.Error(err))
		}
	}
}

func (p *DecisionPipeline) deliver(ctx context.Context, rec models.DecisionRecord) {
	start := time.Now()

	if p.auditor != nil {
		if err := p.auditor.Record(ctx, rec); err != nil {
			p.metrics.RecordError("pipeline_audit")
			p.log.Error("audit decision failed",
				logger.String("symbol", rec.Symbol), logger.Error(err))
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, rec); err != nil {
			p.metrics.RecordError("pipeline_publish")
			p.log.Error("publish decision failed",
				logger.String("symbol", rec.Symbol), logger.Error(err))
		}
	}
	for _, fn := range p.broadcasts {
		fn(rec)
	}

	p.metrics.RecordLatency("pipeline_deliver", time.Since(start).Seconds())
}
