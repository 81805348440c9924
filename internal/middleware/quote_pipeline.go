package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
)

// Proc is the downstream the pipeline forwards accepted quotes to.
type Proc interface {
	Process(ctx context.Context, q *models.Quote) error
}

// QuotePipeline sits between the quote stream and the processor. It
// rejects malformed ticks, throttles per symbol, and parks quotes in a
// retry buffer when the downstream fails.
type QuotePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	maxRPS  int
	retry   chan *models.Quote

	mu       sync.Mutex
	started  bool
	lastSeen map[string]time.Time

	stop chan struct{}
}

type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	maxRPS  int
	bufSize int
}

// WithMaxRPS caps accepted quotes per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.maxRPS = n
		}
	}
}

// WithBufferSize sets the retry buffer capacity.
func WithBufferSize(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.bufSize = n
		}
	}
}

func NewQuotePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *QuotePipeline {
	cfg := &pipelineConfig{maxRPS: 20, bufSize: 1000}
	for _, opt := range opts {
		opt(cfg)
	}
	return &QuotePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   cfg.maxRPS,
		retry:    make(chan *models.Quote, cfg.bufSize),
		lastSeen: make(map[string]time.Time),
		stop:     make(chan struct{}),
	}
}

// Start launches the retry drainer. Calling Start twice is a no-op.
func (p *QuotePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.drainRetries(ctx)
}

// Stop halts the retry drainer.
func (p *QuotePipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	close(p.stop)
}

// Process validates and forwards one quote. Throttled quotes are dropped
// without error; downstream failures park the quote for retry.
func (p *QuotePipeline) Process(ctx context.Context, q *models.Quote) error {
	start := time.Now()
	if err := validateQuote(q); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.admit(q.Symbol, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, q); err != nil {
		p.metrics.RecordError("pipeline_process")
		p.park(q, "pipeline_buffer_full")
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// drainRetries replays parked quotes, backing off while the downstream
// keeps failing.
func (p *QuotePipeline) drainRetries(ctx context.Context) {
	backoff := 50 * time.Millisecond
	for {
		select {
		case <-p.stop:
			return
		case q := <-p.retry:
			if q == nil {
				continue
			}
			if err := p.proc.Process(ctx, q); err != nil {
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordError("pipeline_flush")
				time.Sleep(backoff)
				p.park(q, "pipeline_buffer_drop")
				continue
			}
			backoff = 50 * time.Millisecond
		}
	}
}

func (p *QuotePipeline) park(q *models.Quote, dropReason string) {
	select {
	case p.retry <- q:
	default:
		p.metrics.RecordError(dropReason)
	}
}

// admit enforces the per-symbol rate cap.
func (p *QuotePipeline) admit(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() || now.Sub(last) >= time.Second/time.Duration(p.maxRPS) {
		p.lastSeen[symbol] = now
		return true
	}
	return false
}

func validateQuote(q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote nil")
	}
	if q.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if q.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if q.Price <= 0 || q.Volume < 0 {
		return fmt.Errorf("non-positive price or negative volume")
	}
	return nil
}
