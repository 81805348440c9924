package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
)

type captureProc struct {
	mu    sync.Mutex
	seen  []*models.Quote
	fail  bool
	calls int
}

func (p *captureProc) Process(ctx context.Context, q *models.Quote) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return errors.New("downstream unavailable")
	}
	p.seen = append(p.seen, q)
	return nil
}

func (p *captureProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordPrediction(string, string) {}
func (m *countingMetrics) RecordOverride(string) {}
func (m *countingMetrics) RecordPatternFire(string) {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func tick(symbol string, price float64) *models.Quote {
	return &models.Quote{
		Symbol:    symbol,
		Price:     price,
		Volume:    100,
		Timestamp: time.Now(),
	}
}

func TestPipelineForwardsValidQuote(t *testing.T) {
	proc := &captureProc{}
	p := NewQuotePipeline(proc, newCountingMetrics())

	if err := p.Process(context.Background(), tick("AAPL", 187.5)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := proc.count(); got != 1 {
		t.Fatalf("forwarded %d quotes, want 1", got)
	}
}

func TestPipelineRejectsMalformedQuotes(t *testing.T) {
	proc := &captureProc{}
	m := newCountingMetrics()
	p := NewQuotePipeline(proc, m)

	bad := []*models.Quote{
		nil,
		{Price: 10, Volume: 1, Timestamp: time.Now()},
		{Symbol: "AAPL", Price: 10, Volume: 1},
		{Symbol: "AAPL", Price: -1, Volume: 1, Timestamp: time.Now()},
	}
	for _, q := range bad {
		if err := p.Process(context.Background(), q); err == nil {
			t.Fatalf("expected validation error for %+v", q)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("malformed quotes reached downstream")
	}
	if m.errorCount("pipeline_validate") != len(bad) {
		t.Fatalf("pipeline_validate count = %d, want %d", m.errorCount("pipeline_validate"), len(bad))
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &captureProc{}
	m := newCountingMetrics()
	p := NewQuotePipeline(proc, m, WithMaxRPS(1))

	now := tick("AAPL", 187.5)
	if err := p.Process(context.Background(), now); err != nil {
		t.Fatalf("first quote: %v", err)
	}
	// Same symbol inside the window is dropped without error.
	if err := p.Process(context.Background(), tick("AAPL", 187.6)); err != nil {
		t.Fatalf("throttled quote should not error: %v", err)
	}
	// A different symbol has its own window.
	if err := p.Process(context.Background(), tick("MSFT", 420.0)); err != nil {
		t.Fatalf("other symbol: %v", err)
	}

	if got := proc.count(); got != 2 {
		t.Fatalf("forwarded %d quotes, want 2", got)
	}
	if m.errorCount("pipeline_throttle") != 1 {
		t.Fatalf("pipeline_throttle count = %d, want 1", m.errorCount("pipeline_throttle"))
	}
}

func TestPipelineParksOnDownstreamFailure(t *testing.T) {
	proc := &captureProc{fail: true}
	m := newCountingMetrics()
	p := NewQuotePipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), tick("AAPL", 187.5)); err == nil {
		t.Fatal("expected downstream error")
	}
	if m.errorCount("pipeline_process") != 1 {
		t.Fatalf("pipeline_process count = %d, want 1", m.errorCount("pipeline_process"))
	}

	// Recover downstream, then let the drainer replay the parked quote.
	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("parked quote was never replayed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
