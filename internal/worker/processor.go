package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ProcessorConfig holds configuration for the periodic export processor
type ProcessorConfig struct {
	// Interval is how often to export (default: 15m)
	Interval time.Duration

	// MaxRetries is how many consecutive failures are retried on the short
	// RetryDelay before waiting for the next interval (default: 3)
	MaxRetries int

	// RetryDelay is the wait between retries (default: 10s)
	RetryDelay time.Duration
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		Interval:   15 * time.Minute,
		MaxRetries: 3,
		RetryDelay: 10 * time.Second,
	}
}

// Exporter performs one export.
type Exporter interface {
	Export(ctx context.Context) (bool, error)
}

// Processor exports on a ticker as a backup for lost AMQP messages and to
// refresh date-dependent views.
type Processor struct {
	exporter Exporter
	config   ProcessorConfig

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce *sync.Once
	doneCh   chan struct{}
}

// NewProcessor creates a new periodic processor
func NewProcessor(exporter Exporter, config ProcessorConfig) *Processor {
	defaults := DefaultProcessorConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	return &Processor{
		exporter: exporter,
		config:   config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.stopOnce = new(sync.Once)
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Export processor started",
		"interval", p.config.Interval,
		"max_retries", p.config.MaxRetries)

	return nil
}

// Stop gracefully stops the processor and waits for completion. It is
// safe to call concurrently; every caller waits for the same loop.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, once, done := p.stopCh, p.stopOnce, p.doneCh
	p.mu.Unlock()

	once.Do(func() { close(stopCh) })

	select {
	case <-done:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	if p.doneCh == done {
		p.running = false
	}
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.exportWithRetry(ctx, stop)
		}
	}
}

// exportWithRetry runs one export, retrying failures up to MaxRetries times.
func (p *Processor) exportWithRetry(ctx context.Context, stop <-chan struct{}) {
	for attempt := 1; ; attempt++ {
		_, err := p.exporter.Export(ctx)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Periodic export failed", "attempt", attempt, "error", err)
		if attempt >= p.config.MaxRetries {
			slog.ErrorContext(ctx, "Periodic export failed after max retries", "attempts", attempt)
			return
		}
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(p.config.RetryDelay):
		}
	}
}
