package usecase

import (
	"context"
	"sync"
	"time"

	"FinRank/internal/domain/models"
	drepo "FinRank/internal/domain/repository"
	applogger "FinRank/pkg/logger"
)

// ResultProcessor fans a finished run out to every configured sink. Sink
// failures are logged and counted, never returned.
type ResultProcessor struct {
	sinks   []drepo.ResultSink
	metrics drepo.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
	l       *applogger.Logger
}

func NewResultProcessor(metrics drepo.Metrics, timeout time.Duration, sinks ...drepo.ResultSink) *ResultProcessor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResultProcessor{sinks: sinks, metrics: metrics, timeout: timeout}
}

// SetLogger injects a structured logger.
func (p *ResultProcessor) SetLogger(l *applogger.Logger) { p.l = l.Component("result_processor") }

// Sinks lists the sink names in fan-out order.
func (p *ResultProcessor) Sinks() []string {
	names := make([]string, len(p.sinks))
	for i, s := range p.sinks {
		names[i] = s.Name()
	}
	return names
}

// Process delivers r to all sinks concurrently and waits for them.
func (p *ResultProcessor) Process(ctx context.Context, r *models.RankedResult) {
	var wg sync.WaitGroup
	for _, s := range p.sinks {
		wg.Add(1)
		go func(s drepo.ResultSink) {
			defer wg.Done()
			p.publish(ctx, s, r)
		}(s)
	}
	wg.Wait()
}

// Dispatch delivers r in the background, detached from the caller's
// context. Drain waits for outstanding deliveries.
func (p *ResultProcessor) Dispatch(r *models.RankedResult) {
	if len(p.sinks) == 0 {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.Process(ctx, r)
	}()
}

// Drain blocks until background deliveries finish or ctx expires.
func (p *ResultProcessor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ResultProcessor) publish(ctx context.Context, s drepo.ResultSink, r *models.RankedResult) {
	start := time.Now()
	err := s.Publish(ctx, r)
	p.metrics.RecordSinkPublished(s.Name(), err)
	p.metrics.RecordLatency("sink_"+s.Name(), time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordError("sink_" + s.Name())
		p.l.Error("sink publish failed",
			applogger.String("sink", s.Name()),
			applogger.String("run_id", r.RunID),
			applogger.Error(err),
		)
	}
}

// Close closes every sink.
func (p *ResultProcessor) Close() {
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			p.l.Warn("sink close", applogger.String("sink", s.Name()), applogger.Error(err))
		}
	}
}
