package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"FinRank/internal/domain/models"
	drepo "FinRank/internal/domain/repository"
	"FinRank/internal/domain/service"
	applogger "FinRank/pkg/logger"
)

// RankingUseCase stamps engine results with a run id and hands them to the
// result processor. It is shared by the HTTP API, the Kafka intake and the
// CLI.
type RankingUseCase struct {
	engine    service.RankingEngine
	processor *ResultProcessor
	metrics   drepo.Metrics
	timeout   time.Duration
	now       func() time.Time
	l         *applogger.Logger
}

func NewRankingUseCase(engine service.RankingEngine, processor *ResultProcessor, metrics drepo.Metrics, timeout time.Duration) *RankingUseCase {
	return &RankingUseCase{
		engine:    engine,
		processor: processor,
		metrics:   metrics,
		timeout:   timeout,
		now:       time.Now,
	}
}

// SetLogger injects a structured logger.
func (u *RankingUseCase) SetLogger(l *applogger.Logger) { u.l = l.Component("ranking") }

// Rank runs the engine under the configured timeout. Delivery to sinks
// happens in the background and never affects the returned result.
func (u *RankingUseCase) Rank(ctx context.Context, req models.RankRequest) (models.RankedResult, error) {
	start := time.Now()
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	res, err := u.engine.Rank(ctx, req)
	if err != nil {
		u.metrics.RecordError(errorKind(err))
		return models.RankedResult{}, err
	}
	res.RunID = uuid.NewString()
	res.GeneratedAt = u.now().UTC()

	u.metrics.RecordRun(&res)
	u.metrics.RecordLatency("rank", time.Since(start).Seconds())
	u.l.Info("ranking run",
		applogger.String("run_id", res.RunID),
		applogger.String("regime", string(res.Regime.Label)),
		applogger.Float64("confidence", res.Regime.Confidence),
		applogger.Int("candidates", len(req.Candidates)),
		applogger.Int("picks", len(res.Picks)),
		applogger.Int("shortfalls", len(res.QuotaShortfalls)),
		applogger.Duration("duration_ms", time.Since(start)),
	)

	if u.processor != nil {
		out := res
		u.processor.Dispatch(&out)
	}
	return res, nil
}

func (u *RankingUseCase) DetectRegime(signals []models.MarketSignal) (models.RegimeState, error) {
	start := time.Now()
	st, err := u.engine.DetectRegime(signals)
	if err != nil {
		u.metrics.RecordError(errorKind(err))
		return models.RegimeState{}, err
	}
	u.metrics.RecordLatency("detect_regime", time.Since(start).Seconds())
	return st, nil
}

// Drain waits for background sink deliveries.
func (u *RankingUseCase) Drain(ctx context.Context) error {
	if u.processor == nil {
		return nil
	}
	return u.processor.Drain(ctx)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientSignals):
		return "insufficient_signals"
	case errors.Is(err, context.DeadlineExceeded):
		return "rank_timeout"
	case errors.Is(err, context.Canceled):
		return "rank_canceled"
	}
	return "rank"
}
