package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"FinRank/internal/domain/models"
	"FinRank/internal/domain/service"
	"FinRank/pkg/config"
	applogger "FinRank/pkg/logger"
)

var _ service.RankingEngine = (*Engine)(nil)

// Engine runs the full pipeline: regime, catalysts, asset weights, composite
// score, guardrails and cross-asset ranking. Every stage reads the same
// immutable rule tables, so identical inputs give identical results.
type Engine struct {
	cfg        config.Scoring
	regime     *RegimeDetector
	components *ComponentScorer
	catalysts  *CatalystEngine
	weights    *AssetWeightEngine
	scorer     *InstitutionalScorer
	guardrails *Guardrails
	ranker     *Ranker
	validate   *validator.Validate
	workers    int
	l          *applogger.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers scores candidates on n goroutines. Results are merged by input
// index so output does not depend on scheduling.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(e *Engine) { e.SetLogger(l) }
}

// NewEngine validates the rule tables and builds every stage from them.
func NewEngine(cfg config.Scoring, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		regime:     NewRegimeDetector(cfg.Regime),
		components: NewComponentScorer(cfg.Components),
		catalysts:  NewCatalystEngine(cfg.Catalyst),
		weights:    NewAssetWeightEngine(cfg.AssetWeights),
		scorer:     NewInstitutionalScorer(cfg.Composite),
		guardrails: NewGuardrails(cfg.Guardrails),
		ranker:     NewRanker(cfg.Ranker),
		validate:   validator.New(),
		workers:    1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetLogger injects a structured logger.
func (e *Engine) SetLogger(l *applogger.Logger) {
	e.l = l.Component("scoring")
	e.regime.SetLogger(e.l)
}

func (e *Engine) Workers() int { return e.workers }

// Config returns the rule tables the engine was built with.
func (e *Engine) Config() config.Scoring { return e.cfg }

// DetectRegime classifies the macro regime on its own.
func (e *Engine) DetectRegime(signals []models.MarketSignal) (models.RegimeState, error) {
	return e.regime.Detect(signals)
}

// Rank runs one scoring pass. The caller's candidates are never modified.
// RunID and GeneratedAt are left for the caller to stamp.
func (e *Engine) Rank(ctx context.Context, req models.RankRequest) (models.RankedResult, error) {
	regime, err := e.regime.Detect(req.Signals)
	if err != nil {
		return models.RankedResult{}, err
	}

	valid, rejections := e.admit(req.Candidates)
	scored, err := e.scoreAll(ctx, valid, regime)
	if err != nil {
		return models.RankedResult{}, err
	}

	out := e.ranker.Rank(regime, scored, req.MaxPicks)
	rejections = append(rejections, out.Rejections...)

	if out.Picks == nil {
		out.Picks = []models.Candidate{}
	}
	if rejections == nil {
		rejections = []models.Rejection{}
	}

	e.l.Debug("ranking complete",
		applogger.String("regime", string(regime.Label)),
		applogger.Float64("confidence", regime.Confidence),
		applogger.Int("candidates", len(req.Candidates)),
		applogger.Int("scored", len(scored)),
		applogger.Int("picks", len(out.Picks)),
		applogger.Int("rejections", len(rejections)),
	)

	return models.RankedResult{
		Regime:          regime,
		Buckets:         out.Buckets,
		Picks:           out.Picks,
		Rejections:      rejections,
		QuotaShortfalls: out.Shortfalls,
		Scored:          len(scored),
	}, nil
}

// admit clones valid candidates and audits the rest. Later duplicates of a
// symbol are rejected; the first occurrence is kept.
func (e *Engine) admit(in []models.Candidate) ([]models.Candidate, []models.Rejection) {
	var (
		valid      = make([]models.Candidate, 0, len(in))
		rejections []models.Rejection
		seen       = make(map[string]bool, len(in))
	)
	reject := func(c *models.Candidate, stage, reason string) {
		rejections = append(rejections, models.Rejection{
			Symbol: c.Symbol, AssetClass: c.AssetClass, Stage: stage, Reason: reason,
		})
	}

	for i := range in {
		c := in[i].Clone()
		if c.MarketCapTier == "" && c.AssetClass != models.AssetCommodity {
			c.MarketCapTier = e.cfg.MarketCap.TierFor(c.MarketCap)
		}
		if reason := e.check(&c); reason != "" {
			reject(&c, models.StageInvalidInput, reason)
			continue
		}
		if seen[c.Symbol] {
			reject(&c, models.StageDuplicate, "symbol already submitted in this run")
			continue
		}
		seen[c.Symbol] = true

		if c.LiquidityTier == "" {
			c.LiquidityTier = e.cfg.Liquidity.TierFor(c.AvgDollarVolume)
		}
		valid = append(valid, c)
	}
	return valid, rejections
}

func (e *Engine) check(c *models.Candidate) string {
	if err := e.validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return strings.Join(parts, "; ")
		}
		return err.Error()
	}
	if c.AssetClass == models.AssetEquity && !c.MarketCapTier.Valid() {
		return fmt.Sprintf("equity requires a market cap tier or market cap, got %q", c.MarketCapTier)
	}
	if c.MarketCapTier != "" && !c.MarketCapTier.Valid() {
		return fmt.Sprintf("unknown market cap tier %q", c.MarketCapTier)
	}
	if c.LiquidityTier != "" && !c.LiquidityTier.Valid() {
		return fmt.Sprintf("unknown liquidity tier %q", c.LiquidityTier)
	}
	return ""
}

// scoreAll runs the per-candidate stages, fanning out across workers when
// configured.
func (e *Engine) scoreAll(ctx context.Context, in []models.Candidate, regime models.RegimeState) ([]models.Candidate, error) {
	out := make([]models.Candidate, len(in))
	if e.workers <= 1 || len(in) < 2 {
		for i := range in {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = e.scoreOne(in[i], regime)
		}
		return out, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = e.scoreOne(in[i], regime)
			}
		}()
	}

feed:
	for i := range in {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) scoreOne(c models.Candidate, regime models.RegimeState) models.Candidate {
	derived := e.components.Fill(&c)
	cat := e.catalysts.Score(c.Catalysts)
	aw := e.weights.Weight(regime, &c)
	e.scorer.Score(&c, regime, cat, aw)
	c.Breakdown.Derived = derived
	e.guardrails.Apply(&c, regime)
	return c
}
