package scoring

import (
	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

// AssetWeight is the cross-asset multiplier and the terms that produced it.
type AssetWeight struct {
	Multiplier       float64
	RegimeAdjustment float64
	LiquidityPenalty float64
}

// AssetWeightEngine derives a bounded, regime-aware multiplier per candidate.
type AssetWeightEngine struct {
	t config.AssetWeightTable
}

func NewAssetWeightEngine(t config.AssetWeightTable) *AssetWeightEngine {
	return &AssetWeightEngine{t: t}
}

// Weight applies the regime adjustment (scaled by regime confidence) and the
// thin-liquidity penalty, then clamps to the configured bounds.
func (e *AssetWeightEngine) Weight(regime models.RegimeState, c *models.Candidate) AssetWeight {
	adj := e.t.Adjustment(regime.Label, c.Segment()) * regime.Confidence
	pen := e.LiquidityPenalty(c.MarketCapTier, c.AvgDollarVolume)

	m := (e.t.Base + adj) * (1 - pen)
	return AssetWeight{
		Multiplier:       clamp(m, e.t.Min, e.t.Max),
		RegimeAdjustment: adj,
		LiquidityPenalty: pen,
	}
}

// LiquidityPenalty grows linearly from zero at the tier threshold to the
// tier's max penalty at zero volume. Tiers without a rule are never penalised.
func (e *AssetWeightEngine) LiquidityPenalty(tier models.MarketCapTier, adv float64) float64 {
	rule, ok := e.t.LiquidityPenalty[tier]
	if !ok || rule.ADVThreshold <= 0 || adv >= rule.ADVThreshold {
		return 0
	}
	if adv <= 0 {
		return rule.MaxPenalty
	}
	return rule.MaxPenalty * (1 - adv/rule.ADVThreshold)
}
