package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

func TestAssetWeightEngine_LargeCapBoostInRiskOff(t *testing.T) {
	e := NewAssetWeightEngine(config.DefaultScoring().AssetWeights)
	c := megaCap("AAPL")

	w := e.Weight(riskOff(0.9), &c)

	assert.InDelta(t, 0.09, w.RegimeAdjustment, 1e-9)
	assert.Zero(t, w.LiquidityPenalty)
	assert.InDelta(t, 1.09, w.Multiplier, 1e-9)
}

func TestAssetWeightEngine_ClampedToFloor(t *testing.T) {
	e := NewAssetWeightEngine(config.DefaultScoring().AssetWeights)
	c := models.Candidate{Symbol: "TINY", AssetClass: models.AssetEquity, MarketCapTier: models.TierNano}

	w := e.Weight(riskOff(1), &c)

	assert.InDelta(t, 0.20, w.LiquidityPenalty, 1e-9)
	assert.Equal(t, 0.75, w.Multiplier)
}

func TestAssetWeightEngine_SegmentFallsBackToClass(t *testing.T) {
	e := NewAssetWeightEngine(config.DefaultScoring().AssetWeights)
	c := models.Candidate{Symbol: "DOGE", AssetClass: models.AssetCrypto, MarketCapTier: models.TierMid, AvgDollarVolume: 50_000_000}

	w := e.Weight(models.RegimeState{Label: models.RegimeRiskOn, Confidence: 1}, &c)

	assert.InDelta(t, 1.12, w.Multiplier, 1e-9)
}

func TestAssetWeightEngine_SafeHavenSegment(t *testing.T) {
	e := NewAssetWeightEngine(config.DefaultScoring().AssetWeights)
	gold := models.Candidate{Symbol: "GLD", AssetClass: models.AssetCommodity, SafeHaven: true, AvgDollarVolume: 1e9}
	oil := models.Candidate{Symbol: "USO", AssetClass: models.AssetCommodity, AvgDollarVolume: 1e9}

	assert.InDelta(t, 1.15, e.Weight(riskOff(1), &gold).Multiplier, 1e-9)
	assert.InDelta(t, 1.12, e.Weight(riskOff(1), &oil).Multiplier, 1e-9)
}

func TestAssetWeightEngine_BoundedForEveryCombination(t *testing.T) {
	s := config.DefaultScoring()
	e := NewAssetWeightEngine(s.AssetWeights)
	tiers := []models.MarketCapTier{"", models.TierMega, models.TierLarge, models.TierMid, models.TierSmall, models.TierMicro, models.TierNano}
	classes := []models.AssetClass{models.AssetEquity, models.AssetCrypto, models.AssetCommodity}
	advs := []float64{0, 1, 250_000, 999_999, 1_000_000, 1e9}

	for _, label := range models.RegimeLabels {
		for _, conf := range []float64{0, 0.33, 1} {
			for _, class := range classes {
				for _, tier := range tiers {
					for _, adv := range advs {
						for _, haven := range []bool{false, true} {
							c := models.Candidate{AssetClass: class, MarketCapTier: tier, AvgDollarVolume: adv, SafeHaven: haven}
							m := e.Weight(models.RegimeState{Label: label, Confidence: conf}, &c).Multiplier
							assert.GreaterOrEqual(t, m, s.AssetWeights.Min)
							assert.LessOrEqual(t, m, s.AssetWeights.Max)
						}
					}
				}
			}
		}
	}
}

func TestAssetWeightEngine_LiquidityPenaltyMonotone(t *testing.T) {
	e := NewAssetWeightEngine(config.DefaultScoring().AssetWeights)

	for _, tier := range []models.MarketCapTier{models.TierNano, models.TierMicro} {
		prev := e.LiquidityPenalty(tier, 0)
		for adv := 50_000.0; adv <= 2_000_000; adv += 50_000 {
			p := e.LiquidityPenalty(tier, adv)
			assert.LessOrEqual(t, p, prev, "tier %s adv %.0f", tier, adv)
			prev = p
		}
		assert.Zero(t, prev)
	}
	assert.Zero(t, e.LiquidityPenalty(models.TierLarge, 0))
}
