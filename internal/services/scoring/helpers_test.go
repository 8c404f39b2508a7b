package scoring

import (
	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

func riskOff(conf float64) models.RegimeState {
	return models.RegimeState{Label: models.RegimeRiskOff, Confidence: conf}
}

// fullCatalysts scores exactly 80 points under the default tables.
func fullCatalysts() models.CatalystInputs {
	return models.CatalystInputs{
		Earnings: &models.EarningsInput{DaysSince: ip(3), DaysUntil: ip(5), SurprisePct: fp(4.2), Confirmed: true},
		Insider:  &models.InsiderInput{NetValueUSD: 1_500_000, Buyers: 3},
		News:     &models.NewsInput{Sentiment: 1, AgeHours: 6, Material: true},
	}
}

func megaCap(symbol string) models.Candidate {
	return models.Candidate{
		Symbol:          symbol,
		AssetClass:      models.AssetEquity,
		MarketCapTier:   models.TierMega,
		LiquidityTier:   models.LiquidityHigh,
		MarketCap:       900_000_000_000,
		AvgDollarVolume: 5_000_000_000,
		SectorMomentum:  fp(0.4),
		Components:      models.ComponentScores{Technical: fp(80), Fundamental: fp(80), Sentiment: fp(80)},
		Catalysts:       fullCatalysts(),
	}
}

// scoreWith runs every per-candidate stage with the given tables.
func scoreWith(s config.Scoring, c models.Candidate, regime models.RegimeState) models.Candidate {
	derived := NewComponentScorer(s.Components).Fill(&c)
	cat := NewCatalystEngine(s.Catalyst).Score(c.Catalysts)
	aw := NewAssetWeightEngine(s.AssetWeights).Weight(regime, &c)
	NewInstitutionalScorer(s.Composite).Score(&c, regime, cat, aw)
	c.Breakdown.Derived = derived
	NewGuardrails(s.Guardrails).Apply(&c, regime)
	return c
}
