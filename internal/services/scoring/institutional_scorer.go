package scoring

import (
	"math"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

// InstitutionalScorer blends component scores with confidence-weighted regime
// weights and applies completeness penalties for missing data.
type InstitutionalScorer struct {
	t config.CompositeTable
}

func NewInstitutionalScorer(t config.CompositeTable) *InstitutionalScorer {
	return &InstitutionalScorer{t: t}
}

// Weights returns the base, regime and effective weight vectors. The
// effective vector is base*(1-c) + regime*c.
func (s *InstitutionalScorer) Weights(regime models.RegimeState) (base, reg, eff models.WeightVector) {
	base = s.t.BaseWeights
	reg, ok := s.t.RegimeWeights[regime.Label]
	if !ok {
		reg = base
	}
	return base, reg, base.Blend(reg, clamp(regime.Confidence, 0, 1))
}

// CompletenessFactor multiplies (1 - rate) over every flagged category,
// floored so the total penalty never exceeds MaxPenalty.
func (s *InstitutionalScorer) CompletenessFactor(flags models.DataFlags) (float64, []models.Penalty) {
	factor := 1.0
	var applied []models.Penalty
	for _, cat := range models.CompletenessCategories {
		if !flags.Has(cat) {
			continue
		}
		rate := s.t.Penalties[cat]
		factor *= 1 - rate
		applied = append(applied, models.Penalty{Category: cat, Rate: rate})
	}
	return math.Max(factor, 1-s.t.MaxPenalty), applied
}

// Score fills CompositeScore, DataFlags, DataGaps and Breakdown on c.
func (s *InstitutionalScorer) Score(c *models.Candidate, regime models.RegimeState, cat CatalystResult, aw AssetWeight) {
	var values models.WeightVector
	var substituted []string

	pick := func(v *float64, component, category string) float64 {
		if v != nil && !math.IsNaN(*v) {
			return clamp(*v, 0, 100)
		}
		c.DataFlags.AddMissing(category)
		c.AddGap((&models.MissingComponentData{Symbol: c.Symbol, Component: component}).Gap())
		substituted = append(substituted, component)
		return s.t.NeutralValue
	}
	values.Technical = pick(c.Components.Technical, ComponentTechnical, models.MissingOHLC)
	values.Fundamental = pick(c.Components.Fundamental, ComponentFundamental, models.MissingFundamentals)
	values.Sentiment = pick(c.Components.Sentiment, ComponentSentiment, models.MissingSocial)
	// The catalyst component is never neutral-substituted: missing events
	// score zero points.
	values.Catalyst = cat.Score

	if c.Catalysts.News == nil {
		c.DataFlags.AddMissing(models.MissingNews)
	}
	if c.AvgDollarVolume <= 0 {
		c.DataFlags.AddMissing(models.MissingVolume)
	}
	if c.Catalysts.AllMissing() {
		c.DataFlags.AddMissing(models.MissingCatalyst)
	}
	for _, g := range cat.Gaps {
		c.AddGap((&models.MissingComponentData{Symbol: c.Symbol, Component: "catalyst." + g}).Gap())
	}

	base, reg, eff := s.Weights(regime)
	raw := eff.Technical*values.Technical +
		eff.Fundamental*values.Fundamental +
		eff.Catalyst*values.Catalyst +
		eff.Sentiment*values.Sentiment

	factor, penalties := s.CompletenessFactor(c.DataFlags)
	composite := clamp(raw*factor*aw.Multiplier, 0, 100)

	c.CatalystScore = cat.Score
	c.CatalystPresent = cat.Present
	c.Multiplier = aw.Multiplier
	c.CompositeScore = composite
	c.Breakdown = &models.ScoreBreakdown{
		Components:         values,
		Substituted:        substituted,
		Catalyst:           cat.Contributions,
		BaseWeights:        base,
		RegimeWeights:      reg,
		EffectiveWeights:   eff,
		RegimeLabel:        regime.Label,
		RegimeConfidence:   regime.Confidence,
		RawComposite:       raw,
		Penalties:          penalties,
		CompletenessFactor: factor,
		RegimeAdjustment:   aw.RegimeAdjustment,
		LiquidityPenalty:   aw.LiquidityPenalty,
		AssetMultiplier:    aw.Multiplier,
		Composite:          composite,
	}
}
