package scoring

import (
	"fmt"
	"math"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

// GuardrailDecision is the outcome of the guardrails for one candidate.
type GuardrailDecision struct {
	Classification  string
	PositionSizeCap float64
	Status          models.ConfirmationStatus
	Checks          int
	Discovery       bool
	TierCap         string
}

// Guardrails bound sizing and classification regardless of raw score.
// Decisions depend only on the candidate and the regime, so applying them
// twice yields the same result.
type Guardrails struct {
	t config.GuardrailTable
}

func NewGuardrails(t config.GuardrailTable) *Guardrails {
	return &Guardrails{t: t}
}

// Evaluate computes the decision without touching the candidate.
func (g *Guardrails) Evaluate(c *models.Candidate, regime models.RegimeState) GuardrailDecision {
	var d GuardrailDecision

	bracket := g.t.Brackets[regime.Label]
	d.PositionSizeCap = bracket.Max
	if c.MarketCapTier == models.TierNano || c.MarketCapTier == models.TierMicro {
		key := string(c.MarketCapTier) + "_" + string(c.LiquidityTier)
		if tierCap, ok := g.t.TierCaps[key]; ok && tierCap < d.PositionSizeCap {
			d.PositionSizeCap = tierCap
			d.TierCap = key
		}
	}

	technicalOK := c.Components.Technical != nil && *c.Components.Technical >= g.t.TechnicalMin
	liquidityOK := c.LiquidityTier != models.LiquidityLow
	for _, ok := range []bool{technicalOK, c.CatalystPresent, liquidityOK} {
		if ok {
			d.Checks++
		}
	}

	switch {
	case d.Checks >= g.t.MinChecks:
		d.Classification = models.ClassBuy
		d.Status = models.StatusConfirmed
	case g.discovery(c):
		d.Classification = models.ClassDiscoveryBuy
		d.Status = models.StatusPartial
		d.Discovery = true
		strong := c.Components.Fundamental != nil &&
			*c.Components.Fundamental >= g.t.Discovery.FundamentalsOverride &&
			c.LiquidityTier == models.LiquidityHigh
		if !strong {
			d.PositionSizeCap = math.Min(d.PositionSizeCap, g.t.Discovery.Cap)
		}
	default:
		d.Classification = models.ClassSpeculativeWatch
		d.Status = models.StatusUnconfirmed
		if d.Checks > 0 {
			d.Status = models.StatusPartial
		}
	}
	return d
}

// discovery admits a rare high-conviction setup that failed the normal gate.
func (g *Guardrails) discovery(c *models.Candidate) bool {
	if c.Components.Sentiment == nil || *c.Components.Sentiment < g.t.Discovery.SentimentMin {
		return false
	}
	if c.LiquidityTier == models.LiquidityLow || c.Catalysts.Volume == nil || c.Breakdown == nil {
		return false
	}
	cat := CatalystResult{Contributions: c.Breakdown.Catalyst}
	if cat.Points(FactorVolumeExpansion) < g.t.Discovery.VolumeSubScoreMin {
		return false
	}
	return cat.HasHardCatalyst()
}

// Apply writes the decision onto the candidate.
func (g *Guardrails) Apply(c *models.Candidate, regime models.RegimeState) GuardrailDecision {
	d := g.Evaluate(c, regime)
	c.Classification = d.Classification
	c.PositionSizeCap = d.PositionSizeCap
	c.ConfirmationStatus = d.Status
	c.GateChecks = d.Checks
	c.Discovery = d.Discovery

	c.AddTag("regime:" + string(regime.Label))
	c.AddTag(fmt.Sprintf("gate:%d/3", d.Checks))
	if d.TierCap != "" {
		c.AddTag("tier_cap:" + d.TierCap)
	}
	if d.Discovery {
		c.AddTag("discovery")
	}
	return d
}
