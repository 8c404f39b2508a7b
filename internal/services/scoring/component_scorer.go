package scoring

import (
	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

// Component names as they appear in breakdowns and data gaps.
const (
	ComponentTechnical   = "technical"
	ComponentFundamental = "fundamental"
	ComponentSentiment   = "sentiment"
)

// ComponentScorer turns raw indicators and metrics into 0-100 component
// scores. A precomputed score always wins over raw inputs.
type ComponentScorer struct {
	t config.ComponentTable
}

func NewComponentScorer(t config.ComponentTable) *ComponentScorer {
	return &ComponentScorer{t: t}
}

// Fill derives every absent component score that has raw inputs and
// returns the names of the derived components.
func (s *ComponentScorer) Fill(c *models.Candidate) []string {
	var derived []string
	if c.Components.Technical == nil && c.Raw.Technical != nil {
		v := s.Technical(c.Raw.Technical)
		c.Components.Technical = &v
		derived = append(derived, ComponentTechnical)
	}
	if c.Components.Fundamental == nil && c.Raw.Fundamental != nil {
		v := s.Fundamental(c.Raw.Fundamental)
		c.Components.Fundamental = &v
		derived = append(derived, ComponentFundamental)
	}
	if c.Components.Sentiment == nil && c.Raw.Social != nil {
		v := s.Social(c.Raw.Social)
		c.Components.Sentiment = &v
		derived = append(derived, ComponentSentiment)
	}
	return derived
}

func (s *ComponentScorer) Technical(in *models.TechnicalInput) float64 {
	t := s.t.Technical
	score := t.Base
	if in.RSI != nil {
		score += t.RSI.Points(*in.RSI)
	}
	if in.Price > 0 {
		for _, sma := range []float64{in.SMA20, in.SMA50, in.SMA200} {
			if sma > 0 && in.Price > sma {
				score += t.PerSMAAbove
			}
		}
	}
	if in.VolumeRatio != nil {
		score += t.VolumeRatio.Points(*in.VolumeRatio)
	}
	if in.ChangePct != nil {
		score += t.ChangePct.Points(*in.ChangePct)
	}
	return clamp(score, 0, 100)
}

func (s *ComponentScorer) Fundamental(in *models.FundamentalMetrics) float64 {
	t := s.t.Fundamental
	score := t.Base
	if in.EarningsScheduled {
		score += t.EarningsScheduled
	}
	if in.RevenueGrowth != nil {
		score += t.RevenueGrowth.Points(*in.RevenueGrowth)
	}
	if in.InsiderMSPR != nil {
		score += t.InsiderMSPR.Points(*in.InsiderMSPR)
	}
	return clamp(score, 0, 100)
}

func (s *ComponentScorer) Social(in *models.SocialInput) float64 {
	t := s.t.Social
	score := t.Base
	if in.BullPct != nil {
		score += t.BullPct.Points(*in.BullPct)
	}
	if in.WatchersChange != nil && *in.WatchersChange > 0 {
		score += t.WatchersRising
	}
	if in.XSentiment != nil {
		score += t.XSentiment.Points(*in.XSentiment)
	}
	if in.RiskFlags > 0 {
		score -= t.RiskFlagPenalty
	}
	return clamp(score, 0, 100)
}
