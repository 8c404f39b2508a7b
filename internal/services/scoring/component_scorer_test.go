package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

func TestComponentScorer_Technical(t *testing.T) {
	s := NewComponentScorer(config.DefaultScoring().Components)

	tests := []struct {
		name string
		in   models.TechnicalInput
		want float64
	}{
		{name: "no indicators", in: models.TechnicalInput{}, want: 50},
		{name: "healthy rsi", in: models.TechnicalInput{RSI: fp(55)}, want: 65},
		{name: "oversold rsi", in: models.TechnicalInput{RSI: fp(25)}, want: 58},
		{name: "overbought rsi", in: models.TechnicalInput{RSI: fp(88)}, want: 40},
		{name: "above two averages", in: models.TechnicalInput{Price: 100, SMA20: 95, SMA50: 90, SMA200: 120}, want: 60},
		{name: "unknown averages ignored", in: models.TechnicalInput{Price: 100}, want: 50},
		{name: "volume surge", in: models.TechnicalInput{VolumeRatio: fp(3.5)}, want: 65},
		{name: "extended move", in: models.TechnicalInput{ChangePct: fp(0.22)}, want: 45},
		{
			name: "everything bullish clamps",
			in: models.TechnicalInput{
				RSI: fp(60), Price: 10, SMA20: 9, SMA50: 8, SMA200: 7,
				VolumeRatio: fp(4), ChangePct: fp(0.05),
			},
			want: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			assert.Equal(t, tt.want, s.Technical(&in))
		})
	}
}

func TestComponentScorer_Fundamental(t *testing.T) {
	s := NewComponentScorer(config.DefaultScoring().Components)

	assert.Equal(t, 30.0, s.Fundamental(&models.FundamentalMetrics{}))
	assert.Equal(t, 35.0, s.Fundamental(&models.FundamentalMetrics{RevenueGrowth: fp(0.12)}))
	assert.Equal(t, 30.0, s.Fundamental(&models.FundamentalMetrics{InsiderMSPR: fp(0)}))
	assert.Equal(t, 30.0, s.Fundamental(&models.FundamentalMetrics{InsiderMSPR: fp(-40)}))
	assert.Equal(t, 35.0, s.Fundamental(&models.FundamentalMetrics{InsiderMSPR: fp(4)}))
	assert.Equal(t, 60.0, s.Fundamental(&models.FundamentalMetrics{
		RevenueGrowth: fp(0.4), InsiderMSPR: fp(25), EarningsScheduled: true,
	}))
}

func TestComponentScorer_Social(t *testing.T) {
	s := NewComponentScorer(config.DefaultScoring().Components)

	assert.Equal(t, 30.0, s.Social(&models.SocialInput{}))
	assert.Equal(t, 85.0, s.Social(&models.SocialInput{BullPct: fp(80), WatchersChange: fp(120), XSentiment: fp(0.7)}))
	assert.Equal(t, 45.0, s.Social(&models.SocialInput{BullPct: fp(65)}))
	assert.Equal(t, 5.0, s.Social(&models.SocialInput{XSentiment: fp(-0.6), RiskFlags: 2}))

	harsh := config.DefaultScoring().Components
	harsh.Social.RiskFlagPenalty = 40
	assert.Equal(t, 0.0, NewComponentScorer(harsh).Social(&models.SocialInput{XSentiment: fp(-1), RiskFlags: 1, WatchersChange: fp(-5)}))
}

func TestComponentScorer_FillKeepsPrecomputed(t *testing.T) {
	s := NewComponentScorer(config.DefaultScoring().Components)
	c := megaCap("MIX")
	c.Components.Sentiment = nil
	c.Raw = models.RawComponents{
		Technical: &models.TechnicalInput{RSI: fp(90)},
		Social:    &models.SocialInput{BullPct: fp(62)},
	}

	derived := s.Fill(&c)

	assert.Equal(t, []string{ComponentSentiment}, derived)
	assert.Equal(t, 80.0, *c.Components.Technical)
	assert.Equal(t, 45.0, *c.Components.Sentiment)
}

func TestComponentScorer_NoRawKeepsSubstitution(t *testing.T) {
	s := config.DefaultScoring()
	c := megaCap("BARE")
	c.Components = models.ComponentScores{}

	c = scoreWith(s, c, riskOff(0.9))

	assert.Empty(t, c.Breakdown.Derived)
	assert.Equal(t, []string{ComponentTechnical, ComponentFundamental, ComponentSentiment}, c.Breakdown.Substituted)
	assert.Contains(t, c.DataFlags.Missing, models.MissingOHLC)
	assert.Contains(t, c.DataFlags.Missing, models.MissingFundamentals)
	assert.Contains(t, c.DataFlags.Missing, models.MissingSocial)
}
