package scoring

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

func sig(name string, v float64) models.MarketSignal {
	return models.MarketSignal{Name: name, Value: v}
}

func TestRegimeDetector_WeightedMajority(t *testing.T) {
	d := NewRegimeDetector(config.DefaultScoring().Regime)

	state, err := d.Detect([]models.MarketSignal{
		sig("volatility_index", 31),
		sig("index_trend", -0.05),
		sig("rate_trend", 0),
		sig("rate_level", 3),
		sig("currency_strength", 0),
		sig("crypto_trend", -0.1),
	})
	require.NoError(t, err)

	assert.Equal(t, models.RegimeRiskOff, state.Label)
	assert.InDelta(t, 4.5/7.0, state.Confidence, 1e-9)
	assert.Empty(t, state.MissingSignals)
	assert.Len(t, state.ContributingSignals, 6)
	assert.InDelta(t, 4.5, state.Tally[models.RegimeRiskOff], 1e-9)
	assert.InDelta(t, 2.5, state.Tally[models.RegimeNeutral], 1e-9)
}

func TestRegimeDetector_MissingSignalsLowerConfidence(t *testing.T) {
	d := NewRegimeDetector(config.DefaultScoring().Regime)

	full, err := d.Detect([]models.MarketSignal{
		sig("volatility_index", 31),
		sig("index_trend", -0.05),
		sig("rate_trend", 0),
		sig("rate_level", 3),
		sig("currency_strength", 0),
		sig("crypto_trend", -0.1),
	})
	require.NoError(t, err)

	partial, err := d.Detect([]models.MarketSignal{
		sig("volatility_index", 31),
		{Name: "index_trend", Value: -0.05, IsMissing: true},
		sig("crypto_trend", math.NaN()),
	})
	require.NoError(t, err)

	assert.Equal(t, models.RegimeRiskOff, partial.Label)
	assert.InDelta(t, 1.0/6.0, partial.Confidence, 1e-9)
	assert.Less(t, partial.Confidence, full.Confidence)
	assert.ElementsMatch(t, []string{"index_trend", "rate_trend", "rate_level", "currency_strength", "crypto_trend"}, partial.MissingSignals)
}

func TestRegimeDetector_TieResolvesToNeutral(t *testing.T) {
	d := NewRegimeDetector(config.DefaultScoring().Regime)

	state, err := d.Detect([]models.MarketSignal{
		sig("volatility_index", 30),  // risk_off, weight 2
		sig("rate_trend", -0.2),      // risk_on, weight 1
		sig("currency_strength", -1), // risk_on, weight 1
	})
	require.NoError(t, err)

	assert.Equal(t, models.RegimeNeutral, state.Label)
	assert.InDelta(t, 0.25, state.Confidence, 1e-9)
}

func TestRegimeDetector_InsufficientSignals(t *testing.T) {
	d := NewRegimeDetector(config.DefaultScoring().Regime)

	cases := []struct {
		name    string
		signals []models.MarketSignal
	}{
		{name: "empty"},
		{name: "unknown", signals: []models.MarketSignal{sig("moon_phase", 1)}},
		{name: "all missing", signals: []models.MarketSignal{
			{Name: "volatility_index", IsMissing: true},
			sig("index_trend", math.Inf(1)),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Detect(tc.signals)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInsufficientSignals))

			var ise *models.InsufficientSignalError
			require.ErrorAs(t, err, &ise)
			assert.Equal(t, 6, ise.Expected)
		})
	}
}

func TestRegimeDetector_FirstDuplicateWins(t *testing.T) {
	d := NewRegimeDetector(config.DefaultScoring().Regime)

	state, err := d.Detect([]models.MarketSignal{
		sig("volatility_index", 10),
		sig("volatility_index", 40),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegimeRiskOn, state.Label)
}

func TestRegimeDetector_ConfidenceBounded(t *testing.T) {
	d := NewRegimeDetector(config.DefaultScoring().Regime)
	rng := rand.New(rand.NewSource(7))
	names := []string{"volatility_index", "index_trend", "rate_trend", "rate_level", "currency_strength", "crypto_trend"}

	for i := 0; i < 500; i++ {
		var signals []models.MarketSignal
		for _, n := range names {
			if rng.Intn(3) == 0 {
				continue
			}
			signals = append(signals, sig(n, rng.NormFloat64()*20))
		}
		state, err := d.Detect(signals)
		if len(signals) == 0 {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.GreaterOrEqual(t, state.Confidence, 0.0)
		assert.LessOrEqual(t, state.Confidence, 1.0)
		assert.True(t, state.Label.Valid())
	}
}
