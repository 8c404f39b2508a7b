package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
	applogger "FinRank/pkg/logger"
)

func riskOffSignals() []models.MarketSignal {
	return []models.MarketSignal{
		{Name: "volatility_index", Value: 32},
		{Name: "index_trend", Value: -0.04},
		{Name: "crypto_trend", Value: -0.12},
		{Name: "rate_trend", Value: 0},
		{Name: "rate_level", Value: 4},
		{Name: "currency_strength", Value: 0},
	}
}

func universe() []models.Candidate {
	gold := models.Candidate{
		Symbol: "GLD", AssetClass: models.AssetCommodity, SafeHaven: true,
		AvgDollarVolume: 2_000_000_000, SectorMomentum: fp(0.2),
		Components: models.ComponentScores{Technical: fp(72), Fundamental: fp(60), Sentiment: fp(64)},
		Catalysts:  models.CatalystInputs{News: &models.NewsInput{Sentiment: 0.4, AgeHours: 10, Material: true}},
	}
	btc := models.Candidate{
		Symbol: "BTC", AssetClass: models.AssetCrypto, MarketCapTier: models.TierMega,
		MarketCap: 1.2e12, AvgDollarVolume: 3e10, SectorMomentum: fp(-0.1),
		Components: models.ComponentScores{Technical: fp(55), Sentiment: fp(71)},
		Catalysts:  models.CatalystInputs{Volume: &models.VolumeInput{ExpansionRatio: 1.8}},
	}
	return []models.Candidate{megaCap("AAPL"), thinNano(), gold, btc, discoveryCandidate()}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(config.DefaultScoring(), opts...)
	require.NoError(t, err)
	return e
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	s := config.DefaultScoring()
	s.Composite.BaseWeights.Technical = 0.9

	_, err := NewEngine(s)

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Field, "base_weights")
}

func TestEngine_Rank(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Rank(context.Background(), models.RankRequest{Signals: riskOffSignals(), Candidates: universe()})
	require.NoError(t, err)

	assert.Equal(t, models.RegimeRiskOff, res.Regime.Label)
	assert.Equal(t, 5, res.Scored)
	assert.NotEmpty(t, res.Picks)
	assert.LessOrEqual(t, len(res.Picks), 18)
	assert.Len(t, res.Buckets, 5)

	for _, c := range res.Picks {
		require.NotNil(t, c.Breakdown, c.Symbol)
		assert.GreaterOrEqual(t, c.CompositeScore, 0.0)
		assert.LessOrEqual(t, c.CompositeScore, 100.0)
		assert.GreaterOrEqual(t, c.Multiplier, 0.75)
		assert.LessOrEqual(t, c.Multiplier, 1.25)
		assert.NotEmpty(t, c.Classification)
		assert.Contains(t, c.RationaleTags, "regime:risk_off")
	}

	// NANO fails the equity market cap floor.
	var nano *models.Rejection
	for i := range res.Rejections {
		if res.Rejections[i].Symbol == "NANO" {
			nano = &res.Rejections[i]
		}
	}
	require.NotNil(t, nano)
	assert.Equal(t, models.StageHardFilter, nano.Stage)
}

func TestEngine_AuditsInvalidAndDuplicateCandidates(t *testing.T) {
	e := newTestEngine(t)

	noTier := megaCap("NOTIER")
	noTier.MarketCapTier = ""
	noTier.MarketCap = 0
	badClass := megaCap("BOND")
	badClass.AssetClass = "bond"
	badScore := megaCap("NAN")
	badScore.Components.Technical = fp(math.NaN())
	badLiquidity := megaCap("LIQ")
	badLiquidity.LiquidityTier = "extreme"
	anonymous := megaCap("")

	res, err := e.Rank(context.Background(), models.RankRequest{
		Signals:    riskOffSignals(),
		Candidates: []models.Candidate{megaCap("AAPL"), megaCap("AAPL"), noTier, badClass, badScore, badLiquidity, anonymous},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Scored)
	stages := map[string]int{}
	for _, r := range res.Rejections {
		stages[r.Stage]++
		assert.NotEmpty(t, r.Reason)
	}
	assert.Equal(t, 1, stages[models.StageDuplicate])
	assert.Equal(t, 5, stages[models.StageInvalidInput])
}

func TestEngine_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)
	in := universe()
	snapshot := make([]models.Candidate, len(in))
	for i := range in {
		snapshot[i] = in[i].Clone()
	}

	_, err := e.Rank(context.Background(), models.RankRequest{Signals: riskOffSignals(), Candidates: in})
	require.NoError(t, err)

	assert.Equal(t, snapshot, in)
}

func TestEngine_DerivesLiquidityTier(t *testing.T) {
	e := newTestEngine(t)
	c := megaCap("AAPL")
	c.LiquidityTier = ""

	res, err := e.Rank(context.Background(), models.RankRequest{Signals: riskOffSignals(), Candidates: []models.Candidate{c}})
	require.NoError(t, err)
	require.Len(t, res.Picks, 1)
	assert.Equal(t, models.LiquidityHigh, res.Picks[0].LiquidityTier)
}

func TestEngine_UnknownMarketCapSkipsFloor(t *testing.T) {
	e := newTestEngine(t)
	unknown := megaCap("AAPL")
	unknown.MarketCap = 0
	penny := megaCap("PNY")
	penny.MarketCapTier = models.TierNano
	penny.MarketCap = 20_000_000

	res, err := e.Rank(context.Background(), models.RankRequest{
		Signals:    riskOffSignals(),
		Candidates: []models.Candidate{unknown, penny},
	})
	require.NoError(t, err)

	require.Len(t, res.Picks, 1)
	assert.Equal(t, "AAPL", res.Picks[0].Symbol)
	assert.Contains(t, res.Picks[0].DataGaps, "missing:market_cap")
	require.Len(t, res.Rejections, 1)
	assert.Equal(t, "PNY", res.Rejections[0].Symbol)
	assert.Equal(t, models.StageHardFilter, res.Rejections[0].Stage)
}

func TestEngine_DerivesMarketCapTier(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		mcap float64
		want models.MarketCapTier
	}{
		{mcap: 900e9, want: models.TierMega},
		{mcap: 40e9, want: models.TierLarge},
		{mcap: 5e9, want: models.TierMid},
		{mcap: 800e6, want: models.TierSmall},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			c := megaCap("EQ")
			c.MarketCapTier = ""
			c.MarketCap = tt.mcap

			res, err := e.Rank(context.Background(), models.RankRequest{Signals: riskOffSignals(), Candidates: []models.Candidate{c}})
			require.NoError(t, err)
			require.Len(t, res.Picks, 1)
			assert.Equal(t, tt.want, res.Picks[0].MarketCapTier)
			assert.Equal(t, BucketOf(&res.Picks[0]), res.Picks[0].Bucket)
		})
	}
}

func TestEngine_ScoresRawComponents(t *testing.T) {
	e := newTestEngine(t)
	c := megaCap("RAW")
	c.Components = models.ComponentScores{Sentiment: fp(80)}
	c.Raw = models.RawComponents{
		Technical: &models.TechnicalInput{
			RSI: fp(55), Price: 120, SMA20: 110, SMA50: 100, SMA200: 90,
			VolumeRatio: fp(2.2), ChangePct: fp(0.03),
		},
		Fundamental: &models.FundamentalMetrics{RevenueGrowth: fp(0.25), InsiderMSPR: fp(12), EarningsScheduled: true},
	}

	res, err := e.Rank(context.Background(), models.RankRequest{Signals: riskOffSignals(), Candidates: []models.Candidate{c}})
	require.NoError(t, err)
	require.Len(t, res.Picks, 1)

	p := res.Picks[0]
	require.NotNil(t, p.Breakdown)
	assert.Equal(t, []string{ComponentTechnical, ComponentFundamental}, p.Breakdown.Derived)
	assert.Empty(t, p.Breakdown.Substituted)
	assert.Equal(t, 95.0, p.Breakdown.Components.Technical)
	assert.Equal(t, 60.0, p.Breakdown.Components.Fundamental)
	assert.NotContains(t, p.DataFlags.Missing, models.MissingOHLC)
	assert.NotContains(t, p.DataFlags.Missing, models.MissingFundamentals)
}

func TestEngine_WorkersMatchSequential(t *testing.T) {
	seq := newTestEngine(t)
	par := newTestEngine(t, WithWorkers(4))
	assert.Equal(t, 4, par.Workers())

	var in []models.Candidate
	for i := 0; i < 60; i++ {
		c := megaCap(fmt.Sprintf("EQ%02d", i))
		c.Components.Technical = fp(float64(40 + i))
		in = append(in, c)
	}
	in = append(in, universe()...)
	req := models.RankRequest{Signals: riskOffSignals(), Candidates: in}

	want, err := seq.Rank(context.Background(), req)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := par.Rank(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEngine_InsufficientSignals(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Rank(context.Background(), models.RankRequest{
		Signals:    []models.MarketSignal{{Name: "volatility_index", IsMissing: true}},
		Candidates: universe(),
	})

	assert.True(t, errors.Is(err, models.ErrInsufficientSignals))
	assert.Empty(t, res.Picks)
}

func TestEngine_Canceled(t *testing.T) {
	e := newTestEngine(t, WithWorkers(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Rank(ctx, models.RankRequest{Signals: riskOffSignals(), Candidates: universe()})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEngine(t, WithLogger(applogger.NewWithWriter(&buf, zerolog.DebugLevel)))

	_, err := e.Rank(context.Background(), models.RankRequest{Signals: riskOffSignals(), Candidates: universe()})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"component":"scoring"`)
	assert.Contains(t, buf.String(), "ranking complete")
	assert.Contains(t, buf.String(), "regime detected")
}
