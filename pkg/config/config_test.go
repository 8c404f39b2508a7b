package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRank/internal/domain/models"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 5*time.Second, c.Ranking.Timeout)
	assert.Equal(t, "finrank.rank-requests", c.Kafka.RequestsTopic)
	assert.Equal(t, uint32(5), c.ClickHouse.Breaker.MaxFailures)
	assert.Equal(t, 18, c.Scoring.Ranker.MaxPicks)
	require.NoError(t, c.Validate())
}

func TestParse_OverlaysDefaults(t *testing.T) {
	c, err := Parse([]byte(`
server:
  port: 9090
ranking:
  workers: 3
  sinks: [websocket]
scoring:
  ranker:
    normalization: zscore
`))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 3, c.Ranking.Workers)
	assert.True(t, c.SinkEnabled("websocket"))
	assert.False(t, c.SinkEnabled("kafka"))
	assert.Equal(t, "zscore", c.Scoring.Ranker.Normalization)
	assert.Equal(t, 18, c.Scoring.Ranker.MaxPicks)
	assert.Len(t, c.Scoring.Regime.Signals, 6)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"zero workers", "ranking:\n  workers: 0\n", "ranking.workers"},
		{"unknown sink", "ranking:\n  sinks: [s3]\n", "unknown sink"},
		{"kafka sink disabled", "ranking:\n  sinks: [kafka]\n", "requires kafka.enabled"},
		{"clickhouse no host", "clickhouse:\n  enabled: true\n", "clickhouse.host"},
		{"kafka no brokers", "kafka:\n  enabled: true\n", "kafka.brokers"},
		{"rate limit", "rate_limit:\n  rps: 0\n", "rate_limit"},
		{"malformed", "server: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_BadScoringTable(t *testing.T) {
	_, err := Parse([]byte("scoring:\n  composite:\n    base_weights:\n      technical: 0.9\n"))

	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "scoring.composite.base_weights", cfgErr.Field)
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o644))

	t.Setenv("PORT", "9191")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CLICKHOUSE_HOST", "ch")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 9191, c.Server.Port)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.ClickHouse.Enabled)
	assert.Equal(t, "ch", c.ClickHouse.Host)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_SampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Ranking.Workers)
	assert.True(t, c.SinkEnabled("websocket"))
}

func TestParse_ComponentBandsOverlay(t *testing.T) {
	c, err := Parse([]byte(`scoring:
  components:
    technical:
      rsi:
        - {min: 50, max: .inf, points: 20}
  catalyst:
    news:
      require_material: false
`))
	require.NoError(t, err)

	assert.Equal(t, Bands{{Min: 50, Max: math.Inf(1), Points: 20}}, c.Scoring.Components.Technical.RSI)
	assert.Equal(t, 20.0, c.Scoring.Components.Technical.RSI.Points(75))
	assert.Zero(t, c.Scoring.Components.Technical.RSI.Points(49))
	assert.Equal(t, 5.0, c.Scoring.Components.Technical.PerSMAAbove)
	assert.False(t, c.Scoring.Catalyst.News.RequireMaterial)
	assert.Equal(t, 48.0, c.Scoring.Catalyst.News.FreshHours)
}

func TestScoring_ValidateTierAndBandTables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Scoring)
		field  string
	}{
		{
			name:   "tiers out of order",
			mutate: func(s *Scoring) { s.MarketCap.Mid = s.MarketCap.Large * 2 },
			field:  "scoring.market_cap",
		},
		{
			name:   "empty band",
			mutate: func(s *Scoring) { s.Components.Social.BullPct = Bands{{Min: 60, Max: 60, Points: 5}} },
			field:  "scoring.components.social.bull_pct[0]",
		},
		{
			name:   "base out of range",
			mutate: func(s *Scoring) { s.Components.Fundamental.Base = 120 },
			field:  "scoring.components",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScoring()
			tt.mutate(&s)

			var cfgErr *models.ConfigurationError
			require.ErrorAs(t, s.Validate(), &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestMarketCapTiers_TierFor(t *testing.T) {
	m := DefaultScoring().MarketCap

	assert.Equal(t, models.MarketCapTier(""), m.TierFor(0))
	assert.Equal(t, models.MarketCapTier(""), m.TierFor(math.NaN()))
	assert.Equal(t, models.TierNano, m.TierFor(10_000_000))
	assert.Equal(t, models.TierMicro, m.TierFor(50_000_000))
	assert.Equal(t, models.TierSmall, m.TierFor(1_000_000_000))
	assert.Equal(t, models.TierMid, m.TierFor(2_000_000_000))
	assert.Equal(t, models.TierLarge, m.TierFor(150_000_000_000))
	assert.Equal(t, models.TierMega, m.TierFor(3e12))
}
