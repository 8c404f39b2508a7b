package config

import (
	"fmt"
	"math"
	"strings"

	"FinRank/internal/domain/models"
)

// weightTolerance bounds how far a weight vector may drift from 1.0.
const weightTolerance = 0.01

// Scoring holds every rule table the engine reads. YAML overlays replace
// whole rows: a regime key replaces that regime's map, a list replaces the list.
type Scoring struct {
	Regime       RegimeRules      `yaml:"regime"`
	Catalyst     CatalystTable    `yaml:"catalyst"`
	AssetWeights AssetWeightTable `yaml:"asset_weights"`
	Composite    CompositeTable   `yaml:"composite"`
	Guardrails   GuardrailTable   `yaml:"guardrails"`
	Ranker       RankerTable      `yaml:"ranker"`
	Liquidity    LiquidityTiers   `yaml:"liquidity"`
	MarketCap    MarketCapTiers   `yaml:"market_cap"`
	Components   ComponentTable   `yaml:"components"`
}

type RegimeRules struct {
	Signals []SignalRule `yaml:"signals"`
}

// SignalRule maps one named signal to a vote. The first matching rule wins;
// a signal matching no rule votes neutral.
type SignalRule struct {
	Name   string          `yaml:"name"`
	Weight float64         `yaml:"weight"`
	Rules  []ThresholdRule `yaml:"rules"`
}

type ThresholdRule struct {
	Op        string             `yaml:"op"`
	Threshold float64            `yaml:"threshold"`
	Vote      models.RegimeLabel `yaml:"vote"`
}

func (r ThresholdRule) Match(v float64) bool {
	switch r.Op {
	case "gt":
		return v > r.Threshold
	case "gte":
		return v >= r.Threshold
	case "lt":
		return v < r.Threshold
	case "lte":
		return v <= r.Threshold
	}
	return false
}

type PointsWindow struct {
	Points     float64 `yaml:"points"`
	WindowDays int     `yaml:"window_days"`
}

type CatalystTable struct {
	EarningsBeat     PointsWindow `yaml:"earnings_beat"`
	EarningsUpcoming PointsWindow `yaml:"earnings_upcoming"`
	InsiderBuying    struct {
		Points      float64 `yaml:"points"`
		MinNetValue float64 `yaml:"min_net_value"`
	} `yaml:"insider_buying"`
	News struct {
		MaxPoints       float64 `yaml:"max_points"`
		FreshHours      float64 `yaml:"fresh_hours"`
		RequireMaterial bool    `yaml:"require_material"`
	} `yaml:"news"`
	FundamentalInflection struct {
		PointsPerFlag float64 `yaml:"points_per_flag"`
		MaxPoints     float64 `yaml:"max_points"`
	} `yaml:"fundamental_inflection"`
	VolumeExpansion struct {
		MinRatio       float64 `yaml:"min_ratio"`
		PointsPerRatio float64 `yaml:"points_per_ratio"`
		MaxPoints      float64 `yaml:"max_points"`
	} `yaml:"volume_expansion"`
}

type LiquidityPenalty struct {
	ADVThreshold float64 `yaml:"adv_threshold"`
	MaxPenalty   float64 `yaml:"max_penalty"`
}

// AssetWeightTable drives the cross-asset multiplier. Adjustments are keyed by
// segment ("class:tier"), falling back to the bare asset class.
type AssetWeightTable struct {
	Base             float64                                   `yaml:"base"`
	Min              float64                                   `yaml:"min"`
	Max              float64                                   `yaml:"max"`
	Adjustments      map[models.RegimeLabel]map[string]float64 `yaml:"adjustments"`
	LiquidityPenalty map[models.MarketCapTier]LiquidityPenalty `yaml:"liquidity_penalty"`
}

// Adjustment returns the additive adjustment for a segment under a regime.
func (t AssetWeightTable) Adjustment(label models.RegimeLabel, segment string) float64 {
	row := t.Adjustments[label]
	if row == nil {
		return 0
	}
	if v, ok := row[segment]; ok {
		return v
	}
	if i := strings.IndexByte(segment, ':'); i > 0 {
		return row[segment[:i]]
	}
	return 0
}

type CompositeTable struct {
	BaseWeights   models.WeightVector                        `yaml:"base_weights"`
	RegimeWeights map[models.RegimeLabel]models.WeightVector `yaml:"regime_weights"`
	NeutralValue  float64                                    `yaml:"neutral_value"`
	// Penalties are keyed by completeness category.
	Penalties  map[string]float64 `yaml:"penalties"`
	MaxPenalty float64            `yaml:"max_penalty"`
}

type SizeBracket struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type GuardrailTable struct {
	Brackets map[models.RegimeLabel]SizeBracket `yaml:"brackets"`
	// TierCaps are keyed "tier_liquidity", e.g. "micro_medium".
	TierCaps     map[string]float64 `yaml:"tier_caps"`
	TechnicalMin float64            `yaml:"technical_min"`
	MinChecks    int                `yaml:"min_checks"`
	Discovery    struct {
		SentimentMin         float64 `yaml:"sentiment_min"`
		VolumeSubScoreMin    float64 `yaml:"volume_sub_score_min"`
		FundamentalsOverride float64 `yaml:"fundamentals_override"`
		Cap                  float64 `yaml:"cap"`
	} `yaml:"discovery"`
}

type HardFilter struct {
	MinMarketCap       float64 `yaml:"min_market_cap"`
	MinAvgDollarVolume float64 `yaml:"min_avg_dollar_volume"`
}

type Tilt struct {
	Speculative float64 `yaml:"speculative"`
	Defensive   float64 `yaml:"defensive"`
}

type Quota struct {
	Bucket  string `yaml:"bucket"`
	Minimum int    `yaml:"minimum"`
}

type RankerTable struct {
	// Normalization is "minmax" or "zscore".
	Normalization string                           `yaml:"normalization"`
	HardFilters   map[models.AssetClass]HardFilter `yaml:"hard_filters"`
	Confluence    struct {
		Minimum           int     `yaml:"minimum"`
		Technical         float64 `yaml:"technical"`
		Sentiment         float64 `yaml:"sentiment"`
		SectorMomentumMin float64 `yaml:"sector_momentum_min"`
	} `yaml:"confluence"`
	RegimeTilt          map[models.RegimeLabel]Tilt `yaml:"regime_tilt"`
	SpeculativeSegments []string                    `yaml:"speculative_segments"`
	DefensiveSegments   []string                    `yaml:"defensive_segments"`
	Quotas              []Quota                     `yaml:"quotas"`
	MaxPicks            int                         `yaml:"max_picks"`
}

// LiquidityTiers derive a liquidity tier from average dollar volume when the
// upstream feed did not supply one.
type LiquidityTiers struct {
	HighADV   float64 `yaml:"high_adv"`
	MediumADV float64 `yaml:"medium_adv"`
}

func (l LiquidityTiers) TierFor(adv float64) models.LiquidityTier {
	switch {
	case adv >= l.HighADV:
		return models.LiquidityHigh
	case adv >= l.MediumADV:
		return models.LiquidityMedium
	}
	return models.LiquidityLow
}

// MarketCapTiers derive a market cap tier from market cap when the feed did
// not supply one. Each value is the lower bound of its tier; anything below
// Micro is nano.
type MarketCapTiers struct {
	Mega  float64 `yaml:"mega"`
	Large float64 `yaml:"large"`
	Mid   float64 `yaml:"mid"`
	Small float64 `yaml:"small"`
	Micro float64 `yaml:"micro"`
}

// TierFor returns "" for an unknown (non-positive) market cap.
func (m MarketCapTiers) TierFor(mcap float64) models.MarketCapTier {
	switch {
	case mcap <= 0 || math.IsNaN(mcap):
		return ""
	case mcap >= m.Mega:
		return models.TierMega
	case mcap >= m.Large:
		return models.TierLarge
	case mcap >= m.Mid:
		return models.TierMid
	case mcap >= m.Small:
		return models.TierSmall
	case mcap >= m.Micro:
		return models.TierMicro
	}
	return models.TierNano
}

// Band awards Points to values in [Min, Max). YAML accepts .inf and -.inf.
type Band struct {
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
	Points float64 `yaml:"points"`
}

// Bands are matched in order; the first band containing the value wins.
type Bands []Band

func (b Bands) Points(v float64) float64 {
	for _, band := range b {
		if v >= band.Min && v < band.Max {
			return band.Points
		}
	}
	return 0
}

// ComponentTable scores raw indicator and metric inputs onto 0-100 when no
// precomputed component score is supplied.
type ComponentTable struct {
	Technical struct {
		Base        float64 `yaml:"base"`
		RSI         Bands   `yaml:"rsi"`
		PerSMAAbove float64 `yaml:"per_sma_above"`
		VolumeRatio Bands   `yaml:"volume_ratio"`
		ChangePct   Bands   `yaml:"change_pct"`
	} `yaml:"technical"`
	Fundamental struct {
		Base              float64 `yaml:"base"`
		EarningsScheduled float64 `yaml:"earnings_scheduled"`
		RevenueGrowth     Bands   `yaml:"revenue_growth"`
		InsiderMSPR       Bands   `yaml:"insider_mspr"`
	} `yaml:"fundamental"`
	Social struct {
		Base            float64 `yaml:"base"`
		BullPct         Bands   `yaml:"bull_pct"`
		WatchersRising  float64 `yaml:"watchers_rising"`
		XSentiment      Bands   `yaml:"x_sentiment"`
		RiskFlagPenalty float64 `yaml:"risk_flag_penalty"`
	} `yaml:"social"`
}

// Buckets the ranker knows how to fill.
const (
	BucketEquityLarge = "equity_large"
	BucketEquityMid   = "equity_mid"
	BucketEquitySmall = "equity_small"
	BucketCrypto      = "crypto"
	BucketCommodity   = "commodity"
)

var knownBuckets = map[string]bool{
	BucketEquityLarge: true, BucketEquityMid: true, BucketEquitySmall: true,
	BucketCrypto: true, BucketCommodity: true,
}

// DefaultScoring returns the stock rule tables.
func DefaultScoring() Scoring {
	var s Scoring

	s.Regime.Signals = []SignalRule{
		{Name: "volatility_index", Weight: 2.0, Rules: []ThresholdRule{
			{Op: "gte", Threshold: 25, Vote: models.RegimeRiskOff},
			{Op: "lt", Threshold: 16, Vote: models.RegimeRiskOn},
		}},
		{Name: "index_trend", Weight: 1.5, Rules: []ThresholdRule{
			{Op: "gte", Threshold: 0.02, Vote: models.RegimeRiskOn},
			{Op: "lte", Threshold: -0.02, Vote: models.RegimeRiskOff},
		}},
		{Name: "rate_trend", Weight: 1.0, Rules: []ThresholdRule{
			{Op: "gte", Threshold: 0.15, Vote: models.RegimeInflationary},
			{Op: "lte", Threshold: -0.15, Vote: models.RegimeRiskOn},
		}},
		{Name: "rate_level", Weight: 0.5, Rules: []ThresholdRule{
			{Op: "gte", Threshold: 5.0, Vote: models.RegimeInflationary},
		}},
		{Name: "currency_strength", Weight: 1.0, Rules: []ThresholdRule{
			{Op: "gte", Threshold: 0.015, Vote: models.RegimeInflationary},
			{Op: "lte", Threshold: -0.015, Vote: models.RegimeRiskOn},
		}},
		{Name: "crypto_trend", Weight: 1.0, Rules: []ThresholdRule{
			{Op: "gte", Threshold: 0.05, Vote: models.RegimeRiskOn},
			{Op: "lte", Threshold: -0.05, Vote: models.RegimeRiskOff},
		}},
	}

	s.Catalyst.EarningsBeat = PointsWindow{Points: 25, WindowDays: 14}
	s.Catalyst.EarningsUpcoming = PointsWindow{Points: 10, WindowDays: 7}
	s.Catalyst.InsiderBuying.Points = 15
	s.Catalyst.News.MaxPoints = 30
	s.Catalyst.News.FreshHours = 48
	s.Catalyst.News.RequireMaterial = true
	s.Catalyst.FundamentalInflection.PointsPerFlag = 10
	s.Catalyst.FundamentalInflection.MaxPoints = 20
	s.Catalyst.VolumeExpansion.MinRatio = 1.5
	s.Catalyst.VolumeExpansion.PointsPerRatio = 20
	s.Catalyst.VolumeExpansion.MaxPoints = 20

	s.AssetWeights = AssetWeightTable{
		Base: 1.0,
		Min:  0.75,
		Max:  1.25,
		Adjustments: map[models.RegimeLabel]map[string]float64{
			models.RegimeRiskOff: {
				"equity:mega": 0.10, "equity:large": 0.08, "equity:mid": 0,
				"equity:small": -0.08, "equity:micro": -0.15, "equity:nano": -0.20,
				"crypto:large": -0.05, "crypto": -0.15,
				"commodity:safe_haven": 0.15, "commodity": 0.12,
			},
			models.RegimeRiskOn: {
				"equity:mega": 0, "equity:large": 0.02, "equity:mid": 0.05,
				"equity:small": 0.08, "equity:micro": 0.10, "equity:nano": 0.10,
				"crypto:large": 0.08, "crypto": 0.12,
				"commodity:safe_haven": -0.08, "commodity": -0.05,
			},
			models.RegimeInflationary: {
				"equity:mega": 0.02, "equity": -0.03,
				"crypto:large": 0, "crypto": -0.05,
				"commodity": 0.15,
			},
			models.RegimeNeutral: {},
		},
		LiquidityPenalty: map[models.MarketCapTier]LiquidityPenalty{
			models.TierNano:  {ADVThreshold: 1_000_000, MaxPenalty: 0.20},
			models.TierMicro: {ADVThreshold: 1_000_000, MaxPenalty: 0.12},
		},
	}

	base := models.WeightVector{Technical: 0.30, Fundamental: 0.30, Catalyst: 0.20, Sentiment: 0.20}
	s.Composite = CompositeTable{
		BaseWeights: base,
		RegimeWeights: map[models.RegimeLabel]models.WeightVector{
			models.RegimeRiskOff:      {Technical: 0.20, Fundamental: 0.40, Catalyst: 0.25, Sentiment: 0.15},
			models.RegimeRiskOn:       {Technical: 0.35, Fundamental: 0.20, Catalyst: 0.20, Sentiment: 0.25},
			models.RegimeInflationary: {Technical: 0.25, Fundamental: 0.35, Catalyst: 0.25, Sentiment: 0.15},
			models.RegimeNeutral:      base,
		},
		NeutralValue: 50,
		Penalties: map[string]float64{
			models.MissingFundamentals: 0.10,
			models.MissingOHLC:         0.08,
			models.MissingVolume:       0.07,
			models.MissingNews:         0.05,
			models.MissingSocial:       0.05,
		},
		MaxPenalty: 0.25,
	}

	s.Guardrails = GuardrailTable{
		Brackets: map[models.RegimeLabel]SizeBracket{
			models.RegimeRiskOn:       {Min: 5, Max: 8},
			models.RegimeRiskOff:      {Min: 2, Max: 3},
			models.RegimeInflationary: {Min: 3, Max: 5},
			models.RegimeNeutral:      {Min: 3, Max: 5},
		},
		TierCaps: map[string]float64{
			"nano_low": 0.5, "nano_medium": 1.0, "nano_high": 1.5,
			"micro_low": 1.0, "micro_medium": 2.0, "micro_high": 3.0,
		},
		TechnicalMin: 65,
		MinChecks:    2,
	}
	s.Guardrails.Discovery.SentimentMin = 85
	s.Guardrails.Discovery.VolumeSubScoreMin = 10
	s.Guardrails.Discovery.FundamentalsOverride = 70
	s.Guardrails.Discovery.Cap = 2

	s.Ranker = RankerTable{
		Normalization: "minmax",
		HardFilters: map[models.AssetClass]HardFilter{
			models.AssetEquity:    {MinMarketCap: 50_000_000, MinAvgDollarVolume: 500_000},
			models.AssetCrypto:    {MinMarketCap: 100_000_000, MinAvgDollarVolume: 1_000_000},
			models.AssetCommodity: {MinAvgDollarVolume: 1_000_000},
		},
		RegimeTilt: map[models.RegimeLabel]Tilt{
			models.RegimeRiskOff: {Speculative: -0.10, Defensive: 0.10},
			models.RegimeRiskOn:  {Speculative: 0.10, Defensive: -0.05},
		},
		SpeculativeSegments: []string{"equity:small", "equity:micro", "equity:nano", "crypto", "crypto:mid", "crypto:small", "crypto:micro", "crypto:nano"},
		DefensiveSegments:   []string{"equity:mega", "equity:large", "commodity:safe_haven"},
		Quotas: []Quota{
			{Bucket: BucketEquityLarge, Minimum: 1},
			{Bucket: BucketEquityMid, Minimum: 2},
			{Bucket: BucketEquitySmall, Minimum: 2},
			{Bucket: BucketCrypto, Minimum: 2},
			{Bucket: BucketCommodity, Minimum: 2},
		},
		MaxPicks: 18,
	}
	s.Ranker.Confluence.Minimum = 3
	s.Ranker.Confluence.Technical = 60
	s.Ranker.Confluence.Sentiment = 60
	s.Ranker.Confluence.SectorMomentumMin = 0

	s.Liquidity = LiquidityTiers{HighADV: 20_000_000, MediumADV: 1_000_000}
	s.MarketCap = MarketCapTiers{
		Mega:  200_000_000_000,
		Large: 10_000_000_000,
		Mid:   2_000_000_000,
		Small: 300_000_000,
		Micro: 50_000_000,
	}

	inf := math.Inf(1)
	ct := &s.Components
	ct.Technical.Base = 50
	ct.Technical.RSI = Bands{
		{Min: 40, Max: 70, Points: 15},
		{Min: 30, Max: 40, Points: 5},
		{Min: 70, Max: 80, Points: 5},
		{Min: 80, Max: inf, Points: -10},
		{Min: 0, Max: 30, Points: 8},
	}
	ct.Technical.PerSMAAbove = 5
	ct.Technical.VolumeRatio = Bands{
		{Min: 3, Max: inf, Points: 15},
		{Min: 2, Max: 3, Points: 10},
		{Min: 1.5, Max: 2, Points: 5},
	}
	ct.Technical.ChangePct = Bands{
		{Min: 0.01, Max: 0.10, Points: 5},
		{Min: 0.15, Max: inf, Points: -5},
	}
	ct.Fundamental.Base = 30
	ct.Fundamental.EarningsScheduled = 10
	ct.Fundamental.RevenueGrowth = Bands{
		{Min: 0.20, Max: inf, Points: 10},
		{Min: 0.10, Max: 0.20, Points: 5},
	}
	ct.Fundamental.InsiderMSPR = Bands{
		{Min: 10, Max: inf, Points: 10},
		{Min: 0.1, Max: 10, Points: 5},
	}
	ct.Social.Base = 30
	ct.Social.BullPct = Bands{
		{Min: 75, Max: inf, Points: 25},
		{Min: 60, Max: 75, Points: 15},
		{Min: 50, Max: 60, Points: 5},
	}
	ct.Social.WatchersRising = 10
	ct.Social.XSentiment = Bands{
		{Min: 0.5, Max: inf, Points: 20},
		{Min: 0.2, Max: 0.5, Points: 10},
		{Min: math.Inf(-1), Max: -0.3, Points: -10},
	}
	ct.Social.RiskFlagPenalty = 15
	return s
}

func checkBands(field string, b Bands) error {
	for i, band := range b {
		if math.IsNaN(band.Min) || math.IsNaN(band.Max) || math.IsNaN(band.Points) || band.Min >= band.Max {
			return cfgErr(fmt.Sprintf("%s[%d]", field, i), "band needs min < max")
		}
	}
	return nil
}

func cfgErr(field, format string, a ...interface{}) error {
	return &models.ConfigurationError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

func checkVector(field string, w models.WeightVector) error {
	for _, v := range []float64{w.Technical, w.Fundamental, w.Catalyst, w.Sentiment} {
		if v < 0 || math.IsNaN(v) {
			return cfgErr(field, "weights must be non-negative")
		}
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return cfgErr(field, "weights sum to %.3f, expected 1.0", w.Sum())
	}
	return nil
}

// Validate rejects malformed rule tables with a *models.ConfigurationError.
func (s *Scoring) Validate() error {
	if len(s.Regime.Signals) == 0 {
		return cfgErr("scoring.regime.signals", "at least one signal rule is required")
	}
	seen := make(map[string]bool, len(s.Regime.Signals))
	for i, sig := range s.Regime.Signals {
		field := fmt.Sprintf("scoring.regime.signals[%d]", i)
		if sig.Name == "" {
			return cfgErr(field, "name is required")
		}
		if seen[sig.Name] {
			return cfgErr(field, "duplicate signal %q", sig.Name)
		}
		seen[sig.Name] = true
		if sig.Weight <= 0 {
			return cfgErr(field, "weight must be positive")
		}
		for _, r := range sig.Rules {
			switch r.Op {
			case "gt", "gte", "lt", "lte":
			default:
				return cfgErr(field, "unknown op %q", r.Op)
			}
			if !r.Vote.Valid() {
				return cfgErr(field, "unknown vote %q", r.Vote)
			}
		}
	}

	aw := s.AssetWeights
	if aw.Min <= 0 || aw.Max < aw.Min {
		return cfgErr("scoring.asset_weights", "min/max bounds invalid (%.2f, %.2f)", aw.Min, aw.Max)
	}
	if aw.Base < aw.Min || aw.Base > aw.Max {
		return cfgErr("scoring.asset_weights.base", "base %.2f outside [%.2f, %.2f]", aw.Base, aw.Min, aw.Max)
	}
	for tier, p := range aw.LiquidityPenalty {
		if p.MaxPenalty < 0 || p.MaxPenalty >= 1 || p.ADVThreshold < 0 {
			return cfgErr("scoring.asset_weights.liquidity_penalty."+string(tier), "max_penalty must be in [0,1) and threshold >= 0")
		}
	}

	c := s.Composite
	if err := checkVector("scoring.composite.base_weights", c.BaseWeights); err != nil {
		return err
	}
	for _, label := range models.RegimeLabels {
		w, ok := c.RegimeWeights[label]
		if !ok {
			return cfgErr("scoring.composite.regime_weights", "missing vector for %s", label)
		}
		if err := checkVector("scoring.composite.regime_weights."+string(label), w); err != nil {
			return err
		}
	}
	if c.NeutralValue < 0 || c.NeutralValue > 100 {
		return cfgErr("scoring.composite.neutral_value", "must be within [0,100]")
	}
	if c.MaxPenalty < 0 || c.MaxPenalty >= 1 {
		return cfgErr("scoring.composite.max_penalty", "must be in [0,1)")
	}
	for _, cat := range models.CompletenessCategories {
		p, ok := c.Penalties[cat]
		if !ok {
			return cfgErr("scoring.composite.penalties", "missing category %s", cat)
		}
		if p < 0 || p >= 1 {
			return cfgErr("scoring.composite.penalties."+cat, "must be in [0,1)")
		}
	}

	g := s.Guardrails
	for _, label := range models.RegimeLabels {
		b, ok := g.Brackets[label]
		if !ok {
			return cfgErr("scoring.guardrails.brackets", "missing bracket for %s", label)
		}
		if b.Min < 0 || b.Max < b.Min || b.Max > 100 {
			return cfgErr("scoring.guardrails.brackets."+string(label), "invalid bracket %.2f-%.2f", b.Min, b.Max)
		}
	}
	if g.MinChecks < 1 || g.MinChecks > 3 {
		return cfgErr("scoring.guardrails.min_checks", "must be between 1 and 3")
	}
	if g.Discovery.Cap <= 0 {
		return cfgErr("scoring.guardrails.discovery.cap", "must be positive")
	}

	r := s.Ranker
	if r.Normalization != "minmax" && r.Normalization != "zscore" {
		return cfgErr("scoring.ranker.normalization", "must be 'minmax' or 'zscore', got %q", r.Normalization)
	}
	if r.MaxPicks < 1 {
		return cfgErr("scoring.ranker.max_picks", "must be >= 1")
	}
	if r.Confluence.Minimum < 0 || r.Confluence.Minimum > 5 {
		return cfgErr("scoring.ranker.confluence.minimum", "must be between 0 and 5")
	}
	total := 0
	buckets := make(map[string]bool, len(r.Quotas))
	for i, q := range r.Quotas {
		field := fmt.Sprintf("scoring.ranker.quotas[%d]", i)
		if !knownBuckets[q.Bucket] {
			return cfgErr(field, "unknown bucket %q", q.Bucket)
		}
		if buckets[q.Bucket] {
			return cfgErr(field, "duplicate bucket %q", q.Bucket)
		}
		buckets[q.Bucket] = true
		if q.Minimum < 0 {
			return cfgErr(field, "minimum must be >= 0")
		}
		total += q.Minimum
	}
	if total > r.MaxPicks {
		return cfgErr("scoring.ranker.quotas", "quota minimums (%d) exceed max_picks (%d)", total, r.MaxPicks)
	}

	if s.Liquidity.HighADV < s.Liquidity.MediumADV {
		return cfgErr("scoring.liquidity", "high_adv must be >= medium_adv")
	}

	m := s.MarketCap
	if m.Micro <= 0 || m.Small < m.Micro || m.Mid < m.Small || m.Large < m.Mid || m.Mega < m.Large {
		return cfgErr("scoring.market_cap", "tier bounds must be positive and ascending from micro to mega")
	}

	ct := s.Components
	bands := []struct {
		field string
		b     Bands
	}{
		{"scoring.components.technical.rsi", ct.Technical.RSI},
		{"scoring.components.technical.volume_ratio", ct.Technical.VolumeRatio},
		{"scoring.components.technical.change_pct", ct.Technical.ChangePct},
		{"scoring.components.fundamental.revenue_growth", ct.Fundamental.RevenueGrowth},
		{"scoring.components.fundamental.insider_mspr", ct.Fundamental.InsiderMSPR},
		{"scoring.components.social.bull_pct", ct.Social.BullPct},
		{"scoring.components.social.x_sentiment", ct.Social.XSentiment},
	}
	for _, b := range bands {
		if err := checkBands(b.field, b.b); err != nil {
			return err
		}
	}
	for _, base := range []float64{ct.Technical.Base, ct.Fundamental.Base, ct.Social.Base} {
		if base < 0 || base > 100 {
			return cfgErr("scoring.components", "base scores must be within [0,100]")
		}
	}
	return nil
}
