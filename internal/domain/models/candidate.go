package models

type AssetClass string

const (
	AssetEquity    AssetClass = "equity"
	AssetCrypto    AssetClass = "crypto"
	AssetCommodity AssetClass = "commodity"
)

func (a AssetClass) Valid() bool {
	switch a {
	case AssetEquity, AssetCrypto, AssetCommodity:
		return true
	}
	return false
}

type MarketCapTier string

const (
	TierMega  MarketCapTier = "mega"
	TierLarge MarketCapTier = "large"
	TierMid   MarketCapTier = "mid"
	TierSmall MarketCapTier = "small"
	TierMicro MarketCapTier = "micro"
	TierNano  MarketCapTier = "nano"
)

func (t MarketCapTier) Valid() bool {
	switch t {
	case TierMega, TierLarge, TierMid, TierSmall, TierMicro, TierNano:
		return true
	}
	return false
}

type LiquidityTier string

const (
	LiquidityHigh   LiquidityTier = "high"
	LiquidityMedium LiquidityTier = "medium"
	LiquidityLow    LiquidityTier = "low"
)

func (t LiquidityTier) Valid() bool {
	switch t {
	case LiquidityHigh, LiquidityMedium, LiquidityLow:
		return true
	}
	return false
}

// Rank orders liquidity tiers for tie-breaking (higher is more liquid).
func (t LiquidityTier) Rank() int {
	switch t {
	case LiquidityHigh:
		return 3
	case LiquidityMedium:
		return 2
	case LiquidityLow:
		return 1
	}
	return 0
}

type ConfirmationStatus string

const (
	StatusConfirmed   ConfirmationStatus = "confirmed"
	StatusPartial     ConfirmationStatus = "partial"
	StatusUnconfirmed ConfirmationStatus = "unconfirmed"
)

// Rank orders statuses for tie-breaking (confirmed > partial > unconfirmed).
func (s ConfirmationStatus) Rank() int {
	switch s {
	case StatusConfirmed:
		return 3
	case StatusPartial:
		return 2
	case StatusUnconfirmed:
		return 1
	}
	return 0
}

// Weaker returns the lower-ranked of the two statuses.
func (s ConfirmationStatus) Weaker(o ConfirmationStatus) ConfirmationStatus {
	if o.Rank() < s.Rank() {
		return o
	}
	return s
}

// Classification labels produced by the guardrails.
const (
	ClassBuy              = "Buy"
	ClassDiscoveryBuy     = "Discovery Buy"
	ClassSpeculativeWatch = "Speculative/Watch"
)

// Completeness categories penalised by the composite scorer.
const (
	MissingFundamentals = "fundamentals"
	MissingOHLC         = "ohlc"
	MissingVolume       = "volume"
	MissingNews         = "news"
	MissingSocial       = "social"
	MissingCatalyst     = "catalyst"
)

// CompletenessCategories are the penalised categories in evaluation order.
var CompletenessCategories = []string{
	MissingFundamentals, MissingOHLC, MissingVolume, MissingNews, MissingSocial,
}

// ComponentScores are upstream 0-100 scores. Nil means the data was unavailable.
type ComponentScores struct {
	Technical   *float64 `json:"technical,omitempty" validate:"omitempty,gte=0,lte=100"`
	Fundamental *float64 `json:"fundamental,omitempty" validate:"omitempty,gte=0,lte=100"`
	Sentiment   *float64 `json:"sentiment,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// TechnicalInput holds raw indicator values. Used when no precomputed
// technical score is supplied.
type TechnicalInput struct {
	RSI    *float64 `json:"rsi,omitempty" validate:"omitempty,gte=0,lte=100"`
	Price  float64  `json:"price" validate:"gte=0"`
	SMA20  float64  `json:"sma_20" validate:"gte=0"`
	SMA50  float64  `json:"sma_50" validate:"gte=0"`
	SMA200 float64  `json:"sma_200" validate:"gte=0"`
	// VolumeRatio is session volume over average volume.
	VolumeRatio *float64 `json:"volume_ratio,omitempty" validate:"omitempty,gte=0"`
	// ChangePct is the fractional price change, 0.05 meaning +5%.
	ChangePct *float64 `json:"change_pct,omitempty"`
}

// FundamentalMetrics holds raw fundamental data.
type FundamentalMetrics struct {
	// RevenueGrowth is fractional year-over-year growth.
	RevenueGrowth     *float64 `json:"revenue_growth,omitempty"`
	InsiderMSPR       *float64 `json:"insider_mspr,omitempty" validate:"omitempty,gte=-100,lte=100"`
	EarningsScheduled bool     `json:"earnings_scheduled"`
}

// SocialInput holds raw crowd sentiment.
type SocialInput struct {
	BullPct        *float64 `json:"bull_pct,omitempty" validate:"omitempty,gte=0,lte=100"`
	WatchersChange *float64 `json:"watchers_change,omitempty"`
	// XSentiment in [-1, 1].
	XSentiment *float64 `json:"x_sentiment,omitempty" validate:"omitempty,gte=-1,lte=1"`
	RiskFlags  int      `json:"risk_flags" validate:"gte=0"`
}

// RawComponents feed the component scorer. A nil group means no raw data.
type RawComponents struct {
	Technical   *TechnicalInput     `json:"technical,omitempty"`
	Fundamental *FundamentalMetrics `json:"fundamental,omitempty"`
	Social      *SocialInput        `json:"social,omitempty"`
}

type NewsInput struct {
	// Sentiment in [-1, 1].
	Sentiment float64 `json:"sentiment" validate:"gte=-1,lte=1"`
	AgeHours  float64 `json:"age_hours" validate:"gte=0"`
	Material  bool    `json:"material"`
}

type EarningsInput struct {
	DaysSince   *int     `json:"days_since,omitempty"`
	DaysUntil   *int     `json:"days_until,omitempty"`
	SurprisePct *float64 `json:"surprise_pct,omitempty"`
	Confirmed   bool     `json:"confirmed"`
}

type InsiderInput struct {
	NetValueUSD float64 `json:"net_value_usd"`
	Buyers      int     `json:"buyers"`
	Sellers     int     `json:"sellers"`
}

type FundamentalInput struct {
	InflectionFlags []string `json:"inflection_flags"`
}

type VolumeInput struct {
	// Ratio of recent volume to its trailing average.
	ExpansionRatio float64 `json:"expansion_ratio" validate:"gte=0"`
}

// CatalystInputs is the raw event data. A nil factor means its data is missing.
type CatalystInputs struct {
	News        *NewsInput        `json:"news,omitempty"`
	Earnings    *EarningsInput    `json:"earnings,omitempty"`
	Insider     *InsiderInput     `json:"insider,omitempty"`
	Fundamental *FundamentalInput `json:"fundamental,omitempty"`
	Volume      *VolumeInput      `json:"volume,omitempty"`
}

func (c CatalystInputs) AllMissing() bool {
	return c.News == nil && c.Earnings == nil && c.Insider == nil && c.Fundamental == nil && c.Volume == nil
}

// DataFlags.Missing is append-only within a run.
type DataFlags struct {
	Missing []string `json:"missing"`
}

// AddMissing appends a category once. Existing entries are never removed.
func (f *DataFlags) AddMissing(category string) {
	for _, m := range f.Missing {
		if m == category {
			return
		}
	}
	f.Missing = append(f.Missing, category)
}

func (f DataFlags) Has(category string) bool {
	for _, m := range f.Missing {
		if m == category {
			return true
		}
	}
	return false
}

// Candidate is a tradable instrument under evaluation. The engine fills the
// scoring fields stage by stage; callers only supply the inputs. A zero
// MarketCap means the value is unknown.
type Candidate struct {
	Symbol          string          `json:"symbol" validate:"required"`
	AssetClass      AssetClass      `json:"asset_class" validate:"required,oneof=equity crypto commodity"`
	MarketCapTier   MarketCapTier   `json:"market_cap_tier,omitempty"`
	LiquidityTier   LiquidityTier   `json:"liquidity_tier,omitempty"`
	MarketCap       float64         `json:"market_cap,omitempty" validate:"gte=0"`
	AvgDollarVolume float64         `json:"avg_dollar_volume" validate:"gte=0"`
	SafeHaven       bool            `json:"safe_haven,omitempty"`
	SectorMomentum  *float64        `json:"sector_momentum,omitempty"`
	Components      ComponentScores `json:"component_scores"`
	Raw             RawComponents   `json:"raw_inputs"`
	Catalysts       CatalystInputs  `json:"catalysts"`
	DataFlags       DataFlags       `json:"data_flags"`

	CatalystScore      float64            `json:"catalyst_score"`
	CatalystPresent    bool               `json:"catalyst_present"`
	Multiplier         float64            `json:"multiplier"`
	CompositeScore     float64            `json:"composite_score"`
	Classification     string             `json:"classification"`
	PositionSizeCap    float64            `json:"position_size_cap"`
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`
	GateChecks         int                `json:"gate_checks"`
	Discovery          bool               `json:"discovery,omitempty"`
	NormalizedScore    float64            `json:"normalized_score"`
	RankScore          float64            `json:"rank_score"`
	Confluence         int                `json:"confluence"`
	Bucket             string             `json:"bucket,omitempty"`
	DataGaps           []string           `json:"data_gaps"`
	RationaleTags      []string           `json:"rationale_tags"`
	Breakdown          *ScoreBreakdown    `json:"breakdown,omitempty"`
}

// Segment is the rule-table key of the candidate, e.g. "equity:mega".
// Safe-haven commodities use the "commodity:safe_haven" segment.
func (c *Candidate) Segment() string {
	if c.AssetClass == AssetCommodity && c.SafeHaven {
		return string(AssetCommodity) + ":safe_haven"
	}
	if c.MarketCapTier == "" {
		return string(c.AssetClass)
	}
	return string(c.AssetClass) + ":" + string(c.MarketCapTier)
}

func (c *Candidate) AddGap(gap string) {
	for _, g := range c.DataGaps {
		if g == gap {
			return
		}
	}
	c.DataGaps = append(c.DataGaps, gap)
}

func (c *Candidate) AddTag(tag string) {
	for _, t := range c.RationaleTags {
		if t == tag {
			return
		}
	}
	c.RationaleTags = append(c.RationaleTags, tag)
}

// Clone returns a deep copy of the inputs so a run never writes into caller memory.
func (c Candidate) Clone() Candidate {
	out := c
	out.DataFlags.Missing = append([]string(nil), c.DataFlags.Missing...)
	out.DataGaps = append([]string(nil), c.DataGaps...)
	out.RationaleTags = append([]string(nil), c.RationaleTags...)
	if c.Catalysts.Fundamental != nil {
		f := *c.Catalysts.Fundamental
		f.InflectionFlags = append([]string(nil), f.InflectionFlags...)
		out.Catalysts.Fundamental = &f
	}
	out.Breakdown = nil
	return out
}
