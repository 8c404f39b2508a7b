package models

import "time"

// WeightVector is a weighting over the four composite components.
type WeightVector struct {
	Technical   float64 `json:"technical" yaml:"technical"`
	Fundamental float64 `json:"fundamental" yaml:"fundamental"`
	Catalyst    float64 `json:"catalyst" yaml:"catalyst"`
	Sentiment   float64 `json:"sentiment" yaml:"sentiment"`
}

func (w WeightVector) Sum() float64 {
	return w.Technical + w.Fundamental + w.Catalyst + w.Sentiment
}

// Blend interpolates linearly from w (t=0) to o (t=1).
func (w WeightVector) Blend(o WeightVector, t float64) WeightVector {
	mix := func(a, b float64) float64 { return a*(1-t) + b*t }
	return WeightVector{
		Technical:   mix(w.Technical, o.Technical),
		Fundamental: mix(w.Fundamental, o.Fundamental),
		Catalyst:    mix(w.Catalyst, o.Catalyst),
		Sentiment:   mix(w.Sentiment, o.Sentiment),
	}
}

type CatalystContribution struct {
	Factor string  `json:"factor"`
	Points float64 `json:"points"`
}

type Penalty struct {
	Category string  `json:"category"`
	Rate     float64 `json:"rate"`
}

// ScoreBreakdown is the audit record of how a composite was produced.
// It is written once by the scorer and never recomputed.
type ScoreBreakdown struct {
	Components         WeightVector           `json:"components"`
	Substituted        []string               `json:"substituted,omitempty"`
	Derived            []string               `json:"derived,omitempty"`
	Catalyst           []CatalystContribution `json:"catalyst"`
	BaseWeights        WeightVector           `json:"base_weights"`
	RegimeWeights      WeightVector           `json:"regime_weights"`
	EffectiveWeights   WeightVector           `json:"effective_weights"`
	RegimeLabel        RegimeLabel            `json:"regime_label"`
	RegimeConfidence   float64                `json:"regime_confidence"`
	RawComposite       float64                `json:"raw_composite"`
	Penalties          []Penalty              `json:"penalties,omitempty"`
	CompletenessFactor float64                `json:"completeness_factor"`
	RegimeAdjustment   float64                `json:"regime_adjustment"`
	LiquidityPenalty   float64                `json:"liquidity_penalty"`
	AssetMultiplier    float64                `json:"asset_multiplier"`
	Composite          float64                `json:"composite"`
}

// Rejection is an audit entry for a candidate excluded from the ranking.
type Rejection struct {
	Symbol     string     `json:"symbol"`
	AssetClass AssetClass `json:"asset_class"`
	Stage      string     `json:"stage"`
	Reason     string     `json:"reason"`
}

// Rejection stages.
const (
	StageInvalidInput = "invalid_input"
	StageDuplicate    = "duplicate_symbol"
	StageHardFilter   = "hard_filter"
	StageConfluence   = "confluence"
	StageTruncated    = "truncated"
)

type QuotaShortfall struct {
	Bucket string `json:"bucket"`
	Need   int    `json:"need"`
	Have   int    `json:"have"`
}

type Bucket struct {
	Name       string      `json:"name"`
	Quota      int         `json:"quota"`
	Candidates []Candidate `json:"candidates"`
}

// RankedResult is the bounded output of one scoring run.
type RankedResult struct {
	RunID           string           `json:"run_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Regime          RegimeState      `json:"regime"`
	Buckets         []Bucket         `json:"buckets"`
	Picks           []Candidate      `json:"picks"`
	Rejections      []Rejection      `json:"rejections"`
	QuotaShortfalls []QuotaShortfall `json:"quota_shortfalls,omitempty"`
	Scored          int              `json:"scored"`
}
