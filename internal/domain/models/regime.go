package models

import "time"

// RegimeLabel is the macro market condition used to steer scoring weights.
type RegimeLabel string

const (
	RegimeRiskOn       RegimeLabel = "risk_on"
	RegimeRiskOff      RegimeLabel = "risk_off"
	RegimeInflationary RegimeLabel = "inflationary"
	RegimeNeutral      RegimeLabel = "neutral"
)

// RegimeLabels lists every label in a fixed order.
var RegimeLabels = []RegimeLabel{RegimeRiskOn, RegimeRiskOff, RegimeInflationary, RegimeNeutral}

func (l RegimeLabel) Valid() bool {
	switch l {
	case RegimeRiskOn, RegimeRiskOff, RegimeInflationary, RegimeNeutral:
		return true
	}
	return false
}

// MarketSignal is one macro observation. Rebuilt per scoring run.
type MarketSignal struct {
	Name      string    `json:"name" validate:"required"`
	Value     float64   `json:"value"`
	AsOf      time.Time `json:"as_of"`
	IsMissing bool      `json:"is_missing"`
}

// SignalVote records how one available signal voted.
type SignalVote struct {
	Name   string      `json:"name"`
	Value  float64     `json:"value"`
	Weight float64     `json:"weight"`
	Vote   RegimeLabel `json:"vote"`
}

// RegimeState is produced once per run and never modified afterwards.
type RegimeState struct {
	Label               RegimeLabel             `json:"label"`
	Confidence          float64                 `json:"confidence"`
	ContributingSignals []SignalVote            `json:"contributing_signals"`
	MissingSignals      []string                `json:"missing_signals,omitempty"`
	Tally               map[RegimeLabel]float64 `json:"tally"`
}
