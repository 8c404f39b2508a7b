package scoring

import (
	"math"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
	applogger "FinRank/pkg/logger"
)

// RegimeDetector classifies the macro regime by weighted majority vote.
type RegimeDetector struct {
	rules config.RegimeRules
	l     *applogger.Logger
}

func NewRegimeDetector(rules config.RegimeRules) *RegimeDetector {
	return &RegimeDetector{rules: rules}
}

// SetLogger injects a structured logger.
func (d *RegimeDetector) SetLogger(l *applogger.Logger) { d.l = l }

// Detect casts one vote per available configured signal. Missing signals
// abstain and scale confidence down by the missing fraction. A tie on the top
// weight resolves to neutral.
func (d *RegimeDetector) Detect(signals []models.MarketSignal) (models.RegimeState, error) {
	byName := make(map[string]models.MarketSignal, len(signals))
	for _, s := range signals {
		if _, dup := byName[s.Name]; dup {
			continue
		}
		byName[s.Name] = s
	}

	tally := make(map[models.RegimeLabel]float64, len(models.RegimeLabels))
	for _, label := range models.RegimeLabels {
		tally[label] = 0
	}

	var (
		votes     []models.SignalVote
		missing   []string
		available float64
	)
	for _, rule := range d.rules.Signals {
		s, ok := byName[rule.Name]
		if !ok || s.IsMissing || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			missing = append(missing, rule.Name)
			continue
		}
		vote := models.RegimeNeutral
		for _, r := range rule.Rules {
			if r.Match(s.Value) {
				vote = r.Vote
				break
			}
		}
		tally[vote] += rule.Weight
		available += rule.Weight
		votes = append(votes, models.SignalVote{Name: rule.Name, Value: s.Value, Weight: rule.Weight, Vote: vote})
	}

	if len(votes) == 0 {
		return models.RegimeState{}, &models.InsufficientSignalError{Expected: len(d.rules.Signals)}
	}

	label, top, tied := models.RegimeNeutral, -1.0, false
	for _, l := range models.RegimeLabels {
		w := tally[l]
		switch {
		case w > top:
			label, top, tied = l, w, false
		case w == top:
			tied = true
		}
	}
	if tied {
		label = models.RegimeNeutral
	}

	missingFrac := float64(len(missing)) / float64(len(d.rules.Signals))
	confidence := clamp(top/available*(1-missingFrac), 0, 1)

	if d.l != nil {
		d.l.Debug("regime detected",
			applogger.String("label", string(label)),
			applogger.Float64("confidence", confidence),
			applogger.Int("voted", len(votes)),
			applogger.Strings("missing", missing),
		)
	}

	return models.RegimeState{
		Label:               label,
		Confidence:          confidence,
		ContributingSignals: votes,
		MissingSignals:      missing,
		Tally:               tally,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
