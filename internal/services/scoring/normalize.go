package scoring

import (
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"
)

var errNoSpread = errors.New("0 spread")

// zScoreSpread maps a z-score onto the 0-100 scale: mean lands on 50 and
// each standard deviation moves the score by this many points.
const zScoreSpread = 15.0

// normalize rescales scores onto 0-100 using only the given pool. Pools
// smaller than two or without spread keep their raw scores.
func normalize(method string, scores []float64) []float64 {
	var (
		out []float64
		err error
	)
	switch method {
	case "zscore":
		out, err = zScores(scores)
	default:
		out, err = minMax(scores)
	}
	if err != nil {
		out = make([]float64, len(scores))
		for i, s := range scores {
			out[i] = clamp(s, 0, 100)
		}
	}
	return out
}

func minMax(scores []float64) ([]float64, error) {
	if len(scores) < 2 {
		return nil, fmt.Errorf("cannot normalize less than two values, got %d", len(scores))
	}
	lo, err := stats.Min(scores)
	if err != nil {
		return nil, err
	}
	hi, err := stats.Max(scores)
	if err != nil {
		return nil, err
	}
	if hi == lo {
		return nil, errNoSpread
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo) * 100
	}
	return out, nil
}

func zScores(scores []float64) ([]float64, error) {
	if len(scores) < 2 {
		return nil, fmt.Errorf("cannot compute z-score of less than two values, got %d", len(scores))
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return nil, err
	}
	stdev, err := stats.StandardDeviationSample(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate stdev: %w", err)
	}
	if stdev == 0 {
		return nil, errNoSpread
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = clamp(50+zScoreSpread*(s-mean)/stdev, 0, 100)
	}
	return out, nil
}
