package scoring

import (
	"math"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

// Catalyst factor names, in breakdown order.
const (
	FactorEarningsBeat     = "earnings_beat"
	FactorEarningsUpcoming = "earnings_upcoming"
	FactorInsiderBuying    = "insider_buying"
	FactorNews             = "news"
	FactorFundamental      = "fundamental_inflection"
	FactorVolumeExpansion  = "volume_expansion"
)

// CatalystResult is the catalyst score of one candidate.
type CatalystResult struct {
	Score         float64
	Contributions []models.CatalystContribution
	// Gaps name the input groups that were missing.
	Gaps []string
	// Present is true when the score is positive and backed by at least one
	// non-missing input group.
	Present bool
}

// Points returns the contribution of a factor, zero when absent.
func (r CatalystResult) Points(factor string) float64 {
	for _, c := range r.Contributions {
		if c.Factor == factor {
			return c.Points
		}
	}
	return 0
}

// CatalystEngine turns raw event data into capped point contributions.
// Missing inputs contribute nothing and are reported as gaps.
type CatalystEngine struct {
	t config.CatalystTable
}

func NewCatalystEngine(t config.CatalystTable) *CatalystEngine {
	return &CatalystEngine{t: t}
}

func (e *CatalystEngine) Score(in models.CatalystInputs) CatalystResult {
	var res CatalystResult
	add := func(factor string, pts float64) {
		res.Contributions = append(res.Contributions, models.CatalystContribution{Factor: factor, Points: pts})
	}

	if ev := in.Earnings; ev != nil {
		beat := 0.0
		if ev.Confirmed && ev.DaysSince != nil && *ev.DaysSince >= 0 && *ev.DaysSince <= e.t.EarningsBeat.WindowDays &&
			ev.SurprisePct != nil && *ev.SurprisePct > 0 {
			beat = e.t.EarningsBeat.Points
		}
		upcoming := 0.0
		if ev.DaysUntil != nil && *ev.DaysUntil >= 0 && *ev.DaysUntil <= e.t.EarningsUpcoming.WindowDays {
			upcoming = e.t.EarningsUpcoming.Points
		}
		add(FactorEarningsBeat, beat)
		add(FactorEarningsUpcoming, upcoming)
	} else {
		res.Gaps = append(res.Gaps, "earnings")
	}

	if ins := in.Insider; ins != nil {
		pts := 0.0
		if ins.NetValueUSD > e.t.InsiderBuying.MinNetValue && ins.NetValueUSD > 0 {
			pts = e.t.InsiderBuying.Points
		}
		add(FactorInsiderBuying, pts)
	} else {
		res.Gaps = append(res.Gaps, "insider")
	}

	if n := in.News; n != nil {
		pts := 0.0
		material := n.Material || !e.t.News.RequireMaterial
		if material && n.AgeHours <= e.t.News.FreshHours && n.Sentiment > 0 {
			pts = e.t.News.MaxPoints * math.Min(n.Sentiment, 1)
		}
		add(FactorNews, pts)
	} else {
		res.Gaps = append(res.Gaps, "news")
	}

	if f := in.Fundamental; f != nil {
		flags := make(map[string]struct{}, len(f.InflectionFlags))
		for _, fl := range f.InflectionFlags {
			if fl != "" {
				flags[fl] = struct{}{}
			}
		}
		pts := math.Min(float64(len(flags))*e.t.FundamentalInflection.PointsPerFlag, e.t.FundamentalInflection.MaxPoints)
		add(FactorFundamental, pts)
	} else {
		res.Gaps = append(res.Gaps, "fundamental_inflection")
	}

	if v := in.Volume; v != nil {
		pts := 0.0
		if v.ExpansionRatio >= e.t.VolumeExpansion.MinRatio {
			pts = math.Min((v.ExpansionRatio-1)*e.t.VolumeExpansion.PointsPerRatio, e.t.VolumeExpansion.MaxPoints)
		}
		add(FactorVolumeExpansion, math.Max(pts, 0))
	} else {
		res.Gaps = append(res.Gaps, "volume_expansion")
	}

	sum := 0.0
	for _, c := range res.Contributions {
		sum += c.Points
	}
	res.Score = clamp(sum, 0, 100)
	res.Present = res.Score > 0 && len(res.Contributions) > 0
	return res
}

// HasHardCatalyst reports a non-zero event catalyst that does not come from
// sentiment or volume: earnings, insider buying or fundamental inflection.
func (r CatalystResult) HasHardCatalyst() bool {
	for _, f := range []string{FactorEarningsBeat, FactorEarningsUpcoming, FactorInsiderBuying, FactorFundamental} {
		if r.Points(f) > 0 {
			return true
		}
	}
	return false
}
