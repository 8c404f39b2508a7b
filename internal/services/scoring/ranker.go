package scoring

import (
	"fmt"
	"sort"

	"FinRank/internal/domain/models"
	"FinRank/pkg/config"
)

// bucketOrder fixes the order buckets appear in a result.
var bucketOrder = []string{
	config.BucketEquityLarge, config.BucketEquityMid, config.BucketEquitySmall,
	config.BucketCrypto, config.BucketCommodity,
}

// confluenceSignals is the number of independent signal types checked.
const confluenceSignals = 5

// RankOutput is the ranker's part of a RankedResult.
type RankOutput struct {
	Buckets    []models.Bucket
	Picks      []models.Candidate
	Rejections []models.Rejection
	Shortfalls []models.QuotaShortfall
}

// Ranker normalizes within asset classes and selects a bounded, quota-aware
// pick list. Output order depends only on sort keys.
type Ranker struct {
	t           config.RankerTable
	speculative map[string]bool
	defensive   map[string]bool
}

func NewRanker(t config.RankerTable) *Ranker {
	r := &Ranker{t: t, speculative: map[string]bool{}, defensive: map[string]bool{}}
	for _, s := range t.SpeculativeSegments {
		r.speculative[s] = true
	}
	for _, s := range t.DefensiveSegments {
		r.defensive[s] = true
	}
	return r
}

// BucketOf maps a candidate to its coverage bucket.
func BucketOf(c *models.Candidate) string {
	switch c.AssetClass {
	case models.AssetEquity:
		switch c.MarketCapTier {
		case models.TierMega, models.TierLarge:
			return config.BucketEquityLarge
		case models.TierMid:
			return config.BucketEquityMid
		default:
			return config.BucketEquitySmall
		}
	case models.AssetCrypto:
		return config.BucketCrypto
	}
	return config.BucketCommodity
}

// less orders by rank score, then confirmation status, then liquidity tier,
// then symbol.
func less(a, b *models.Candidate) bool {
	if a.RankScore != b.RankScore {
		return a.RankScore > b.RankScore
	}
	if ra, rb := a.ConfirmationStatus.Rank(), b.ConfirmationStatus.Rank(); ra != rb {
		return ra > rb
	}
	if la, lb := a.LiquidityTier.Rank(), b.LiquidityTier.Rank(); la != lb {
		return la > lb
	}
	return a.Symbol < b.Symbol
}

func sortCandidates(cs []models.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return less(&cs[i], &cs[j]) })
}

// backfillOrder lists unselected confluence failures of a bucket, strongest
// confluence first. pool must already be sorted.
func (r *Ranker) backfillOrder(pool []models.Candidate, selected []bool, eligible map[string]bool, bucket string) []int {
	var idx []int
	for i := range pool {
		if pool[i].Bucket == bucket && !eligible[pool[i].Symbol] && !selected[i] {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return pool[idx[a]].Confluence > pool[idx[b]].Confluence
	})
	return idx
}

// hardFilter returns the rejection reason, or "" when c passes. An unknown
// market cap skips the floor and is recorded as a data gap.
func (r *Ranker) hardFilter(c *models.Candidate) string {
	f, ok := r.t.HardFilters[c.AssetClass]
	if !ok {
		return ""
	}
	if f.MinMarketCap > 0 {
		switch {
		case c.MarketCap <= 0:
			c.AddGap((&models.MissingComponentData{Symbol: c.Symbol, Component: "market_cap"}).Gap())
		case c.MarketCap < f.MinMarketCap:
			return fmt.Sprintf("market cap %.0f below floor %.0f", c.MarketCap, f.MinMarketCap)
		}
	}
	if f.MinAvgDollarVolume > 0 && c.AvgDollarVolume < f.MinAvgDollarVolume {
		return fmt.Sprintf("avg dollar volume %.0f below floor %.0f", c.AvgDollarVolume, f.MinAvgDollarVolume)
	}
	return ""
}

// Confluence counts confirming signal types: social momentum, technical,
// catalyst, sector alignment and liquidity.
func (r *Ranker) Confluence(c *models.Candidate) int {
	cfg := r.t.Confluence
	n := 0
	if s := c.Components.Sentiment; s != nil && *s >= cfg.Sentiment {
		n++
	}
	if t := c.Components.Technical; t != nil && *t >= cfg.Technical {
		n++
	}
	if c.CatalystPresent {
		n++
	}
	if m := c.SectorMomentum; m != nil && *m >= cfg.SectorMomentumMin {
		n++
	}
	if c.LiquidityTier == models.LiquidityHigh || c.LiquidityTier == models.LiquidityMedium {
		n++
	}
	return n
}

func (r *Ranker) tilt(regime models.RegimeState, c *models.Candidate) (float64, string) {
	t, ok := r.t.RegimeTilt[regime.Label]
	if !ok {
		return 0, ""
	}
	seg := c.Segment()
	switch {
	case r.speculative[seg] && t.Speculative != 0:
		return t.Speculative * regime.Confidence, "speculative"
	case r.defensive[seg] && t.Defensive != 0:
		return t.Defensive * regime.Confidence, "defensive"
	}
	return 0, ""
}

// Rank filters, normalizes and selects. maxPicks <= 0 or above the configured
// cap falls back to the configured cap.
func (r *Ranker) Rank(regime models.RegimeState, candidates []models.Candidate, maxPicks int) RankOutput {
	var out RankOutput
	if maxPicks <= 0 || maxPicks > r.t.MaxPicks {
		maxPicks = r.t.MaxPicks
	}

	pool := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if reason := r.hardFilter(&c); reason != "" {
			out.Rejections = append(out.Rejections, models.Rejection{
				Symbol: c.Symbol, AssetClass: c.AssetClass, Stage: models.StageHardFilter, Reason: reason,
			})
			continue
		}
		pool = append(pool, c)
	}

	byClass := make(map[models.AssetClass][]int)
	var classes []models.AssetClass
	for i := range pool {
		cl := pool[i].AssetClass
		if _, ok := byClass[cl]; !ok {
			classes = append(classes, cl)
		}
		byClass[cl] = append(byClass[cl], i)
	}
	for _, cl := range classes {
		idx := byClass[cl]
		scores := make([]float64, len(idx))
		for k, i := range idx {
			scores[k] = pool[i].CompositeScore
		}
		for k, v := range normalize(r.t.Normalization, scores) {
			pool[idx[k]].NormalizedScore = v
		}
	}

	eligible := make(map[string]bool, len(pool))
	for i := range pool {
		c := &pool[i]
		c.Bucket = BucketOf(c)
		c.Confluence = r.Confluence(c)
		eligible[c.Symbol] = c.Confluence >= r.t.Confluence.Minimum
		c.AddTag(fmt.Sprintf("confluence:%d/%d", c.Confluence, confluenceSignals))

		tilt, kind := r.tilt(regime, c)
		c.RankScore = clamp(c.NormalizedScore*(1+tilt), 0, 100)
		if kind != "" {
			c.AddTag("tilt:" + kind)
		}
	}
	sortCandidates(pool)

	selected := make([]bool, len(pool))
	picks := 0
	take := func(i int) {
		selected[i] = true
		picks++
	}

	for _, q := range r.t.Quotas {
		have := 0
		for i := range pool {
			if have >= q.Minimum || picks >= maxPicks {
				break
			}
			if pool[i].Bucket == q.Bucket && eligible[pool[i].Symbol] && !selected[i] {
				take(i)
				have++
			}
		}
		for _, i := range r.backfillOrder(pool, selected, eligible, q.Bucket) {
			if have >= q.Minimum || picks >= maxPicks {
				break
			}
			c := &pool[i]
			take(i)
			have++
			status := models.StatusUnconfirmed
			if c.Confluence >= r.t.Confluence.Minimum-1 {
				status = models.StatusPartial
			}
			c.ConfirmationStatus = c.ConfirmationStatus.Weaker(status)
			c.AddGap(fmt.Sprintf("backfill:%s confluence %d/%d (min %d)", q.Bucket, c.Confluence, confluenceSignals, r.t.Confluence.Minimum))
			c.AddTag("backfill")
		}
		if have < q.Minimum {
			out.Shortfalls = append(out.Shortfalls, models.QuotaShortfall{Bucket: q.Bucket, Need: q.Minimum, Have: have})
			for i := range pool {
				c := &pool[i]
				if !selected[i] || c.Bucket != q.Bucket {
					continue
				}
				c.ConfirmationStatus = c.ConfirmationStatus.Weaker(models.StatusPartial)
				c.AddGap(fmt.Sprintf("quota_shortfall:%s %d/%d", q.Bucket, have, q.Minimum))
				c.AddTag("quota_fill")
			}
		}
	}

	for i := range pool {
		if picks >= maxPicks {
			break
		}
		if eligible[pool[i].Symbol] && !selected[i] {
			take(i)
		}
	}

	for i := range pool {
		c := &pool[i]
		if selected[i] {
			out.Picks = append(out.Picks, *c)
			continue
		}
		rej := models.Rejection{Symbol: c.Symbol, AssetClass: c.AssetClass}
		if eligible[c.Symbol] {
			rej.Stage = models.StageTruncated
			rej.Reason = fmt.Sprintf("outside top %d", maxPicks)
		} else {
			rej.Stage = models.StageConfluence
			rej.Reason = fmt.Sprintf("confluence %d/%d below minimum %d", c.Confluence, confluenceSignals, r.t.Confluence.Minimum)
		}
		out.Rejections = append(out.Rejections, rej)
	}
	sortCandidates(out.Picks)

	quotaFor := make(map[string]int, len(r.t.Quotas))
	for _, q := range r.t.Quotas {
		quotaFor[q.Bucket] = q.Minimum
	}
	for _, name := range bucketOrder {
		b := models.Bucket{Name: name, Quota: quotaFor[name], Candidates: []models.Candidate{}}
		for _, c := range out.Picks {
			if c.Bucket == name {
				b.Candidates = append(b.Candidates, c)
			}
		}
		out.Buckets = append(out.Buckets, b)
	}
	return out
}
