// Package percentile is the ranking engine. A call selects a cohort from the
// player-season table, converts each metric into a 0-100 percentile with
// fractional tie ranking, averages those percentiles into a composite score
// and ranks the composite again within the cohort.
//
// Every call is a pure function of its arguments: nothing is cached between
// calls and input records are never modified.
package percentile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/albapepper/scoracle-rankings/internal/record"
)

// NeutralPercentile is assigned to missing values under NeutralFill.
const NeutralPercentile = 50.0

// ErrNoMetrics is returned when a query names no metrics to rank on.
var ErrNoMetrics = errors.New("percentile: no metrics to rank")

// Ranked is a cohort row with its per-metric and composite percentiles.
//
// On the wire a Ranked is one flat object: the player-season fields, one
// PercentileColumn key per ranked metric, then average_rank and
// average_rank_percentile.
type Ranked struct {
	record.PlayerSeason

	// Percentiles is keyed by metric name.
	Percentiles           map[string]float64 `json:"-"`
	AverageRank           float64            `json:"-"`
	AverageRankPercentile float64            `json:"-"`
}

const (
	percentileSuffix         = "_percentile"
	averageRankKey           = "average_rank"
	averageRankPercentileKey = "average_rank_percentile"
)

// PercentileColumn returns the column name used for a metric's percentile.
func PercentileColumn(metric string) string {
	return metric + percentileSuffix
}

// MarshalJSON flattens the row. Non-finite metric values are dropped since
// they read as missing anyway.
func (r Ranked) MarshalJSON() ([]byte, error) {
	ps := r.PlayerSeason
	if len(ps.Metrics) > 0 {
		finite := make(map[string]float64, len(ps.Metrics))
		for k, v := range ps.Metrics {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				finite[k] = v
			}
		}
		ps.Metrics = finite
	}
	base, err := json.Marshal(ps)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &out); err != nil {
		return nil, err
	}
	for m, v := range r.Percentiles {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("percentile %s: %w", m, err)
		}
		out[PercentileColumn(m)] = raw
	}
	if out[averageRankKey], err = json.Marshal(r.AverageRank); err != nil {
		return nil, err
	}
	if out[averageRankPercentileKey], err = json.Marshal(r.AverageRankPercentile); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (r *Ranked) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.PlayerSeason); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	r.Percentiles = map[string]float64{}
	for k, raw := range fields {
		var err error
		switch {
		case k == averageRankKey:
			err = json.Unmarshal(raw, &r.AverageRank)
		case k == averageRankPercentileKey:
			err = json.Unmarshal(raw, &r.AverageRankPercentile)
		case strings.HasSuffix(k, percentileSuffix):
			var v float64
			err = json.Unmarshal(raw, &v)
			r.Percentiles[strings.TrimSuffix(k, percentileSuffix)] = v
		}
		if err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
	}
	return nil
}

// Query describes one ranking computation.
type Query struct {
	Selector  Selector
	Positions []string
	Metrics   []string
	// Policy chooses the missing-value treatment. The zero value defers to
	// Selector.DefaultPolicy().
	Policy Policy
}

// EffectivePolicy returns the policy the query will run with.
func (q Query) EffectivePolicy() Policy {
	if q.Policy == 0 && q.Selector != nil {
		return q.Selector.DefaultPolicy()
	}
	return q.Policy
}

// Describe renders the cohort filter for errors and logs.
func (q Query) Describe() string {
	desc := "<nil selector>"
	if q.Selector != nil {
		desc = q.Selector.Describe()
	}
	return fmt.Sprintf("%s positions=[%s]", desc, strings.Join(q.Positions, ","))
}

// Rank computes percentiles for every cohort row. The result is
// index-correlated with the cohort in input order; callers sort for display.
func Rank(records []record.PlayerSeason, q Query) ([]Ranked, error) {
	if q.Selector == nil {
		return nil, errors.New("percentile: query has no selector")
	}
	if len(q.Metrics) == 0 {
		return nil, ErrNoMetrics
	}
	policy := q.EffectivePolicy()
	if !policy.Valid() {
		return nil, fmt.Errorf("percentile: unknown fill policy %d", policy)
	}

	selected, err := q.Selector.Select(records)
	if err != nil {
		return nil, err
	}
	cohort := filterPositions(selected, q.Positions)
	if len(cohort) == 0 {
		return nil, &record.EmptyCohortError{Filter: q.Describe()}
	}

	out := make([]Ranked, len(cohort))
	for i, r := range cohort {
		out[i] = Ranked{
			PlayerSeason: r.Clone(),
			Percentiles:  make(map[string]float64, len(q.Metrics)),
		}
	}

	values := make([]float64, len(cohort))
	present := make([]bool, len(cohort))
	for _, m := range q.Metrics {
		for i, r := range cohort {
			values[i], present[i] = r.Metric(m)
		}
		pcts := MetricPercentiles(values, present, policy)
		for i := range out {
			out[i].Percentiles[m] = pcts[i]
		}
	}

	averages := make([]float64, len(out))
	for i := range out {
		sum := 0.0
		for _, m := range q.Metrics {
			sum += out[i].Percentiles[m]
		}
		out[i].AverageRank = sum / float64(len(q.Metrics))
		averages[i] = out[i].AverageRank
	}

	for i, p := range scale(FractionalRanks(averages), len(averages)) {
		out[i].AverageRankPercentile = p
	}
	return out, nil
}

// MetricPercentiles converts one metric column into percentiles under the
// given policy. present[i] marks whether values[i] was recorded.
func MetricPercentiles(values []float64, present []bool, policy Policy) []float64 {
	out := make([]float64, len(values))

	switch policy {
	case NeutralFill:
		var idx []int
		var kept []float64
		for i, v := range values {
			if present[i] {
				idx = append(idx, i)
				kept = append(kept, v)
			} else {
				out[i] = NeutralPercentile
			}
		}
		for k, p := range scale(FractionalRanks(kept), len(kept)) {
			out[idx[k]] = p
		}

	case ZeroFill:
		filled := make([]float64, len(values))
		for i, v := range values {
			if present[i] {
				filled[i] = v
			}
		}
		copy(out, scale(FractionalRanks(filled), len(filled)))

	default:
		for i := range out {
			out[i] = math.NaN()
		}
	}
	return out
}

// FractionalRanks returns 1-based ranks where tied values share the mean of
// the positions they occupy: [10, 10, 20] ranks as [1.5, 1.5, 3].
func FractionalRanks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		// positions i+1 .. j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}
	return ranks
}

func scale(ranks []float64, n int) []float64 {
	out := make([]float64, len(ranks))
	for i, r := range ranks {
		out[i] = r / float64(n) * 100
	}
	return out
}

func filterPositions(records []record.PlayerSeason, positions []string) []record.PlayerSeason {
	allowed := make(map[string]bool, len(positions))
	for _, p := range positions {
		allowed[p] = true
	}
	var out []record.PlayerSeason
	for _, r := range records {
		if allowed[r.PrimaryPosition] {
			out = append(out, r)
		}
	}
	return out
}

// SortByAverageRank returns a copy ordered by descending average_rank. Ties
// keep cohort order.
func SortByAverageRank(ranked []Ranked) []Ranked {
	out := append([]Ranked(nil), ranked...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageRank > out[j].AverageRank
	})
	return out
}
