package export

import (
	"cmp"
	"encoding/json"
	"math"
	"slices"

	"github.com/hyperterse/hyperbench/core/domain"
)

// QueryStats aggregates every execution of one query on one vendor.
// Timings are in seconds and only cover successful executions.
type QueryStats struct {
	QueryNumber int     `json:"query_number"`
	QueryName   string  `json:"query_name"`
	Count       int     `json:"count"`
	Errors      int     `json:"errors"`
	Min         float64 `json:"min"`
	Mean        float64 `json:"mean"`
	P50         float64 `json:"p50"`
	P95         float64 `json:"p95"`
	Max         float64 `json:"max"`
}

// VendorSummary aggregates one vendor's results
type VendorSummary struct {
	Vendor  string       `json:"vendor"`
	Count   int          `json:"count"`
	Errors  int          `json:"errors"`
	Queries []QueryStats `json:"queries"`
}

// Summary aggregates a report per vendor and query
type Summary struct {
	RunID     string          `json:"run_id"`
	Benchmark string          `json:"benchmark"`
	Vendors   []VendorSummary `json:"vendors"`
}

// Summarize computes per-query statistics, vendors sorted by name and
// queries by number
func Summarize(report *domain.Report) Summary {
	s := Summary{
		RunID:     report.RunID,
		Benchmark: report.Benchmark,
		Vendors:   make([]VendorSummary, 0, len(report.Results)),
	}

	for _, vendor := range report.Vendors() {
		byQuery := make(map[int][]domain.QueryResult)
		for _, r := range report.Results[vendor] {
			byQuery[r.QueryNumber] = append(byQuery[r.QueryNumber], r)
		}

		vs := VendorSummary{Vendor: vendor}
		for _, results := range byQuery {
			stats := queryStats(results)
			vs.Count += stats.Count
			vs.Errors += stats.Errors
			vs.Queries = append(vs.Queries, stats)
		}
		slices.SortFunc(vs.Queries, func(a, b QueryStats) int {
			return cmp.Compare(a.QueryNumber, b.QueryNumber)
		})
		s.Vendors = append(s.Vendors, vs)
	}
	return s
}

func queryStats(results []domain.QueryResult) QueryStats {
	stats := QueryStats{
		QueryNumber: results[0].QueryNumber,
		QueryName:   results[0].QueryName,
		Count:       len(results),
	}

	durations := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Succeeded() {
			stats.Errors++
			continue
		}
		durations = append(durations, r.Duration)
	}
	if len(durations) == 0 {
		return stats
	}

	slices.Sort(durations)
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	stats.Min = durations[0]
	stats.Max = durations[len(durations)-1]
	stats.Mean = sum / float64(len(durations))
	stats.P50 = percentile(durations, 50)
	stats.P95 = percentile(durations, 95)
	return stats
}

// percentile interpolates linearly between the closest ranks of sorted
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// EncodeSummary renders s as indented JSON
func EncodeSummary(s Summary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
