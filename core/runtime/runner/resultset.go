package runner

import (
	"sync"

	"github.com/hyperterse/hyperbench/core/domain"
)

// ResultSet is an append-only collection safe for concurrent use
type ResultSet struct {
	mu      sync.Mutex
	results []domain.QueryResult
}

// Add appends results
func (s *ResultSet) Add(results ...domain.QueryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
}

// ByVendor groups results by vendor, keeping insertion order per vendor
func (s *ResultSet) ByVendor() map[string][]domain.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]domain.QueryResult)
	for _, r := range s.results {
		out[r.Vendor] = append(out[r.Vendor], r)
	}
	return out
}
