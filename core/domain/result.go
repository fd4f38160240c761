package domain

import (
	"slices"
	"time"
)

// Status is the outcome of one query execution
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// QueryResult is the record produced by one execution of one query.
// Build it with NewSuccessResult or NewErrorResult.
type QueryResult struct {
	RunID           string    `json:"run_id,omitempty"`
	Vendor          string    `json:"vendor"`
	QueryNumber     int       `json:"query_number"`
	QueryName       string    `json:"query_name"`
	QueryText       string    `json:"query"`
	Duration        float64   `json:"duration"`
	RowCount        int       `json:"rows"`
	Status          Status    `json:"status"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	ConcurrentRun   int       `json:"concurrent_run"`
	Iteration       int       `json:"iteration"`
	TotalIterations int       `json:"total_iterations"`
}

// Execution identifies one dispatched execution of a query
type Execution struct {
	RunID           string
	Vendor          string
	Query           Query
	ConcurrentRun   int
	Iteration       int
	TotalIterations int
}

func (e Execution) result(duration time.Duration) QueryResult {
	return QueryResult{
		RunID:           e.RunID,
		Vendor:          e.Vendor,
		QueryNumber:     e.Query.Number,
		QueryName:       e.Query.Name,
		QueryText:       e.Query.Text,
		Duration:        duration.Seconds(),
		Timestamp:       time.Now(),
		ConcurrentRun:   e.ConcurrentRun,
		Iteration:       e.Iteration,
		TotalIterations: e.TotalIterations,
	}
}

// NewSuccessResult records a successful execution returning rows rows
func NewSuccessResult(e Execution, duration time.Duration, rows int) QueryResult {
	r := e.result(duration)
	r.Status = StatusSuccess
	r.RowCount = max(rows, 0)
	return r
}

// NewErrorResult records a failed execution. An error result always
// carries a non-empty message.
func NewErrorResult(e Execution, duration time.Duration, err error) QueryResult {
	r := e.result(duration)
	r.Status = StatusError
	r.Error = ErrEmptyErrorMessage.Message
	if err != nil && err.Error() != "" {
		r.Error = err.Error()
	}
	return r
}

// Succeeded reports whether the execution succeeded
func (r QueryResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// IsFinalIteration reports whether r belongs to the last sampling iteration
func (r QueryResult) IsFinalIteration() bool {
	return r.Iteration == r.TotalIterations
}

// StressResult is one execution recorded by a stress worker
type StressResult struct {
	WorkerID  int       `json:"worker_id"`
	QueryName string    `json:"query_name"`
	QueryID   int       `json:"query_id"`
	HasError  bool      `json:"has_error"`
	RowCount  int       `json:"num_output_rows"`
	StartTime time.Time `json:"start_unix_time"`
	StopTime  time.Time `json:"stop_unix_time"`
}

// RunConfig captures the settings a report was produced with
type RunConfig struct {
	BenchmarkPath string   `json:"benchmark_path"`
	Vendors       []string `json:"vendors"`
	PoolSize      int      `json:"pool_size"`
	Concurrency   int      `json:"concurrency"`
	Iterations    int      `json:"iterations"`
	ExecuteSetup  bool     `json:"execute_setup"`
	RunWarmup     bool     `json:"run_warmup"`
}

// Report is the outcome of one benchmark invocation
type Report struct {
	RunID      string                   `json:"run_id"`
	Benchmark  string                   `json:"benchmark"`
	Config     RunConfig                `json:"config"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Results    map[string][]QueryResult `json:"results"`
	Failures   map[string]error         `json:"-"`
}

// Vendors returns the vendors that produced results, sorted
func (r *Report) Vendors() []string {
	vendors := make([]string, 0, len(r.Results))
	for v := range r.Results {
		vendors = append(vendors, v)
	}
	slices.Sort(vendors)
	return vendors
}

// Count returns the total number of results across vendors
func (r *Report) Count() int {
	n := 0
	for _, results := range r.Results {
		n += len(results)
	}
	return n
}
