package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/infrastructure/storage"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

func result(vendor string, number int, seconds float64, err error) domain.QueryResult {
	exec := domain.Execution{
		RunID:           "run-1",
		Vendor:          vendor,
		Query:           domain.NewQuery(number, "SELECT 1"),
		ConcurrentRun:   1,
		Iteration:       1,
		TotalIterations: 1,
	}
	d := time.Duration(seconds * float64(time.Second))
	if err != nil {
		return domain.NewErrorResult(exec, d, err)
	}
	return domain.NewSuccessResult(exec, d, 1)
}

func testReport() *domain.Report {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Report{
		RunID:      "run-1",
		Benchmark:  "tpch",
		Config:     domain.RunConfig{BenchmarkPath: "benchmarks/tpch", Vendors: []string{"snowflake", "firebolt"}, PoolSize: 5, Concurrency: 1, Iterations: 5},
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Results: map[string][]domain.QueryResult{
			"snowflake": {
				result("snowflake", 1, 0.5, nil),
				result("snowflake", 1, 1.5, nil),
				result("snowflake", 2, 0.25, errors.New("timeout, retry later")),
			},
			"firebolt": {
				result("firebolt", 1, 0.1, nil),
				result("firebolt", 1, 0.3, nil),
				result("firebolt", 1, 0.2, nil),
				result("firebolt", 2, 0.4, nil),
			},
		},
		Failures: map[string]error{"redshift": errors.New("connection refused")},
	}
}

func TestEncodeResultsCSV(t *testing.T) {
	data, err := EncodeResultsCSV(testReport())
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8)

	assert.Equal(t, []string{"vendor", "query_name", "execution_time", "concurrent_run", "success", "error"}, records[0])
	assert.Equal(t, []string{"firebolt", "1", "0.1", "1", "true", ""}, records[1])
	assert.Equal(t, []string{"snowflake", "2", "0.25", "1", "false", "timeout, retry later"}, records[7])
}

func TestEncodeStressCSV(t *testing.T) {
	start := time.Unix(1700000000, 500_000_000)
	workers := [][]domain.StressResult{
		{
			{WorkerID: 0, QueryName: "q1", QueryID: 0, RowCount: 3, StartTime: start, StopTime: start.Add(time.Second)},
		},
		nil,
		{
			{WorkerID: 2, QueryName: "q2", QueryID: 0, HasError: true, StartTime: start, StopTime: start},
		},
	}

	data, err := EncodeStressCSV(workers)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"worker_id", "query_name", "query_id", "has_error", "num_output_rows", "start_unix_time", "stop_unix_time"},
		{"0", "q1", "0", "false", "3", "1700000000.500000", "1700000001.500000"},
		{"2", "q2", "0", "true", "0", "1700000000.500000", "1700000000.500000"},
	}, records)
}

func TestSummarize(t *testing.T) {
	s := Summarize(testReport())
	require.Len(t, s.Vendors, 2)

	fb := s.Vendors[0]
	assert.Equal(t, "firebolt", fb.Vendor)
	assert.Equal(t, 4, fb.Count)
	require.Len(t, fb.Queries, 2)
	q1 := fb.Queries[0]
	assert.Equal(t, 3, q1.Count)
	assert.InDelta(t, 0.1, q1.Min, 1e-9)
	assert.InDelta(t, 0.3, q1.Max, 1e-9)
	assert.InDelta(t, 0.2, q1.Mean, 1e-9)
	assert.InDelta(t, 0.2, q1.P50, 1e-9)
	assert.InDelta(t, 0.29, q1.P95, 1e-9)

	sf := s.Vendors[1]
	assert.Equal(t, 1, sf.Errors)
	q2 := sf.Queries[1]
	assert.Equal(t, "2", q2.QueryName)
	assert.Equal(t, 1, q2.Errors)
	assert.Zero(t, q2.Mean)
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		pct    float64
		want   float64
	}{
		{nil, 50, 0},
		{[]float64{4}, 95, 4},
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{1, 2, 3, 4}, 100, 4},
		{[]float64{1, 2, 3, 4}, 0, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, percentile(tt.values, tt.pct), 1e-9)
	}
}

func TestRenderChart(t *testing.T) {
	report := testReport()
	report.Benchmark = "tpch <sf1>"

	data, err := RenderChart(Summarize(report))
	require.NoError(t, err)

	svg := string(data)
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.Contains(t, svg, "tpch &lt;sf1&gt;: mean execution time (s)")
	assert.Contains(t, svg, "firebolt query 1: 0.2000s")
	// snowflake query 2 only failed: zero-height bar
	assert.Contains(t, svg, "snowflake query 2: 0.0000s")
	assert.Equal(t, 4, strings.Count(svg, "<title>"))
}

func TestFileExporter_Export(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	exporter := NewFileExporter(backend)
	assert.Equal(t, "local files", exporter.Name())
	require.NoError(t, exporter.Export(ctx, testReport()))

	for _, name := range []string{ResultsFile, SummaryFile, ChartFile, RunFile} {
		ok, err := backend.Exists(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	data, err := backend.Read(ctx, RunFile)
	require.NoError(t, err)
	var meta RunMetadata
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "run-1", meta.RunID)
	assert.InDelta(t, 90, meta.Duration, 1e-9)
	assert.Equal(t, map[string]int{"snowflake": 3, "firebolt": 4}, meta.Results)
	assert.Equal(t, "connection refused", meta.Failures["redshift"])
	assert.Equal(t, 5, meta.Config.Iterations)
	assert.Positive(t, meta.Host.CPUCount)
}

func TestFileExporter_PreviousRunID(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	exporter := NewFileExporter(backend, FormatRun)
	assert.Empty(t, exporter.previousRunID(ctx))

	require.NoError(t, exporter.Export(ctx, testReport()))
	assert.Equal(t, "run-1", exporter.previousRunID(ctx))

	next := testReport()
	next.RunID = "run-2"
	require.NoError(t, exporter.Export(ctx, next))
	assert.Equal(t, "run-2", exporter.previousRunID(ctx))

	require.NoError(t, backend.Write(ctx, RunFile, []byte("not json")))
	assert.Empty(t, exporter.previousRunID(ctx))
}

func TestFileExporter_ExportStress(t *testing.T) {
	ctx := context.Background()
	backend, err := storage.NewLocalBackend(t.TempDir())
	require.NoError(t, err)

	exporter := NewFileExporter(backend, FormatCSV)
	require.NoError(t, exporter.ExportStress(ctx, "firebolt", [][]domain.StressResult{{}}))

	data, err := backend.Read(ctx, "firebolt_concurrency.csv")
	require.NoError(t, err)
	assert.Equal(t, "worker_id,query_name,query_id,has_error,num_output_rows,start_unix_time,stop_unix_time\n", string(data))
}

type failingBackend struct{ storage.Backend }

func (failingBackend) Write(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingBackend) Type() string { return "broken" }
func (failingBackend) Exists(context.Context, string) (bool, error) {
	return false, errors.New("disk full")
}

func TestFileExporter_ExportCollectsFailures(t *testing.T) {
	exporter := NewFileExporter(failingBackend{}, FormatCSV, FormatSummary)
	err := exporter.Export(context.Background(), testReport())
	require.Error(t, err)
	assert.True(t, apperrors.IsExportError(err))
	assert.Contains(t, err.Error(), "failed to export csv")
	assert.Contains(t, err.Error(), "failed to export summary")
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats(nil)
	require.NoError(t, err)
	assert.Equal(t, AllFormats, formats)

	formats, err = ParseFormats([]string{"CSV", " chart ", "csv"})
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatCSV, FormatChart}, formats)

	_, err = ParseFormats([]string{"xlsx"})
	assert.True(t, apperrors.IsConfigurationError(err))
}
