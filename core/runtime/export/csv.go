package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/hyperterse/hyperbench/core/domain"
)

var (
	resultsHeader = []string{"vendor", "query_name", "execution_time", "concurrent_run", "success", "error"}
	stressHeader  = []string{"worker_id", "query_name", "query_id", "has_error", "num_output_rows", "start_unix_time", "stop_unix_time"}
)

// EncodeResultsCSV renders every result of report, vendors sorted and
// results in execution order. execution_time is in seconds.
func EncodeResultsCSV(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(resultsHeader); err != nil {
		return nil, err
	}

	for _, vendor := range report.Vendors() {
		for _, r := range report.Results[vendor] {
			record := []string{
				r.Vendor,
				r.QueryName,
				formatFloat(r.Duration),
				strconv.Itoa(r.ConcurrentRun),
				strconv.FormatBool(r.Succeeded()),
				r.Error,
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// EncodeStressCSV renders stress results grouped by worker
func EncodeStressCSV(workers [][]domain.StressResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(stressHeader); err != nil {
		return nil, err
	}

	for workerID, results := range workers {
		for _, r := range results {
			record := []string{
				strconv.Itoa(workerID),
				r.QueryName,
				strconv.Itoa(r.QueryID),
				strconv.FormatBool(r.HasError),
				strconv.Itoa(r.RowCount),
				unixSeconds(r.StartTime),
				unixSeconds(r.StopTime),
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// unixSeconds renders t as fractional seconds since the epoch
func unixSeconds(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 6, 64)
}
