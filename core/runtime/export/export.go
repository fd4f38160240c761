// Package export turns benchmark reports into files on a storage backend:
// the raw results CSV, an aggregated summary (JSON and SVG chart), run
// metadata and the per-worker stress CSV.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/infrastructure/storage"
	"github.com/hyperterse/hyperbench/core/logger"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// Format names one exported artifact
type Format string

const (
	FormatCSV     Format = "csv"
	FormatSummary Format = "summary"
	FormatChart   Format = "chart"
	FormatRun     Format = "run"
)

// Artifact file names
const (
	ResultsFile  = "results.csv"
	SummaryFile  = "summary.json"
	ChartFile    = "summary.svg"
	RunFile      = "run.json"
	stressSuffix = "_concurrency.csv"
)

// AllFormats lists every report format in write order
var AllFormats = []Format{FormatCSV, FormatSummary, FormatChart, FormatRun}

// ParseFormats parses a list of format names; an empty list selects all
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return slices.Clone(AllFormats), nil
	}
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		if !slices.Contains(AllFormats, f) {
			return nil, apperrors.NewConfigurationError(
				fmt.Sprintf("unknown export format '%s' (expected one of %v)", name, AllFormats), "formats")
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// FileExporter writes reports and stress results to a storage backend
type FileExporter struct {
	backend storage.Backend
	formats []Format
	log     logger.Logger
}

// NewFileExporter creates an exporter writing the given formats, or all of
// them when none are given
func NewFileExporter(backend storage.Backend, formats ...Format) *FileExporter {
	if len(formats) == 0 {
		formats = slices.Clone(AllFormats)
	}
	return &FileExporter{
		backend: backend,
		formats: formats,
		log:     logger.New("export"),
	}
}

// Name identifies the exporter in logs
func (e *FileExporter) Name() string {
	return fmt.Sprintf("%s files", e.backend.Type())
}

// Export writes every configured format. A failing format does not stop
// the others; all failures are returned together.
func (e *FileExporter) Export(ctx context.Context, report *domain.Report) error {
	if prev := e.previousRunID(ctx); prev != "" && prev != report.RunID {
		e.log.Warnf("Replacing results of run %s at %s", prev, e.backend.Location(""))
	}

	var errs []error
	for _, format := range e.formats {
		path, data, err := e.render(format, report)
		if err == nil {
			err = e.backend.Write(ctx, path, data)
		}
		if err != nil {
			errs = append(errs, apperrors.NewExportError(fmt.Sprintf("failed to export %s", format), err))
			continue
		}
		e.log.Infof("Exported %s to %s", format, e.backend.Location(path))
	}
	return errors.Join(errs...)
}

// previousRunID returns the run ID recorded in run metadata already
// present on the backend, or "" when there is none
func (e *FileExporter) previousRunID(ctx context.Context) string {
	ok, err := e.backend.Exists(ctx, RunFile)
	if err != nil || !ok {
		return ""
	}
	data, err := e.backend.Read(ctx, RunFile)
	if err != nil {
		e.log.Debugf("Could not read existing %s: %v", RunFile, err)
		return ""
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return ""
	}
	return meta.RunID
}

func (e *FileExporter) render(format Format, report *domain.Report) (string, []byte, error) {
	switch format {
	case FormatCSV:
		data, err := EncodeResultsCSV(report)
		return ResultsFile, data, err
	case FormatSummary:
		data, err := EncodeSummary(Summarize(report))
		return SummaryFile, data, err
	case FormatChart:
		data, err := RenderChart(Summarize(report))
		return ChartFile, data, err
	case FormatRun:
		data, err := EncodeRunMetadata(NewRunMetadata(report))
		return RunFile, data, err
	default:
		return "", nil, fmt.Errorf("unknown export format '%s'", format)
	}
}

// ExportStress writes <vendor>_concurrency.csv
func (e *FileExporter) ExportStress(ctx context.Context, vendor string, workers [][]domain.StressResult) error {
	data, err := EncodeStressCSV(workers)
	if err != nil {
		return apperrors.NewExportError("failed to encode stress results", err)
	}
	path := StressFile(vendor)
	if err := e.backend.Write(ctx, path, data); err != nil {
		return apperrors.NewExportError("failed to write stress results", err)
	}
	e.log.Infof("Concurrency results exported to %s", e.backend.Location(path))
	return nil
}

// StressFile returns the stress CSV name for vendor
func StressFile(vendor string) string {
	return vendor + stressSuffix
}
