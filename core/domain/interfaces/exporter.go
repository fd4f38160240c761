package interfaces

import (
	"context"

	"github.com/hyperterse/hyperbench/core/domain"
)

// ResultExporter writes a finished report somewhere durable
type ResultExporter interface {
	Name() string
	Export(ctx context.Context, report *domain.Report) error
}

// StressExporter writes the results of a stress run
type StressExporter interface {
	ExportStress(ctx context.Context, vendor string, workers [][]domain.StressResult) error
}
