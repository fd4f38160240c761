package runner

import (
	"context"
	"fmt"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	"github.com/hyperterse/hyperbench/core/parser"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// ExecuteSetup runs the vendor's setup script sequentially on its primary
// connector. The first failing statement aborts with a setup error.
func (r *Runner) ExecuteSetup(ctx context.Context, vendor string) error {
	conn, err := r.primaryConnector(vendor)
	if err != nil {
		return apperrors.NewSetupError(fmt.Sprintf("setup failed for %s", vendor), err)
	}

	statements, path, found, err := parser.LoadPhase(r.opts.BenchmarkPath, vendor, parser.PhaseSetup)
	if err != nil {
		return apperrors.NewSetupError(fmt.Sprintf("setup failed for %s", vendor), err)
	}
	if !found {
		r.log.Infof("No setup file found for %s", vendor)
		return nil
	}
	if len(statements) == 0 {
		r.log.Infof("No setup queries found for %s", vendor)
		return nil
	}

	r.log.Infof("Executing setup script for %s: %s", vendor, path)
	for i, stmt := range statements {
		if _, err := conn.Execute(ctx, stmt, nil); err != nil {
			return apperrors.NewSetupError(
				fmt.Sprintf("setup failed for %s at statement %d of %d", vendor, i+1, len(statements)), err)
		}
	}
	r.log.Infof("Setup completed for %s", vendor)
	return nil
}

// RunWarmup runs the vendor's warmup script sequentially on its primary
// connector. Failing statements are logged and skipped; only a script
// that cannot be loaded is an error.
func (r *Runner) RunWarmup(ctx context.Context, vendor string) error {
	conn, err := r.primaryConnector(vendor)
	if err != nil {
		return err
	}

	statements, _, found, err := parser.LoadPhase(r.opts.BenchmarkPath, vendor, parser.PhaseWarmup)
	if err != nil {
		r.reportWarmup("")
		return err
	}
	if !found {
		r.log.Infof("No warmup file found for %s", vendor)
		return nil
	}
	if len(statements) == 0 {
		r.log.Infof("No warmup queries found for %s", vendor)
		return nil
	}

	r.log.Infof("Starting warmup for %s", vendor)
	defer r.reportWarmup("")

	total := len(statements)
	for i, stmt := range statements {
		r.reportWarmup(fmt.Sprintf("Warming up database (%s): Step %d of %d", vendor, i+1, total))
		if _, err := conn.Execute(ctx, stmt, nil); err != nil {
			r.log.Warnf("Warmup query %d failed for %s: %v", i+1, vendor, err)
		}
	}

	r.log.Infof("Warmup completed for %s", vendor)
	return nil
}

func (r *Runner) reportWarmup(status string) {
	if r.deps.WarmupStatus != nil {
		r.deps.WarmupStatus(status)
	}
}

func (r *Runner) primaryConnector(vendor string) (interfaces.Connector, error) {
	conn, ok := r.primary.Get(vendor)
	if !ok {
		return nil, fmt.Errorf("no connector initialized for %s", vendor)
	}
	return conn, nil
}

// loadBenchmark loads and numbers the vendor's benchmark queries. A
// missing or empty script is an error.
func (r *Runner) loadBenchmark(vendor string) ([]domain.Query, error) {
	if len(r.opts.Queries) > 0 {
		queries := domain.NewQueries(r.opts.Queries)
		for _, q := range queries {
			if err := q.Validate(); err != nil {
				return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration,
					fmt.Sprintf("invalid benchmark query %d", q.Number), err)
			}
		}
		return queries, nil
	}

	statements, path, found, err := parser.LoadPhase(r.opts.BenchmarkPath, vendor, parser.PhaseBenchmark)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no benchmark file found for %s at %s", vendor, path)
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("no benchmark queries found for %s in %s", vendor, path)
	}
	return domain.NewQueries(statements), nil
}
