// Package runner drives multi-vendor benchmark runs: setup, warmup, pooled
// concurrent execution of every benchmark query, and export.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	"github.com/hyperterse/hyperbench/core/infrastructure/connectors"
	"github.com/hyperterse/hyperbench/core/logger"
	"github.com/hyperterse/hyperbench/core/observability"
	"github.com/hyperterse/hyperbench/core/runtime/pool"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// StatusFunc receives warmup progress. An empty status means the warmup
// finished and any displayed status should be cleared.
type StatusFunc func(status string)

// Deps carries the collaborators of a Runner
type Deps struct {
	// Credentials keyed by vendor
	Credentials map[string]domain.Credentials
	// Factory builds connectors; the built-in vendor catalogue when nil
	Factory interfaces.ConnectorFactory
	// Exporters receive the report when the run produced results
	Exporters []interfaces.ResultExporter
	// Sink receives final-iteration results as they complete
	Sink chan<- domain.QueryResult
	// WarmupStatus receives warmup progress messages
	WarmupStatus StatusFunc
}

// Runner benchmarks several vendors in parallel. Each vendor pipeline is
// isolated: its failure is recorded and never affects other vendors.
type Runner struct {
	opts    Options
	deps    Deps
	creds   map[string]domain.Credentials
	primary *connectors.ConnectorManager
	log     logger.Logger
}

// New validates opts and builds one idle primary connector per vendor.
// Configuration problems are reported before any network I/O.
func New(opts Options, deps Deps) (*Runner, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	if deps.Factory == nil {
		deps.Factory = connectors.Factory
	}

	creds := make(map[string]domain.Credentials, len(deps.Credentials))
	for vendor, c := range deps.Credentials {
		creds[connectors.CanonicalVendor(vendor)] = c.Clone()
	}

	vendors := make([]string, 0, len(opts.Vendors))
	seen := make(map[string]bool, len(opts.Vendors))
	for _, v := range opts.Vendors {
		v = connectors.CanonicalVendor(v)
		if !seen[v] {
			seen[v] = true
			vendors = append(vendors, v)
		}
	}
	opts.Vendors = vendors

	r := &Runner{
		opts:    opts,
		deps:    deps,
		creds:   creds,
		primary: connectors.NewConnectorManager(deps.Factory),
		log:     logger.New("runner"),
	}

	if err := r.primary.InitializeAll(context.Background(), creds, vendors); err != nil {
		return nil, err
	}
	for _, vendor := range vendors {
		r.log.Infof("Initialized %s connector", vendor)
	}
	r.log.Debugf("%d primary connector(s) ready", r.primary.Count())
	return r, nil
}

// Options returns the normalized options
func (r *Runner) Options() Options {
	return r.opts
}

// Run executes every vendor pipeline and exports the combined results.
// The report always contains whatever results were collected.
func (r *Runner) Run(ctx context.Context) (*domain.Report, error) {
	report := &domain.Report{
		RunID:     uuid.NewString(),
		Benchmark: r.opts.Benchmark,
		Config: domain.RunConfig{
			BenchmarkPath: r.opts.BenchmarkPath,
			Vendors:       r.opts.Vendors,
			PoolSize:      r.opts.PoolSize,
			Concurrency:   r.opts.Concurrency,
			Iterations:    r.opts.Iterations(),
			ExecuteSetup:  r.opts.ExecuteSetup,
			RunWarmup:     r.opts.RunWarmup,
		},
		StartedAt: time.Now(),
		Failures:  make(map[string]error),
	}

	ctx, span := observability.StartSpan(ctx, "benchmark.run",
		attribute.String(observability.AttrRunID, report.RunID))
	defer span.End()

	r.log.Infof("Starting benchmark '%s' (run %s) for %d vendor(s)", report.Benchmark, report.RunID, len(r.opts.Vendors))

	results := &ResultSet{}
	var failuresMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(r.opts.Vendors))
	for _, vendor := range r.opts.Vendors {
		g.Go(func() error {
			if err := r.runVendor(gctx, report.RunID, vendor, results); err != nil {
				r.log.Errorf("Benchmark failed for %s: %v", vendor, err)
				failuresMu.Lock()
				report.Failures[vendor] = err
				failuresMu.Unlock()
			}
			// vendors are isolated; never cancel siblings
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results.ByVendor()
	report.FinishedAt = time.Now()

	if report.Count() == 0 {
		r.log.Warnf("No results were generated from the benchmark")
		return report, nil
	}

	// Results collected before a cancellation are still exported
	r.export(context.WithoutCancel(ctx), report)
	r.log.Successf("Benchmark '%s' finished: %d result(s) in %s",
		report.Benchmark, report.Count(), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	return report, nil
}

// runVendor runs setup, warmup and the benchmark phase for one vendor.
// The vendor's pool and primary connector are always closed on return.
func (r *Runner) runVendor(ctx context.Context, runID, vendor string, results *ResultSet) (err error) {
	ctx, span := observability.StartSpan(ctx, "benchmark.vendor",
		attribute.String(observability.AttrVendor, vendor),
		attribute.String(observability.AttrRunID, runID))
	defer func() { observability.EndSpan(span, err) }()

	log := r.log.With("vendor", vendor)
	log.Infof("Running benchmark for %s", vendor)

	var p *pool.Pool
	defer func() {
		if p != nil {
			if closeErr := p.CloseAll(); closeErr != nil {
				log.Warnf("Error closing pool: %v", closeErr)
			}
		}
		if closeErr := r.primary.Close(vendor); closeErr != nil {
			log.Warnf("Error closing connector: %v", closeErr)
		}
	}()

	if r.opts.ExecuteSetup {
		if err := r.ExecuteSetup(ctx, vendor); err != nil {
			log.Warnf("Skipping %s benchmark due to setup failure", vendor)
			return err
		}
	}

	if r.opts.RunWarmup {
		if err := r.RunWarmup(ctx, vendor); err != nil {
			log.Warnf("Skipping %s benchmark due to warmup failure", vendor)
			return err
		}
	}

	queries, err := r.loadBenchmark(vendor)
	if err != nil {
		return err
	}
	log.Infof("Loaded %d queries for %s", len(queries), vendor)

	p, err = pool.New(ctx, vendor, func() (interfaces.Connector, error) {
		return r.deps.Factory.New(vendor, r.creds[vendor])
	}, r.opts.PoolSize)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	iterations := r.opts.Iterations()
	for _, query := range queries {
		for iteration := 1; iteration <= iterations; iteration++ {
			log.Debugf("Running query %d, iteration %d", query.Number, iteration)
			r.runConcurrent(ctx, p, results, domain.Execution{
				RunID:           runID,
				Vendor:          vendor,
				Query:           query,
				Iteration:       iteration,
				TotalIterations: iterations,
			})
		}
	}
	return nil
}

// runConcurrent dispatches Concurrency simultaneous executions of one query
func (r *Runner) runConcurrent(ctx context.Context, p *pool.Pool, results *ResultSet, base domain.Execution) {
	var wg sync.WaitGroup
	for slot := 1; slot <= r.opts.Concurrency; slot++ {
		exec := base
		exec.ConcurrentRun = slot
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := r.execute(ctx, p, exec)
			results.Add(result)
			if result.IsFinalIteration() {
				r.publish(ctx, result)
			}
		}()
	}
	wg.Wait()
}

// execute runs one query on a pooled connection. The measured duration
// includes the wait for the connection.
func (r *Runner) execute(ctx context.Context, p *pool.Pool, exec domain.Execution) domain.QueryResult {
	ctx, span := observability.StartSpan(ctx, "benchmark.query",
		attribute.String(observability.AttrVendor, exec.Vendor),
		attribute.String(observability.AttrQueryName, exec.Query.Name),
		attribute.Int(observability.AttrIteration, exec.Iteration),
		attribute.Int(observability.AttrConcurrent, exec.ConcurrentRun))

	start := time.Now()
	rows, err := r.executeOnPool(ctx, p, exec.Query.Text)
	elapsed := time.Since(start)
	observability.EndSpan(span, err)
	observability.RecordQueryExecution(ctx, exec.Vendor, exec.Query.Name, err == nil, float64(elapsed.Microseconds())/1000)

	if err != nil {
		r.log.Errorf("Query failed for %s (%s): %v", exec.Vendor, exec.Query.Name, err)
		return domain.NewErrorResult(exec, elapsed, err)
	}
	return domain.NewSuccessResult(exec, elapsed, len(rows))
}

func (r *Runner) executeOnPool(ctx context.Context, p *pool.Pool, statement string) ([]map[string]any, error) {
	conn, err := p.Acquire(ctx, r.opts.AcquireTimeout)
	if err != nil {
		return nil, err
	}
	defer p.Release(conn)
	return conn.Execute(ctx, statement, nil)
}

func (r *Runner) publish(ctx context.Context, result domain.QueryResult) {
	if r.deps.Sink == nil {
		return
	}
	select {
	case r.deps.Sink <- result:
	case <-ctx.Done():
	}
}

func (r *Runner) export(ctx context.Context, report *domain.Report) {
	for _, exporter := range r.deps.Exporters {
		if err := exporter.Export(ctx, report); err != nil {
			r.log.Errorf("Failed to export results with %s: %v", exporter.Name(), apperrors.NewExportError("export failed", err))
			continue
		}
		r.log.Infof("Results exported with %s", exporter.Name())
	}
}
