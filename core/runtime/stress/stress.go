// Package stress runs a fixed-duration concurrency test against one vendor.
// Every worker owns its own connector and cycles through randomly chosen
// query variants until the stop signal fires.
package stress

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	"github.com/hyperterse/hyperbench/core/infrastructure/connectors"
	"github.com/hyperterse/hyperbench/core/logger"
	"github.com/hyperterse/hyperbench/core/observability"
	"github.com/hyperterse/hyperbench/core/parser"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// Deps carries the collaborators of a Runner
type Deps struct {
	Credentials map[string]domain.Credentials
	// Factory builds connectors; the built-in vendor catalogue when nil
	Factory interfaces.ConnectorFactory
	// Exporter receives the per-worker results; nothing is written when nil
	Exporter interfaces.StressExporter
}

// Report is the outcome of a stress run
type Report struct {
	Vendor    string
	Seeds     []uint64
	StartedAt time.Time
	StoppedAt time.Time
	// Workers holds the results of each worker, indexed by worker id
	Workers [][]domain.StressResult
}

// Count returns the number of recorded executions
func (r *Report) Count() int {
	n := 0
	for _, w := range r.Workers {
		n += len(w)
	}
	return n
}

// Runner executes one stress run
type Runner struct {
	opts     Options
	creds    domain.Credentials
	queries  *parser.StressQueries
	factory  interfaces.ConnectorFactory
	exporter interfaces.StressExporter
	log      logger.Logger
}

// New validates opts, resolves the vendor's credentials and loads its
// query variants. No connection is opened.
func New(opts Options, deps Deps) (*Runner, error) {
	opts.Vendor = connectors.CanonicalVendor(opts.Vendor)
	if err := opts.validate(); err != nil {
		return nil, err
	}

	factory := deps.Factory
	if factory == nil {
		factory = connectors.Factory
	}

	var creds domain.Credentials
	available := make([]string, 0, len(deps.Credentials))
	for vendor, c := range deps.Credentials {
		vendor = connectors.CanonicalVendor(vendor)
		available = append(available, vendor)
		if vendor == opts.Vendor {
			creds = c.Clone()
		}
	}
	if creds == nil {
		slices.Sort(available)
		return nil, apperrors.NewConfigurationError(fmt.Sprintf(
			"no credentials found for vendor '%s'; available vendors: %v", opts.Vendor, available))
	}

	// Building an idle connector validates the credentials without I/O
	probe, err := factory.New(opts.Vendor, creds)
	if err != nil {
		return nil, err
	}
	_ = probe.Close()

	queries, err := parser.LoadStressQueries(opts.BenchmarkPath, opts.Vendor)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration,
			fmt.Sprintf("failed to load stress queries for %s", opts.Vendor), err)
	}

	r := &Runner{
		opts:     opts,
		creds:    creds,
		queries:  queries,
		factory:  factory,
		exporter: deps.Exporter,
		log:      logger.New("stress").With("vendor", opts.Vendor),
	}
	r.log.Infof("Loaded %d queries for %s from %s", len(queries.Names), opts.Vendor, queries.Path)
	return r, nil
}

// Run starts Concurrency workers, lets them run for Duration after the
// start barrier opens and exports what they recorded. Cancelling ctx
// stops the run early; results collected so far are still exported.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	ctx, span := observability.StartSpan(ctx, "stress.run",
		attribute.String(observability.AttrVendor, r.opts.Vendor),
		attribute.Int(observability.AttrConcurrent, r.opts.Concurrency))
	defer func() { observability.EndSpan(span, err) }()

	r.log.Infof("Running concurrency benchmark for %s with %d worker(s) for %s",
		r.opts.Vendor, r.opts.Concurrency, r.opts.Duration)

	report = &Report{
		Vendor:  r.opts.Vendor,
		Seeds:   workerSeeds(r.opts.Seed, r.opts.Concurrency),
		Workers: make([][]domain.StressResult, r.opts.Concurrency),
	}

	sig := newSignal(r.opts.Concurrency)
	var wg sync.WaitGroup
	for id, seed := range report.Seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Workers[id] = r.work(ctx, sig, id, seed)
		}()
	}

	if sig.release(ctx) {
		report.StartedAt = time.Now()
		timer := time.NewTimer(r.opts.Duration)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.log.Warnf("Stress run cancelled: %v", ctx.Err())
		}
	}
	sig.halt()
	// every recorded execution finished before StoppedAt
	report.StoppedAt = time.Now()
	wg.Wait()

	for id, results := range report.Workers {
		if len(results) == 0 {
			r.log.Warnf("No results found for worker %d", id)
		}
	}

	if r.exporter != nil {
		if err := r.exporter.ExportStress(context.WithoutCancel(ctx), r.opts.Vendor, report.Workers); err != nil {
			return report, apperrors.NewExportError("failed to export stress results", err)
		}
	}

	r.log.Successf("Finished concurrency benchmark for %s: %d execution(s)", r.opts.Vendor, report.Count())
	return report, ctx.Err()
}

// work is the body of one worker. A worker that cannot connect still
// arrives at the barrier and records nothing.
func (r *Runner) work(ctx context.Context, sig *signal, id int, seed uint64) []domain.StressResult {
	log := r.log.With("worker", id)
	rng := rand.New(rand.NewPCG(seed, seed))

	names := slices.Clone(r.queries.Names)
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	conn, err := r.connect(ctx)
	if err != nil {
		log.Errorf("Worker %d failed to connect: %v", id, err)
		sig.arrive()
		return nil
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warnf("Error closing connector: %v", err)
		}
	}()

	if !sig.arrive() {
		return nil
	}

	results := make([]domain.StressResult, 0)
	queryID := 0
	for i := 0; !sig.isStopped(); i++ {
		name := names[i%len(names)]
		variants := r.queries.Variants[name]
		statement := variants[rng.IntN(len(variants))]

		start := time.Now()
		rows, err := conn.Execute(ctx, statement, nil)
		stop := time.Now()
		observability.RecordStressQuery(ctx, r.opts.Vendor, name, err == nil)

		result := domain.StressResult{
			WorkerID:  id,
			QueryName: name,
			QueryID:   queryID,
			RowCount:  len(rows),
			StartTime: start,
			StopTime:  stop,
		}
		if err != nil {
			log.Errorf("Query %s failed for %s: %v", name, r.opts.Vendor, err)
			failedAt := time.Now()
			result.HasError = true
			result.RowCount = 0
			result.StartTime, result.StopTime = failedAt, failedAt
		}

		if sig.isStopped() {
			break
		}
		results = append(results, result)
		queryID++
	}
	return results
}

func (r *Runner) connect(ctx context.Context) (interfaces.Connector, error) {
	conn, err := r.factory.New(r.opts.Vendor, r.creds)
	if err != nil {
		return nil, err
	}
	if err := conn.Connect(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// workerSeeds draws n distinct seeds in [0, seedSpace) from a generator
// seeded with master, so a run is reproducible from its master seed
func workerSeeds(master uint64, n int) []uint64 {
	rng := rand.New(rand.NewPCG(master, master))
	seen := make(map[uint64]bool, n)
	seeds := make([]uint64, 0, n)
	for len(seeds) < n {
		s := rng.Uint64N(seedSpace)
		if seen[s] {
			continue
		}
		seen[s] = true
		seeds = append(seeds, s)
	}
	return seeds
}
