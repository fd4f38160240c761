package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperterse/hyperbench/core/cli/internal"
	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/domain/interfaces"
	"github.com/hyperterse/hyperbench/core/logger"
	"github.com/hyperterse/hyperbench/core/runtime/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [benchmark-path]",
	Short: "Run a benchmark against one or more vendors",
	Long: `Run the setup, warmup and benchmark scripts of a benchmark directory
against every requested vendor in parallel and export the results.`,
	RunE:          runBenchmark,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true, // Errors are already logged, suppress Cobra's error output
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("benchmark", "b", "", "Benchmark directory (alternative to the positional argument)")
	flags.StringSlice("vendors", nil, "Vendors to benchmark (comma-separated)")
	flags.Int("pool-size", runner.DefaultPoolSize, "Connections per vendor; also the iteration count at concurrency 1")
	flags.Int("concurrency", runner.DefaultConcurrency, "Concurrent executions of each query")
	flags.StringP("output-dir", "o", runner.DefaultOutputDir, "Directory for local exports")
	flags.Bool("execute-setup", false, "Run the vendor setup script before benchmarking")
	flags.Bool("warmup", true, "Run the vendor warmup script before benchmarking")
	flags.Duration("acquire-timeout", 0, "Maximum wait for a pooled connection (0 waits forever)")
	flags.String("credentials", "", "Credentials file (YAML or JSON keyed by vendor)")
	flags.StringSlice("formats", nil, "Export formats: csv, summary, chart, run")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flags.String("storage", "", "Export storage backend: local, s3 or azure")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	log := logger.New("run")

	cfg, err := internal.LoadConfig(cmd, configFile)
	if err != nil {
		return logger.WithTag("config", err)
	}
	if len(args) == 1 {
		cfg.BenchmarkPath = args[0]
	}
	if cfg.Vendors, err = canonicalVendors(cfg.Vendors); err != nil {
		return logger.WithTag("config", err)
	}

	creds, err := loadCredentials(cfg.CredentialsFile)
	if err != nil {
		return logger.WithTag("credentials", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, backend, err := newFileExporter(ctx, cfg)
	if err != nil {
		return logger.WithTag("storage", err)
	}
	defer backend.Close()

	sess, err := startSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	results := make(chan domain.QueryResult)
	r, err := runner.New(cfg.RunnerOptions(), runner.Deps{
		Credentials:  creds,
		Exporters:    []interfaces.ResultExporter{exporter},
		Sink:         results,
		WarmupStatus: warmupStatus(log),
	})
	if err != nil {
		return logger.WithTag("runner", err)
	}

	opts := r.Options()
	log.Infof("Benchmark: %s", opts.BenchmarkPath)
	log.Infof("Vendors: %v", opts.Vendors)
	log.Debugf("Pool size: %d, concurrency: %d, iterations: %d", opts.PoolSize, opts.Concurrency, opts.Iterations())
	log.Infof("Exporting to %s", backend.Location(""))

	done := make(chan struct{})
	go func() {
		defer close(done)
		printResults(cmd, results)
	}()

	sess.setPhase("running")
	report, runErr := r.Run(ctx)
	close(results)
	<-done
	sess.setPhase("finished")

	if runErr != nil {
		return logger.WithTag("runner", runErr)
	}
	if err := ctx.Err(); err != nil {
		return logger.WithRun(report.RunID, logger.WithTag("runner", fmt.Errorf("benchmark interrupted: %w", err)))
	}
	if len(report.Failures) > 0 && len(report.Failures) == len(opts.Vendors) {
		return logger.WithRun(report.RunID, vendorFailure(report.Failures))
	}
	return nil
}

// vendorFailure describes a run in which every vendor failed. A single
// vendor's error is returned as is, tagged with that vendor.
func vendorFailure(failures map[string]error) error {
	if len(failures) == 1 {
		for vendor, err := range failures {
			return logger.WithVendor(vendor, logger.WithTag("runner", err))
		}
	}
	return logger.WithTag("runner", fmt.Errorf("benchmark failed for every vendor"))
}

// warmupStatus logs warmup progress; the empty status that ends a warmup
// carries nothing to show
func warmupStatus(log logger.Logger) runner.StatusFunc {
	return func(status string) {
		if status == "" {
			return
		}
		log.Infof("%s", status)
	}
}

// printResults writes one line per streamed result until results closes
func printResults(cmd *cobra.Command, results <-chan domain.QueryResult) {
	out := cmd.OutOrStdout()
	for res := range results {
		if res.Succeeded() {
			fmt.Fprintf(out, "%-12s %-24s run %-3d %10.4fs  %d row(s)\n",
				res.Vendor, res.QueryName, res.ConcurrentRun, res.Duration, res.RowCount)
			continue
		}
		fmt.Fprintf(out, "%-12s %-24s run %-3d %10.4fs  error: %s\n",
			res.Vendor, res.QueryName, res.ConcurrentRun, res.Duration, res.Error)
	}
}
