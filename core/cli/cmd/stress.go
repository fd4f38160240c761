package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperterse/hyperbench/core/cli/internal"
	"github.com/hyperterse/hyperbench/core/logger"
	"github.com/hyperterse/hyperbench/core/runtime/stress"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// stressCmd represents the stress command
var stressCmd = &cobra.Command{
	Use:   "stress [benchmark-path]",
	Short: "Hammer one vendor with concurrent randomized queries",
	Long: `Start one worker per concurrency slot against a single vendor. Every
worker connects, waits for the others, then executes randomly chosen query
variants from queries.json until the duration elapses.`,
	RunE:          runStress,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(stressCmd)

	flags := stressCmd.Flags()
	flags.StringP("benchmark", "b", "", "Benchmark directory (alternative to the positional argument)")
	flags.String("vendor", "", "Vendor to stress")
	flags.Int("concurrency", 1, "Number of concurrent workers")
	flags.Duration("duration", time.Minute, "How long workers keep issuing queries")
	flags.Uint64("seed", 0, "Seed for worker query selection")
	flags.StringP("output-dir", "o", "benchmark_results", "Directory for local exports")
	flags.String("credentials", "", "Credentials file (YAML or JSON keyed by vendor)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")
	flags.String("storage", "", "Export storage backend: local, s3 or azure")
}

func runStress(cmd *cobra.Command, args []string) error {
	log := logger.New("stress")

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
	opts, err := cfg.StressOptions()
	if err != nil {
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

	r, err := stress.New(opts, stress.Deps{
		Credentials: creds,
		Exporter:    exporter,
	})
	if err != nil {
		return logger.WithTag("stress", err)
	}

	log.Infof("Stressing %s with %d worker(s) for %s", opts.Vendor, opts.Concurrency, opts.Duration)
	sess.setPhase("running")
	report, err := r.Run(ctx)
	sess.setPhase("finished")

	if report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d execution(s) across %d worker(s) in %s\n",
			report.Vendor, report.Count(), len(report.Workers),
			report.StoppedAt.Sub(report.StartedAt).Round(time.Millisecond))
	}

	switch {
	case err == nil:
		return nil
	case apperrors.IsExportError(err):
		return logger.WithVendor(opts.Vendor, logger.WithTag("export", err))
	case errors.Is(err, ctx.Err()):
		return logger.WithVendor(opts.Vendor, logger.WithTag("stress", fmt.Errorf("stress run interrupted: %w", err)))
	default:
		return logger.WithVendor(opts.Vendor, logger.WithTag("stress", err))
	}
}
