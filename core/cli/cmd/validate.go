package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hyperterse/hyperbench/core/cli/internal"
	"github.com/hyperterse/hyperbench/core/domain"
	"github.com/hyperterse/hyperbench/core/logger"
	"github.com/hyperterse/hyperbench/core/observability"
	"github.com/hyperterse/hyperbench/core/parser"
)

var validateStress bool

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:           "validate [benchmark-path]",
	Short:         "Check credentials and benchmark scripts without connecting",
	RunE:          validateBenchmark,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	flags := validateCmd.Flags()
	flags.StringP("benchmark", "b", "", "Benchmark directory (alternative to the positional argument)")
	flags.StringSlice("vendors", nil, "Vendors to validate (comma-separated)")
	flags.String("credentials", "", "Credentials file (YAML or JSON keyed by vendor)")
	flags.BoolVar(&validateStress, "stress", false, "Validate queries.json for a stress run instead of benchmark.sql")
}

func validateBenchmark(cmd *cobra.Command, args []string) error {
	log := logger.New("validate")

	cfg, err := internal.LoadConfig(cmd, configFile)
	if err != nil {
		return logger.WithTag("config", err)
	}
	if len(args) == 1 {
		cfg.BenchmarkPath = args[0]
	}

	creds, err := loadCredentials(cfg.CredentialsFile)
	if err != nil {
		return logger.WithTag("credentials", err)
	}

	vendors, err := canonicalVendors(cfg.Vendors)
	if err != nil {
		return logger.WithTag("config", err)
	}
	if err := parser.Validate(parser.Target{
		BenchmarkPath: cfg.BenchmarkPath,
		Vendors:       vendors,
		Credentials:   creds,
		Stress:        validateStress,
	}); err != nil {
		// Validation errors are already logged by the validator
		return logger.WithTag("validate", err)
	}

	printCredentialSummary(log, vendors, creds)
	log.Successf("Benchmark is valid: %s", cfg.BenchmarkPath)
	return nil
}

// printCredentialSummary logs the resolved credential fields with secrets
// redacted
func printCredentialSummary(log logger.Logger, vendors []string, creds map[string]domain.Credentials) {
	log.Info("Validation report:")
	for _, vendor := range vendors {
		c := creds[vendor]
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		log.Infof("  %s:", vendor)
		for _, k := range keys {
			log.Infof("    %s: %s", k, observability.RedactAttributeValue(k, fmt.Sprint(c[k])))
		}
	}
}
