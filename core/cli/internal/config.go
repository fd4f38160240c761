package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hyperterse/hyperbench/core/infrastructure/storage"
	"github.com/hyperterse/hyperbench/core/observability"
	"github.com/hyperterse/hyperbench/core/runtime/runner"
	"github.com/hyperterse/hyperbench/core/runtime/stress"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// EnvPrefix is prepended to every configuration key read from the environment
const EnvPrefix = "HYPERBENCH"

// Config holds the settings shared by the run and stress commands
type Config struct {
	BenchmarkPath   string               `mapstructure:"benchmark_path"`
	Vendors         []string             `mapstructure:"vendors"`
	PoolSize        int                  `mapstructure:"pool_size"`
	Concurrency     int                  `mapstructure:"concurrency"`
	OutputDir       string               `mapstructure:"output_dir"`
	ExecuteSetup    bool                 `mapstructure:"execute_setup"`
	RunWarmup       bool                 `mapstructure:"run_warmup"`
	AcquireTimeout  time.Duration        `mapstructure:"acquire_timeout"`
	CredentialsFile string               `mapstructure:"credentials_file"`
	Formats         []string             `mapstructure:"formats"`
	// Queries replaces benchmark.sql; only read from the configuration file
	Queries         []string             `mapstructure:"queries"`
	MetricsAddr     string               `mapstructure:"metrics_addr"`
	Storage         storage.Config       `mapstructure:"storage"`
	Stress          StressConfig         `mapstructure:"stress"`
	Telemetry       observability.Config `mapstructure:"telemetry"`
}

// StressConfig holds the stress-only settings
type StressConfig struct {
	Duration time.Duration `mapstructure:"duration"`
	Seed     uint64        `mapstructure:"seed"`
}

// flagKeys maps command-line flags onto configuration keys
var flagKeys = map[string]string{
	"benchmark":       "benchmark_path",
	"vendors":         "vendors",
	"vendor":          "vendors",
	"pool-size":       "pool_size",
	"concurrency":     "concurrency",
	"output-dir":      "output_dir",
	"execute-setup":   "execute_setup",
	"warmup":          "run_warmup",
	"acquire-timeout": "acquire_timeout",
	"credentials":     "credentials_file",
	"formats":         "formats",
	"metrics-addr":    "metrics_addr",
	"storage":         "storage.backend",
	"duration":        "stress.duration",
	"seed":            "stress.seed",
}

// LoadConfig resolves configuration from defaults, an optional config
// file, HYPERBENCH_* environment variables and, highest, the flags of cmd
// that were set explicitly. An empty path searches for hyperbench.yaml in
// the working directory and $HOME/.hyperbench.
func LoadConfig(cmd *cobra.Command, path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hyperbench")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.hyperbench")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration,
				fmt.Sprintf("failed to read config file %s", configName(v, path)), err)
		}
	}

	if cmd != nil {
		for name, key := range flagKeys {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration,
					fmt.Sprintf("failed to bind flag --%s", name), err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConfiguration, "failed to decode configuration", err)
	}
	cfg.Vendors = splitList(cfg.Vendors)
	cfg.Formats = splitList(cfg.Formats)

	// Local exports land in the output directory unless a path is given
	if cfg.Storage.Local.Path == "" {
		cfg.Storage.Local.Path = cfg.OutputDir
	}
	return cfg, nil
}

// RunnerOptions converts the configuration into benchmark options
func (c *Config) RunnerOptions() runner.Options {
	return runner.Options{
		BenchmarkPath:  c.BenchmarkPath,
		Vendors:        c.Vendors,
		PoolSize:       c.PoolSize,
		Concurrency:    c.Concurrency,
		OutputDir:      c.OutputDir,
		ExecuteSetup:   c.ExecuteSetup,
		RunWarmup:      c.RunWarmup,
		AcquireTimeout: c.AcquireTimeout,
		Queries:        c.Queries,
	}
}

// TelemetryConfig returns the telemetry settings for this invocation
func (c *Config) TelemetryConfig(version string) observability.Config {
	tc := c.Telemetry
	tc.Version = version
	tc.Vendors = c.Vendors
	if c.BenchmarkPath != "" {
		tc.Benchmark = filepath.Base(filepath.Clean(c.BenchmarkPath))
	}
	return tc
}

// StressOptions converts the configuration into stress options. A stress
// run targets exactly one vendor.
func (c *Config) StressOptions() (stress.Options, error) {
	if len(c.Vendors) > 1 {
		return stress.Options{}, apperrors.NewConfigurationError(
			fmt.Sprintf("stress runs target one vendor, got %d: %s", len(c.Vendors), strings.Join(c.Vendors, ", ")),
			"vendors",
		)
	}
	opts := stress.Options{
		BenchmarkPath: c.BenchmarkPath,
		Concurrency:   c.Concurrency,
		Duration:      c.Stress.Duration,
		Seed:          c.Stress.Seed,
	}
	if len(c.Vendors) == 1 {
		opts.Vendor = c.Vendors[0]
	}
	return opts, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("benchmark_path", "")
	v.SetDefault("vendors", []string{})
	v.SetDefault("pool_size", runner.DefaultPoolSize)
	v.SetDefault("concurrency", runner.DefaultConcurrency)
	v.SetDefault("output_dir", runner.DefaultOutputDir)
	v.SetDefault("execute_setup", false)
	v.SetDefault("run_warmup", true)
	v.SetDefault("acquire_timeout", time.Duration(0))
	v.SetDefault("credentials_file", "")
	v.SetDefault("formats", []string{"csv", "summary", "chart", "run"})
	v.SetDefault("metrics_addr", "")

	telemetry := observability.DefaultConfig()
	v.SetDefault("telemetry.enabled", telemetry.Enabled)
	v.SetDefault("telemetry.traces", telemetry.Traces)
	v.SetDefault("telemetry.metrics", telemetry.Metrics)
	v.SetDefault("telemetry.endpoint", telemetry.Endpoint)
	v.SetDefault("telemetry.sampling_ratio", telemetry.SamplingRatio)
	v.SetDefault("telemetry.environment", telemetry.Environment)

	// Nested keys must be known to viper for environment overrides to
	// reach Unmarshal
	v.SetDefault("storage.backend", storage.TypeLocal)
	v.SetDefault("storage.local.path", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("storage.azure.connection_string", "")
	v.SetDefault("storage.azure.account_name", "")
	v.SetDefault("storage.azure.account_key", "")
	v.SetDefault("storage.azure.sas_token", "")
	v.SetDefault("storage.azure.use_managed_identity", false)
	v.SetDefault("storage.azure.container", "")
	v.SetDefault("storage.azure.prefix", "")
	v.SetDefault("storage.azure.endpoint", "")

	v.SetDefault("stress.duration", time.Minute)
	v.SetDefault("stress.seed", uint64(0))
}

func configName(v *viper.Viper, path string) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	if path != "" {
		return path
	}
	return "hyperbench.yaml"
}

// splitList flattens comma separated entries and drops blanks
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
