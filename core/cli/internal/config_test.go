package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/hyperbench/core/observability"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringSlice("vendors", nil, "")
	cmd.Flags().Int("pool-size", 5, "")
	cmd.Flags().Int("concurrency", 1, "")
	cmd.Flags().String("output-dir", "", "")
	cmd.Flags().Bool("warmup", true, "")
	cmd.Flags().Duration("duration", time.Minute, "")
	return cmd
}

// chdir moves into an empty directory so no hyperbench.yaml is picked up
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig(nil, "")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.PoolSize)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, "benchmark_results", cfg.OutputDir)
	assert.True(t, cfg.RunWarmup)
	assert.False(t, cfg.ExecuteSetup)
	assert.Empty(t, cfg.Vendors)
	assert.Equal(t, []string{"csv", "summary", "chart", "run"}, cfg.Formats)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "benchmark_results", cfg.Storage.Local.Path)
	assert.Equal(t, time.Minute, cfg.Stress.Duration)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
}

func TestLoadConfig_Environment(t *testing.T) {
	chdir(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HYPERBENCH_POOL_SIZE", "8")
	t.Setenv("HYPERBENCH_CONCURRENCY", "4")
	t.Setenv("HYPERBENCH_OUTPUT_DIR", "out")
	t.Setenv("HYPERBENCH_VENDORS", "firebolt, snowflake")
	t.Setenv("HYPERBENCH_ACQUIRE_TIMEOUT", "30s")
	t.Setenv("HYPERBENCH_STORAGE_BACKEND", "s3")
	t.Setenv("HYPERBENCH_STORAGE_S3_BUCKET", "results")
	t.Setenv("HYPERBENCH_STRESS_SEED", "7")
	t.Setenv("HYPERBENCH_TELEMETRY_ENABLED", "true")
	t.Setenv("HYPERBENCH_TELEMETRY_ENDPOINT", "otel.internal:4317")
	t.Setenv("HYPERBENCH_TELEMETRY_SAMPLING_RATIO", "0.25")

	cfg, err := LoadConfig(nil, "")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []string{"firebolt", "snowflake"}, cfg.Vendors)
	assert.Equal(t, 30*time.Second, cfg.AcquireTimeout)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "results", cfg.Storage.S3.Bucket)
	assert.Equal(t, uint64(7), cfg.Stress.Seed)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.True(t, cfg.Telemetry.Traces)
	assert.Equal(t, "otel.internal:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
}

func TestConfig_TelemetryConfig(t *testing.T) {
	cfg := &Config{
		BenchmarkPath: "./benchmarks/tpch/",
		Vendors:       []string{"snowflake", "duckdb"},
		Telemetry:     observability.Config{Enabled: true, Endpoint: "collector:4317"},
	}

	tc := cfg.TelemetryConfig("1.4.0")
	assert.Equal(t, "tpch", tc.Benchmark)
	assert.Equal(t, []string{"snowflake", "duckdb"}, tc.Vendors)
	assert.Equal(t, "1.4.0", tc.Version)
	assert.Equal(t, "collector:4317", tc.Endpoint)
	assert.True(t, tc.Enabled)

	assert.Empty(t, (&Config{}).TelemetryConfig("dev").Benchmark)
}

func TestLoadConfig_FileAndFlags(t *testing.T) {
	dir := chdir(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
benchmark_path: ./benchmarks/tpch
vendors: [redshift, bigquery]
pool_size: 3
concurrency: 2
run_warmup: false
queries:
  - SELECT count(*) FROM lineitem
  - SELECT a, b FROM orders
storage:
  backend: azure
  azure:
    container: bench
    connection_string: UseDevelopmentStorage=true
`), 0o644))

	cmd := newFlagCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--concurrency", "6", "--vendors", "duckdb"}))

	cfg, err := LoadConfig(cmd, path)
	require.NoError(t, err)

	assert.Equal(t, "./benchmarks/tpch", cfg.BenchmarkPath)
	assert.Equal(t, 3, cfg.PoolSize, "file value wins over an unset flag")
	assert.Equal(t, 6, cfg.Concurrency, "explicit flag wins over the file")
	assert.Equal(t, []string{"duckdb"}, cfg.Vendors)
	assert.False(t, cfg.RunWarmup)
	assert.Equal(t, "azure", cfg.Storage.Backend)
	assert.Equal(t, "bench", cfg.Storage.Azure.Container)

	opts := cfg.RunnerOptions()
	assert.Equal(t, 6, opts.Concurrency)
	assert.Equal(t, []string{"duckdb"}, opts.Vendors)
	assert.Equal(t, []string{"SELECT count(*) FROM lineitem", "SELECT a, b FROM orders"}, opts.Queries)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	dir := chdir(t)

	_, err := LoadConfig(nil, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
}

func TestConfig_StressOptions(t *testing.T) {
	cfg := &Config{
		BenchmarkPath: "bench",
		Vendors:       []string{"snowflake"},
		Concurrency:   16,
		Stress:        StressConfig{Duration: 90 * time.Second, Seed: 3},
	}

	opts, err := cfg.StressOptions()
	require.NoError(t, err)
	assert.Equal(t, "snowflake", opts.Vendor)
	assert.Equal(t, 16, opts.Concurrency)
	assert.Equal(t, 90*time.Second, opts.Duration)
	assert.Equal(t, uint64(3), opts.Seed)
}

func TestConfig_StressOptions_RejectsSeveralVendors(t *testing.T) {
	cfg := &Config{
		BenchmarkPath: "bench",
		Vendors:       []string{"snowflake", "firebolt"},
		Concurrency:   4,
	}

	_, err := cfg.StressOptions()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "snowflake, firebolt")
	assert.Equal(t, []string{"vendors"}, apperrors.MissingFields(err))
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"comma separated", []string{"a,b", " c "}, []string{"a", "b", "c"}},
		{"blanks dropped", []string{"", " , ", "d"}, []string{"d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.in))
		})
	}
}
