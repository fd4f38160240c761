package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/hyperbench/core/logger"
	"github.com/hyperterse/hyperbench/core/parser"
	apperrors "github.com/hyperterse/hyperbench/core/shared/errors"
)

// workspace creates an isolated working directory holding a benchmark
// for the fake vendor and its credentials file
func workspace(t *testing.T) (bench, credsFile, out string) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	bench = filepath.Join(dir, "bench")
	require.NoError(t, os.MkdirAll(bench, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bench, "benchmark.sql"),
		[]byte("SELECT 1;\nSELECT 2;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bench, "queries.json"),
		[]byte(`{"q1": ["SELECT 1", "SELECT 10"], "q2": ["SELECT 2"]}`), 0o644))

	credsFile = filepath.Join(dir, "credentials.yaml")
	require.NoError(t, os.WriteFile(credsFile, []byte("fake:\n  rows: 2\n"), 0o644))

	return bench, credsFile, filepath.Join(dir, "results")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVendorsCommand(t *testing.T) {
	out, err := execute(t, "vendors")
	require.NoError(t, err)

	assert.Contains(t, out, "VENDOR")
	assert.Contains(t, out, "snowflake")
	assert.Contains(t, out, "account, user, password")
	assert.Contains(t, out, "fake")
}

func TestRunCommand_FakeVendor(t *testing.T) {
	bench, credsFile, results := workspace(t)

	out, err := execute(t, "run", bench,
		"--vendors", "fake",
		"--credentials", credsFile,
		"--output-dir", results,
		"--warmup=false",
		"--pool-size", "2",
	)
	require.NoError(t, err)

	// pool size 2 at concurrency 1 streams only the final iteration
	assert.Contains(t, out, "fake")
	assert.Contains(t, out, "2 row(s)")
	assert.FileExists(t, filepath.Join(results, "results.csv"))
	assert.FileExists(t, filepath.Join(results, "summary.json"))
	assert.FileExists(t, filepath.Join(results, "summary.svg"))
	assert.FileExists(t, filepath.Join(results, "run.json"))
}

func TestStressCommand_FakeVendor(t *testing.T) {
	bench, credsFile, results := workspace(t)

	out, err := execute(t, "stress", bench,
		"--vendor", "fake",
		"--credentials", credsFile,
		"--output-dir", results,
		"--concurrency", "2",
		"--duration", "50ms",
		"--seed", "9",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "across 2 worker(s)")
	assert.FileExists(t, filepath.Join(results, "fake_concurrency.csv"))
}

func TestValidateCommand_MissingBenchmark(t *testing.T) {
	_, credsFile, _ := workspace(t)

	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing"),
		"--vendors", "fake",
		"--credentials", credsFile,
	)
	require.Error(t, err)

	var verrs *parser.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.NotEmpty(t, verrs.Errors)
}

func TestLoadCredentials_CanonicalizesVendors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
BigQuery:
  project_id: analytics
  dataset: tpch
`), 0o644))
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "bench.db"))

	creds, err := loadCredentials(path)
	require.NoError(t, err)

	require.Contains(t, creds, "google")
	assert.Equal(t, "analytics", creds["google"].String("project_id"))
	require.Contains(t, creds, "sqlite")
	assert.Equal(t, filepath.Join(dir, "bench.db"), creds["sqlite"].String("path"))
}

func TestLoadCredentials_MissingFile(t *testing.T) {
	_, err := loadCredentials(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestStressCommand_RejectsSeveralVendors(t *testing.T) {
	bench, credsFile, results := workspace(t)

	_, err := execute(t, "stress", bench,
		"--vendor", "fake,sqlite",
		"--credentials", credsFile,
		"--output-dir", results,
	)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "one vendor")
	assert.NoFileExists(t, filepath.Join(results, "fake_concurrency.csv"))
}

func TestCanonicalVendors(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		unknown string
	}{
		{name: "aliases resolved", in: []string{"BigQuery", " Fake "}, want: []string{"google", "fake"}},
		{name: "empty", in: nil, want: []string{}},
		{name: "unknown rejected", in: []string{"fake", "oracle"}, unknown: "oracle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := canonicalVendors(tt.in)
			if tt.unknown != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsConfigurationError(err))
				assert.Contains(t, err.Error(), tt.unknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVendorFailure(t *testing.T) {
	refused := errors.New("connection refused")

	err := logger.WithRun("run-3", vendorFailure(map[string]error{"redshift": refused}))
	var tagged *logger.TaggedError
	require.ErrorAs(t, err, &tagged)
	assert.Equal(t, "runner", tagged.Tag())
	assert.Equal(t, "redshift", tagged.Vendor())
	assert.Equal(t, "run-3", tagged.RunID())
	assert.ErrorIs(t, err, refused)

	err = vendorFailure(map[string]error{"redshift": refused, "duckdb": refused})
	require.ErrorAs(t, err, &tagged)
	assert.Empty(t, tagged.Vendor())
	assert.EqualError(t, err, "benchmark failed for every vendor")
}
