package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolvePhaseFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "benchmark.sql"), "SELECT 1;")
	writeFile(t, filepath.Join(dir, "snowflake", "benchmark.sql"), "SELECT 2;")
	writeFile(t, filepath.Join(dir, "warmup.sql"), "SELECT 3;")

	tests := []struct {
		name   string
		vendor string
		phase  Phase
		want   string
		exists bool
	}{
		{"vendor specific wins", "snowflake", PhaseBenchmark, filepath.Join(dir, "snowflake", "benchmark.sql"), true},
		{"falls back to general", "redshift", PhaseBenchmark, filepath.Join(dir, "benchmark.sql"), true},
		{"general warmup for vendor dir", "snowflake", PhaseWarmup, filepath.Join(dir, "warmup.sql"), true},
		{"missing phase", "snowflake", PhaseSetup, filepath.Join(dir, "setup.sql"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, exists := ResolvePhaseFile(dir, tt.vendor, tt.phase)
			assert.Equal(t, tt.want, path)
			assert.Equal(t, tt.exists, exists)
		})
	}
}

func TestLoadPhase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "setup.sql"), "CREATE TABLE t (a INT);\nINSERT INTO t VALUES (1);")

	statements, _, found, err := LoadPhase(dir, "duckdb", PhaseSetup)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, statements, 2)

	statements, _, found, err = LoadPhase(dir, "duckdb", PhaseWarmup)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, statements)
}
