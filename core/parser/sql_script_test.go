package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "empty input",
			script: "",
			want:   []string{},
		},
		{
			name:   "comments and blank lines only",
			script: "-- header\n\n   \n-- footer\n",
			want:   []string{},
		},
		{
			name: "terminated statements with inline comments",
			script: `-- TPC-H style queries
SELECT 1; -- first

SELECT
    a, -- column a
    b
FROM t
WHERE a > 1;
`,
			want: []string{"SELECT 1", "SELECT a, b FROM t WHERE a > 1"},
		},
		{
			name:   "trailing unterminated statement",
			script: "SELECT 1;\nSELECT 2",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "bare terminator is not a statement",
			script: "SELECT 1;\n;\nSELECT 2;",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "terminator hidden behind comment",
			script: "SELECT 1 -- ;\nFROM dual;",
			want:   []string{"SELECT 1 FROM dual"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript(strings.NewReader(tt.script))
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScript_StatementCount(t *testing.T) {
	for k := 0; k < 6; k++ {
		var b strings.Builder
		b.WriteString("-- generated\n")
		for i := 0; i < k; i++ {
			b.WriteString("SELECT\n  col -- trailing\nFROM t;\n\n")
		}

		got, err := ParseScript(strings.NewReader(b.String()))
		require.NoError(t, err)
		assert.Len(t, got, k)

		got, err = ParseScript(strings.NewReader(b.String() + "SELECT 42"))
		require.NoError(t, err)
		assert.Len(t, got, k+1)

		for _, stmt := range got {
			assert.NotEmpty(t, stmt)
			assert.NotContains(t, stmt, "--")
		}
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "benchmark.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT 1;\nSELECT 2;\n"), 0o644))

	got, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, got)

	_, err = LoadScript(filepath.Join(dir, "missing.sql"))
	assert.Error(t, err)
}

func TestFromStatements(t *testing.T) {
	in := []string{"SELECT 1", "SELECT 2"}
	out := FromStatements(in)
	assert.Equal(t, in, out)

	out[0] = "changed"
	assert.Equal(t, "SELECT 1", in[0])

	assert.Equal(t, []string{}, FromStatements(nil))
}
