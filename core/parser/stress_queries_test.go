package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStressQueries(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		names   []string
		wantErr string
	}{
		{
			name:  "names are sorted",
			data:  `{"q2": ["SELECT 2"], "q1": ["SELECT 1", "SELECT 1 + 0"]}`,
			names: []string{"q1", "q2"},
		},
		{
			name:    "empty object",
			data:    `{}`,
			wantErr: "no benchmark queries found",
		},
		{
			name:    "query without variants",
			data:    `{"q1": []}`,
			wantErr: "query 'q1' has no variants",
		},
		{
			name:    "not an object",
			data:    `["SELECT 1"]`,
			wantErr: "JSON object",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries, err := ParseStressQueries([]byte(tt.data))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.names, queries.Names)
		})
	}
}

func TestLoadStressQueries_VendorFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "queries.json"), `{"general": ["SELECT 1"]}`)
	writeFile(t, filepath.Join(dir, "firebolt", "queries.json"), `{"vendor": ["SELECT 2"]}`)

	queries, err := LoadStressQueries(dir, "firebolt")
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor"}, queries.Names)
	assert.Equal(t, filepath.Join(dir, "firebolt", "queries.json"), queries.Path)

	queries, err = LoadStressQueries(dir, "snowflake")
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, queries.Names)

	_, err = LoadStressQueries(t.TempDir(), "snowflake")
	assert.Error(t, err)
}
