package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperterse/hyperbench/core/domain"
)

func TestParseCredentials_YAML(t *testing.T) {
	t.Setenv("HB_TEST_SF_PASSWORD", "hunter2")

	creds, err := ParseCredentials([]byte(`
snowflake:
  account: acme-xy12345
  user: bench
  password: "{{ env.HB_TEST_SF_PASSWORD }}"
  warehouse: BENCH_WH
firebolt:
  account_name: acme
  database: bench
  engine_name: bench_engine
  auth:
    id: client
    secret: "{{env.HB_TEST_SF_PASSWORD}}"
redshift:
  host: example.redshift.amazonaws.com
  port: 5440
`))
	require.NoError(t, err)
	require.Len(t, creds, 3)

	assert.Equal(t, "hunter2", creds["snowflake"].String("password"))
	assert.Equal(t, 5440, creds["redshift"].Int("port", 5439))

	auth, ok := creds["firebolt"].Map("auth")
	require.True(t, ok)
	assert.Equal(t, "hunter2", auth["secret"])
}

func TestParseCredentials_JSON(t *testing.T) {
	creds, err := ParseCredentials([]byte(`{"google": {"project_id": "p", "dataset": "d", "key": {"type": "service_account"}}}`))
	require.NoError(t, err)

	key, ok := creds["google"].Map("key")
	require.True(t, ok)
	assert.Equal(t, "service_account", key["type"])
}

func TestParseCredentials_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"vendor entry is not a mapping", "snowflake: nope", "invalid credentials structure for 'snowflake'"},
		{"missing env variable", "redis:\n  url: \"{{ env.HB_TEST_DEFINITELY_UNSET }}\"", "HB_TEST_DEFINITELY_UNSET"},
		{"malformed yaml", "snowflake: [", "failed to unmarshal credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCredentials([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadCredentialsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("duckdb:\n  path: bench.duckdb\n"), 0o600))

	creds, err := LoadCredentialsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bench.duckdb", creds["duckdb"].String("path"))
}

func TestCredentialsFromEnviron(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(keyFile, []byte(`{"type": "service_account"}`), 0o600))

	creds := credentialsFromEnviron([]string{
		"SNOWFLAKE_ACCOUNT=acme",
		"SNOWFLAKE_USER=bench",
		"REDSHIFT_HOST=rs.example.com",
		"FIREBOLT_SERVICE_ID=client",
		"FIREBOLT_SERVICE_SECRET=secret",
		"BIGQUERY_PROJECT_ID=proj",
		"BIGQUERY_KEY_FILE=" + keyFile,
		"PATH=/usr/bin",
	})

	require.Contains(t, creds, "snowflake")
	assert.Equal(t, "acme", creds["snowflake"].String("account"))
	assert.False(t, creds["snowflake"].Has("password"))

	assert.Equal(t, 5439, creds["redshift"].Int("port", 0))

	auth, ok := creds["firebolt"].Map("auth")
	require.True(t, ok)
	assert.Equal(t, "client", auth["id"])
	assert.Equal(t, "secret", auth["secret"])

	key, ok := creds["google"].Map("key")
	require.True(t, ok)
	assert.Equal(t, "service_account", key["type"])

	assert.NotContains(t, creds, "postgres")
	assert.NotContains(t, creds, "mysql")
}

func TestBigQueryKeyFromEnv_InlineJSON(t *testing.T) {
	key := bigQueryKeyFromEnv(map[string]string{"BIGQUERY_KEY_JSON": `{"type":"service_account"}`})
	assert.Equal(t, map[string]any{"type": "service_account"}, key)

	key = bigQueryKeyFromEnv(map[string]string{"BIGQUERY_KEY_JSON": "not-json"})
	assert.Equal(t, "not-json", key)

	assert.Nil(t, bigQueryKeyFromEnv(map[string]string{}))
}

func TestMergeCredentials(t *testing.T) {
	env := map[string]domain.Credentials{
		"snowflake": {"account": "env-account", "user": "env-user"},
		"redis":     {"url": "redis://localhost:6379"},
	}
	file := map[string]domain.Credentials{
		"snowflake": {"user": "file-user", "password": "pw"},
		"duckdb":    {"path": "bench.duckdb"},
	}

	merged := MergeCredentials(env, file)
	assert.Equal(t, domain.Credentials{"account": "env-account", "user": "file-user", "password": "pw"}, merged["snowflake"])
	assert.Equal(t, "redis://localhost:6379", merged["redis"].String("url"))
	assert.Equal(t, "bench.duckdb", merged["duckdb"].String("path"))

	// inputs are left untouched
	assert.Equal(t, "env-user", env["snowflake"].String("user"))
}
