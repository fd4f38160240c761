package parser

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperterse/hyperbench/core/domain"
)

// LoadCredentialsFile reads a YAML or JSON document keyed by vendor name.
// String values may reference the environment as {{ env.NAME }}.
func LoadCredentialsFile(path string) (map[string]domain.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	creds, err := ParseCredentials(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return creds, nil
}

// ParseCredentials decodes a credentials document. JSON input is accepted
// since it is valid YAML.
func ParseCredentials(data []byte) (map[string]domain.Credentials, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	creds := make(map[string]domain.Credentials, len(raw))
	for vendor, value := range raw {
		entry, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid credentials structure for '%s': expected a mapping", vendor)
		}
		substituted, err := substituteEnvVarsInValue(entry)
		if err != nil {
			return nil, fmt.Errorf("credentials for '%s': %w", vendor, err)
		}
		creds[vendor] = domain.Credentials(substituted.(map[string]any))
	}
	return creds, nil
}

// envVendor describes how one vendor's credentials map onto environment
// variables sharing a prefix
type envVendor struct {
	vendor string
	prefix string
	fields map[string]string
	ints   map[string]int
}

var envVendors = []envVendor{
	{
		vendor: "snowflake",
		prefix: "SNOWFLAKE",
		fields: map[string]string{
			"account":                    "SNOWFLAKE_ACCOUNT",
			"user":                       "SNOWFLAKE_USER",
			"password":                   "SNOWFLAKE_PASSWORD",
			"database":                   "SNOWFLAKE_DATABASE",
			"schema":                     "SNOWFLAKE_SCHEMA",
			"warehouse":                  "SNOWFLAKE_WAREHOUSE",
			"role":                       "SNOWFLAKE_ROLE",
			"suspend_warehouse_on_close": "SNOWFLAKE_SUSPEND_WAREHOUSE_ON_CLOSE",
		},
	},
	{
		vendor: "redshift",
		prefix: "REDSHIFT",
		fields: map[string]string{
			"host":     "REDSHIFT_HOST",
			"database": "REDSHIFT_DATABASE",
			"user":     "REDSHIFT_USER",
			"password": "REDSHIFT_PASSWORD",
		},
		ints: map[string]int{"REDSHIFT_PORT": 5439},
	},
	{
		vendor: "firebolt",
		prefix: "FIREBOLT",
		fields: map[string]string{
			"account_name":         "FIREBOLT_ACCOUNT_NAME",
			"database":             "FIREBOLT_DATABASE",
			"engine_name":          "FIREBOLT_ENGINE_NAME",
			"stop_engine_on_close": "FIREBOLT_STOP_ENGINE_ON_CLOSE",
		},
	},
	{
		vendor: "postgres",
		prefix: "POSTGRES",
		fields: map[string]string{
			"host":     "POSTGRES_HOST",
			"database": "POSTGRES_DATABASE",
			"user":     "POSTGRES_USER",
			"password": "POSTGRES_PASSWORD",
			"sslmode":  "POSTGRES_SSLMODE",
			"dsn":      "POSTGRES_DSN",
		},
		ints: map[string]int{"POSTGRES_PORT": 5432},
	},
	{
		vendor: "mysql",
		prefix: "MYSQL",
		fields: map[string]string{
			"host":     "MYSQL_HOST",
			"database": "MYSQL_DATABASE",
			"user":     "MYSQL_USER",
			"password": "MYSQL_PASSWORD",
		},
		ints: map[string]int{"MYSQL_PORT": 3306},
	},
	{
		vendor: "clickhouse",
		prefix: "CLICKHOUSE",
		fields: map[string]string{
			"host":     "CLICKHOUSE_HOST",
			"database": "CLICKHOUSE_DATABASE",
			"user":     "CLICKHOUSE_USER",
			"password": "CLICKHOUSE_PASSWORD",
		},
		ints: map[string]int{"CLICKHOUSE_PORT": 9000},
	},
	{
		vendor: "duckdb",
		prefix: "DUCKDB",
		fields: map[string]string{"path": "DUCKDB_PATH"},
	},
	{
		vendor: "sqlite",
		prefix: "SQLITE",
		fields: map[string]string{"path": "SQLITE_PATH"},
	},
	{
		vendor: "libsql",
		prefix: "LIBSQL",
		fields: map[string]string{"url": "LIBSQL_URL", "auth_token": "LIBSQL_AUTH_TOKEN"},
	},
	{
		vendor: "redis",
		prefix: "REDIS",
		fields: map[string]string{"url": "REDIS_URL"},
	},
	{
		vendor: "mongodb",
		prefix: "MONGODB",
		fields: map[string]string{"uri": "MONGODB_URI", "database": "MONGODB_DATABASE"},
	},
}

// CredentialsFromEnv builds credentials from the process environment. A
// vendor is present when any variable with its prefix is set.
func CredentialsFromEnv() map[string]domain.Credentials {
	return credentialsFromEnviron(os.Environ())
}

func credentialsFromEnviron(environ []string) map[string]domain.Credentials {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			env[key] = value
		}
	}

	hasPrefix := func(prefix string) bool {
		for key := range env {
			if strings.HasPrefix(key, prefix+"_") {
				return true
			}
		}
		return false
	}

	creds := make(map[string]domain.Credentials)
	for _, spec := range envVendors {
		if !hasPrefix(spec.prefix) {
			continue
		}
		entry := domain.Credentials{}
		for field, name := range spec.fields {
			if value, ok := env[name]; ok && value != "" {
				entry[field] = value
			}
		}
		for name, fallback := range spec.ints {
			field := strings.ToLower(strings.TrimPrefix(name, spec.prefix+"_"))
			entry[field] = fallback
			if value, ok := env[name]; ok {
				if n, err := strconv.Atoi(value); err == nil {
					entry[field] = n
				}
			}
		}

		if spec.vendor == "firebolt" {
			entry["auth"] = map[string]any{
				"id":     env["FIREBOLT_SERVICE_ID"],
				"secret": env["FIREBOLT_SERVICE_SECRET"],
			}
		}
		creds[spec.vendor] = entry
	}

	if hasPrefix("BIGQUERY") {
		creds["google"] = domain.Credentials{
			"project_id": env["BIGQUERY_PROJECT_ID"],
			"dataset":    env["BIGQUERY_DATASET"],
			"key":        bigQueryKeyFromEnv(env),
		}
	}
	return creds
}

// bigQueryKeyFromEnv prefers a readable BIGQUERY_KEY_FILE, then inline
// BIGQUERY_KEY_JSON. Undecodable values are passed through as text.
func bigQueryKeyFromEnv(env map[string]string) any {
	if path := env["BIGQUERY_KEY_FILE"]; path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var key map[string]any
			if json.Unmarshal(data, &key) == nil {
				return key
			}
			return path
		}
	}
	if inline := env["BIGQUERY_KEY_JSON"]; inline != "" {
		var key map[string]any
		if json.Unmarshal([]byte(inline), &key) == nil {
			return key
		}
		return inline
	}
	return nil
}

// MergeCredentials overlays file credentials on top of environment
// credentials, vendor by vendor
func MergeCredentials(env, file map[string]domain.Credentials) map[string]domain.Credentials {
	out := make(map[string]domain.Credentials, len(env)+len(file))
	for vendor, creds := range env {
		out[vendor] = creds.Clone()
	}
	for vendor, creds := range file {
		merged, ok := out[vendor]
		if !ok {
			out[vendor] = creds.Clone()
			continue
		}
		maps.Copy(merged, creds.Clone())
	}
	return out
}
