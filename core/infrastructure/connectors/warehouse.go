package connectors

import (
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/firebolt-db/firebolt-go-sdk"
	sf "github.com/snowflakedb/gosnowflake"

	"github.com/hyperterse/hyperbench/core/domain"
)

// NewFireboltConnector creates a Firebolt connector authenticated with a
// service account. The engine is stopped on close unless
// stop_engine_on_close is false.
func NewFireboltConnector(creds domain.Credentials) *Session {
	auth, _ := creds.Map("auth")
	engine := creds.String("engine_name")

	query := url.Values{}
	query.Set("account_name", creds.String("account_name"))
	query.Set("client_id", fmt.Sprint(auth["id"]))
	query.Set("client_secret", fmt.Sprint(auth["secret"]))
	query.Set("engine", engine)
	dsn := fmt.Sprintf("firebolt:///%s?%s", url.PathEscape(creds.String("database")), query.Encode())

	b := &sqlBackend{
		openDB:          func() (*sql.DB, error) { return sql.Open("firebolt", dsn) },
		pingStatement:   "SELECT 1 AS connection_test",
		cacheStatements: []string{"SET enable_result_cache=false"},
	}
	if creds.Bool("stop_engine_on_close", true) && engine != "" {
		b.cleanupStatements = []string{fmt.Sprintf("STOP ENGINE %s", engine)}
	}
	return newSession(VendorFirebolt, engine, b)
}

// NewSnowflakeConnector creates a Snowflake connector. The warehouse is
// suspended on close when suspend_warehouse_on_close is true.
func NewSnowflakeConnector(creds domain.Credentials) *Session {
	warehouse := creds.String("warehouse")
	cfg := &sf.Config{
		Account:   creds.String("account"),
		User:      creds.String("user"),
		Password:  creds.String("password"),
		Database:  creds.String("database"),
		Schema:    creds.String("schema"),
		Warehouse: warehouse,
		Role:      creds.String("role"),
	}

	b := &sqlBackend{
		openDB: func() (*sql.DB, error) {
			dsn, err := sf.DSN(cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to build snowflake dsn: %w", err)
			}
			return sql.Open("snowflake", dsn)
		},
		pingStatement:   "SELECT 1",
		cacheStatements: []string{"ALTER SESSION SET USE_CACHED_RESULT = FALSE"},
	}
	if creds.Bool("suspend_warehouse_on_close", false) && warehouse != "" {
		b.cleanupStatements = []string{fmt.Sprintf("ALTER WAREHOUSE %s SUSPEND", warehouse)}
	}
	return newSession(VendorSnowflake, warehouse, b)
}
