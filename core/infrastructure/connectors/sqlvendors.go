package connectors

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/hyperterse/hyperbench/core/domain"
)

// NewPostgresConnector creates a PostgreSQL connector (lib/pq)
func NewPostgresConnector(creds domain.Credentials) *Session {
	dsn := creds.String("dsn")
	if dsn == "" {
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(creds.String("user"), creds.String("password")),
			Host:   net.JoinHostPort(creds.String("host"), strconv.Itoa(creds.Int("port", 5432))),
			Path:   "/" + creds.String("database"),
		}
		q := url.Values{}
		q.Set("sslmode", creds.StringOr("sslmode", "prefer"))
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	return newSession(VendorPostgres, "", &sqlBackend{
		openDB:        func() (*sql.DB, error) { return sql.Open("postgres", dsn) },
		pingStatement: "SELECT 1",
	})
}

// NewMySQLConnector creates a MySQL connector
func NewMySQLConnector(creds domain.Credentials) *Session {
	cfg := mysql.NewConfig()
	cfg.User = creds.String("user")
	cfg.Passwd = creds.String("password")
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(creds.String("host"), strconv.Itoa(creds.Int("port", 3306)))
	cfg.DBName = creds.String("database")
	cfg.ParseTime = true

	return newSession(VendorMySQL, "", &sqlBackend{
		openDB:          func() (*sql.DB, error) { return sql.Open("mysql", cfg.FormatDSN()) },
		pingStatement:   "SELECT 1",
		cacheStatements: []string{"SET SESSION query_cache_type = OFF"},
	})
}

// NewClickHouseConnector creates a ClickHouse connector over the native
// protocol. The query cache is disabled through connection settings.
func NewClickHouseConnector(creds domain.Credentials) *Session {
	opts := &clickhouse.Options{
		Addr: []string{net.JoinHostPort(creds.String("host"), strconv.Itoa(creds.Int("port", 9000)))},
		Auth: clickhouse.Auth{
			Database: creds.String("database"),
			Username: creds.String("user"),
			Password: creds.String("password"),
		},
		Settings: clickhouse.Settings{
			"use_query_cache": 0,
		},
		DialTimeout: 10 * time.Second,
	}

	return newSession(VendorClickHouse, "", &sqlBackend{
		openDB: func() (*sql.DB, error) { return clickhouse.OpenDB(opts), nil },
	})
}

// NewDuckDBConnector creates an embedded DuckDB connector
func NewDuckDBConnector(creds domain.Credentials) *Session {
	path := creds.String("path")
	return newSession(VendorDuckDB, "", &sqlBackend{
		openDB:        func() (*sql.DB, error) { return sql.Open("duckdb", path) },
		pingStatement: "SELECT 1",
	})
}

// NewSQLiteConnector creates an embedded SQLite connector
func NewSQLiteConnector(creds domain.Credentials) *Session {
	path := creds.String("path")
	return newSession(VendorSQLite, "", &sqlBackend{
		openDB:        func() (*sql.DB, error) { return sql.Open("sqlite3", path) },
		pingStatement: "SELECT 1",
	})
}

// NewLibSQLConnector creates a libSQL (Turso) connector
func NewLibSQLConnector(creds domain.Credentials) *Session {
	dsn := creds.String("url")
	if token := creds.String("auth_token"); token != "" {
		dsn = fmt.Sprintf("%s?authToken=%s", dsn, url.QueryEscape(token))
	}
	return newSession(VendorLibSQL, "", &sqlBackend{
		openDB:        func() (*sql.DB, error) { return sql.Open("libsql", dsn) },
		pingStatement: "SELECT 1",
	})
}
