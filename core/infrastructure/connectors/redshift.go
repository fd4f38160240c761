package connectors

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hyperterse/hyperbench/core/domain"
)

// redshiftBackend holds one pgx connection. Redshift speaks the Postgres
// wire protocol but rejects most of the extended protocol, so statements
// run in simple protocol mode.
type redshiftBackend struct {
	connString string
	conn       *pgx.Conn
}

// NewRedshiftConnector creates an Amazon Redshift connector
func NewRedshiftConnector(creds domain.Credentials) *Session {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(creds.String("user"), creds.String("password")),
		Host:   net.JoinHostPort(creds.String("host"), strconv.Itoa(creds.Int("port", 5439))),
		Path:   "/" + creds.String("database"),
	}
	q := url.Values{}
	q.Set("sslmode", creds.StringOr("sslmode", "require"))
	q.Set("connect_timeout", "30")
	u.RawQuery = q.Encode()

	return newSession(VendorRedshift, "", &redshiftBackend{connString: u.String()})
}

func (b *redshiftBackend) open(ctx context.Context) error {
	cfg, err := pgx.ParseConfig(b.connString)
	if err != nil {
		return fmt.Errorf("failed to parse redshift connection string: %w", err)
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return err
	}
	b.conn = conn
	return nil
}

func (b *redshiftBackend) ping(ctx context.Context) error {
	_, err := b.query(ctx, "SELECT 1", nil)
	return err
}

func (b *redshiftBackend) disableCache(ctx context.Context) error {
	_, err := b.conn.Exec(ctx, "SET enable_result_cache_for_session TO off")
	return err
}

func (b *redshiftBackend) query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	if b.conn == nil || b.conn.IsClosed() {
		return nil, fmt.Errorf("redshift connection is closed")
	}

	var args []any
	if len(params) > 0 {
		args = append(args, pgx.NamedArgs(params))
	}

	rows, err := b.conn.Query(ctx, statement, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columns[i] = fd.Name
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to get row values: %w", err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(values) {
				rowMap[col] = values[i]
			}
		}
		results = append(results, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *redshiftBackend) cleanup(context.Context) error {
	return nil
}

func (b *redshiftBackend) close() error {
	if b.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.conn.Close(ctx)
	b.conn = nil
	return err
}
