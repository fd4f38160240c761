package connectors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
)

// sqlBackend drives any database/sql driver. The *sql.DB is capped at one
// connection and a single *sql.Conn is pinned so that session settings
// (such as disabled result caching) apply to every statement.
type sqlBackend struct {
	openDB func() (*sql.DB, error)

	// pingStatement validates the session; PingContext is used when empty
	pingStatement     string
	cacheStatements   []string
	cleanupStatements []string

	db   *sql.DB
	conn *sql.Conn
}

func (b *sqlBackend) open(ctx context.Context) error {
	db, err := b.openDB()
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return err
	}

	b.db = db
	b.conn = conn
	return nil
}

func (b *sqlBackend) ping(ctx context.Context) error {
	if b.pingStatement == "" {
		return b.conn.PingContext(ctx)
	}
	rows, err := b.conn.QueryContext(ctx, b.pingStatement)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

func (b *sqlBackend) disableCache(ctx context.Context) error {
	return b.execAll(ctx, b.cacheStatements)
}

func (b *sqlBackend) cleanup(ctx context.Context) error {
	return b.execAll(ctx, b.cleanupStatements)
}

func (b *sqlBackend) execAll(ctx context.Context, statements []string) error {
	var errs []error
	for _, stmt := range statements {
		if _, err := b.conn.ExecContext(ctx, stmt); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return errors.Join(errs...)
}

func (b *sqlBackend) query(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	if b.conn == nil {
		return nil, sql.ErrConnDone
	}
	rows, err := b.conn.QueryContext(ctx, statement, namedArgs(params)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func (b *sqlBackend) close() error {
	var errs []error
	if b.conn != nil {
		if err := b.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, err)
		}
		b.conn = nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			errs = append(errs, err)
		}
		b.db = nil
	}
	return errors.Join(errs...)
}

// namedArgs converts statement parameters into sql.NamedArg values in a
// stable order
func namedArgs(params map[string]any) []any {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, sql.Named(k, params[k]))
	}
	return args
}

// scanRows materializes a result set into column name -> value maps
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			// []byte is converted to string for readable exports
			if b, ok := values[i].([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = values[i]
			}
		}
		results = append(results, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return results, nil
}
