// Package db opens SQL databases that suites read their subjects from.
// Only SQLite is supported.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

const memoryDSN = ":memory:"

// QueryResult holds the rows a query returned, keyed by column name.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}

// Values returns the rows as a []any so they can be used as a subject.
func (r *QueryResult) Values() []any {
	values := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		values[i] = row
	}
	return values
}

type Client struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewClient opens and pings the database named by connectionString.
func NewClient(connectionString string) (*Client, error) {
	driver, dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Client{
		db:           db,
		queryTimeout: 30 * time.Second,
	}, nil
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Exec runs statements in order, stopping at the first failure.
func (c *Client) Exec(ctx context.Context, statements ...string) error {
	for i, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		qctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
		_, err := c.db.ExecContext(qctx, stmt)
		cancel()
		if err != nil {
			return fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Query runs query and collects every row.
func (c *Client) Query(ctx context.Context, query string) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{
		Columns: columns,
		Rows:    make([]map[string]any, 0),
	}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

// parseConnectionString maps a connection string to a driver and DSN.
// Supported formats:
//   - sqlite://path/to/db.sqlite
//   - sqlite:./test.db
//   - :memory:
func parseConnectionString(connStr string) (driver string, dsn string, err error) {
	connStr = strings.TrimSpace(connStr)

	switch {
	case connStr == memoryDSN:
		return "sqlite3", memoryDSN, nil
	case strings.HasPrefix(connStr, "sqlite://"):
		dsn = strings.TrimPrefix(connStr, "sqlite://")
	case strings.HasPrefix(connStr, "sqlite:"):
		dsn = strings.TrimPrefix(connStr, "sqlite:")
	default:
		scheme, _, found := strings.Cut(connStr, "://")
		if !found {
			return "", "", fmt.Errorf("invalid connection string: %q", connStr)
		}
		return "", "", fmt.Errorf("unsupported database scheme: %s", scheme)
	}

	if dsn == "" {
		return "", "", fmt.Errorf("invalid connection string: %q has no path", connStr)
	}
	return "sqlite3", dsn, nil
}
