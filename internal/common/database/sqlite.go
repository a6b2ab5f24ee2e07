// internal/common/database/sqlite.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"citypulse/internal/common/config"

	_ "modernc.org/sqlite"
)

// SQLiteClient wraps the SQL database connection
type SQLiteClient struct {
	DB *sql.DB
}

// NewSQLite opens the incident database read-only.
func NewSQLite(cfg config.SQLiteConfig) (*SQLiteClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &SQLiteClient{DB: db}, nil
}

// NewSQLiteWritable opens the database for writing. Only the seeding tool
// uses this; the service itself stays read-only.
func NewSQLiteWritable(path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	return &SQLiteClient{DB: db}, nil
}

// Ping tests the database connection
func (c *SQLiteClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Query executes a query that returns rows
func (c *SQLiteClient) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row
func (c *SQLiteClient) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.DB.QueryRowContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows
func (c *SQLiteClient) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, query, args...)
}

// GetDB returns the underlying *sql.DB for compatibility
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.DB
}
