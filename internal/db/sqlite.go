package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient creates a new SQLite client over an existing database file.
// The file is opened read-write, never created. Query parameters after "?"
// are passed on to the driver.
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	file, params, _ := strings.Cut(path, "?")
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	dsn := "file:" + file + "?mode=rw"
	if params != "" {
		dsn += "&" + params
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// NewSQLiteHistory creates a history reader over a SQLite database.
func NewSQLiteHistory(client *SQLiteClient, table string) *SQLHistory {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	return &SQLHistory{
		db:          client.db,
		table:       table,
		existsQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		existsArgs:  []any{table},
		selectQuery: `SELECT "MigrationId" FROM ` + quoted + ` ORDER BY "MigrationId"`,
	}
}
