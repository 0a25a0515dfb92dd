// Package db reads the migration history table of a live store to find out
// which migrations have been applied.
package db

import (
	"context"
	"fmt"
	"strings"
)

// DefaultHistoryTable is the table a migration runner records applied
// migrations in. Its "MigrationId" column holds the migration ids.
const DefaultHistoryTable = "__MigrationHistory"

// History reports the migrations applied to a store.
type History interface {
	// AppliedMigrationIDs returns the applied ids. A store without a history
	// table has no applied migrations.
	AppliedMigrationIDs(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}

// ParseURL detects the store type and returns the driver connection string.
func ParseURL(url string) (dbType, connectionStr string, err error) {
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres", url, nil
	}

	if strings.HasPrefix(url, "mysql://") {
		// The MySQL driver takes a DSN without scheme
		return "mysql", strings.TrimPrefix(url, "mysql://"), nil
	}

	if strings.HasPrefix(url, "sqlite://") {
		return "sqlite", strings.TrimPrefix(url, "sqlite://"), nil
	}

	return "", "", fmt.Errorf("invalid database URL scheme (must start with postgres://, mysql://, or sqlite://)")
}

// OpenHistory connects to the store at url and returns its history. An empty
// table name selects DefaultHistoryTable.
func OpenHistory(ctx context.Context, url, table string) (History, error) {
	if table == "" {
		table = DefaultHistoryTable
	}

	dbType, connStr, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	switch dbType {
	case "postgres":
		client, err := NewPostgresClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return NewPostgresHistory(client, table), nil
	case "mysql":
		client, err := NewMySQLClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		return NewMySQLHistory(client, table), nil
	case "sqlite":
		client, err := NewSQLiteClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
		return NewSQLiteHistory(client, table), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// Multi merges the histories of several stores.
type Multi []History

// AppliedMigrationIDs returns the union of the ids applied to every store.
func (m Multi) AppliedMigrationIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, h := range m {
		applied, err := h.AppliedMigrationIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range applied {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// Close closes every store and returns the first error.
func (m Multi) Close(ctx context.Context) error {
	var first error
	for _, h := range m {
		if err := h.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
