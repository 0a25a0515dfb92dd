package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLHistory reads a history table through database/sql. It serves MySQL
// and SQLite, which differ only in their catalog query and quoting.
type SQLHistory struct {
	db          *sql.DB
	table       string
	existsQuery string
	existsArgs  []any
	selectQuery string
}

// AppliedMigrationIDs implements History.
func (h *SQLHistory) AppliedMigrationIDs(ctx context.Context) ([]string, error) {
	var count int
	if err := h.db.QueryRowContext(ctx, h.existsQuery, h.existsArgs...).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to check history table %s: %w", h.table, err)
	}
	if count == 0 {
		return nil, nil
	}

	rows, err := h.db.QueryContext(ctx, h.selectQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query history table %s: %w", h.table, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to read history table %s: %w", h.table, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close implements History.
func (h *SQLHistory) Close(context.Context) error {
	return h.db.Close()
}
