package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// PostgresClient manages the connection to PostgreSQL
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// PostgresHistory reads the history table of a PostgreSQL database.
type PostgresHistory struct {
	client *PostgresClient
	schema string
	table  string
}

// NewPostgresHistory creates a history reader. The table may be qualified as
// "schema.table"; it defaults to the public schema.
func NewPostgresHistory(client *PostgresClient, table string) *PostgresHistory {
	schema := "public"
	if i := strings.IndexByte(table, '.'); i >= 0 {
		schema, table = table[:i], table[i+1:]
	}
	return &PostgresHistory{client: client, schema: schema, table: table}
}

// AppliedMigrationIDs implements History.
func (h *PostgresHistory) AppliedMigrationIDs(ctx context.Context) ([]string, error) {
	var exists bool
	err := h.client.conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`, h.schema, h.table).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check history table: %w", err)
	}
	if !exists {
		return nil, nil
	}

	query := `SELECT "MigrationId" FROM ` + pgx.Identifier{h.schema, h.table}.Sanitize() + ` ORDER BY "MigrationId"`
	rows, err := h.client.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query history table: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read history table: %w", err)
	}
	return ids, nil
}

// Close implements History.
func (h *PostgresHistory) Close(ctx context.Context) error {
	return h.client.Close(ctx)
}
