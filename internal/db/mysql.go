package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db     *sql.DB
	dbName string
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(ctx context.Context, dsn string) (*MySQLClient, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("DSN does not name a database")
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db, dbName: cfg.DBName}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// NewMySQLHistory creates a history reader over a MySQL database.
func NewMySQLHistory(client *MySQLClient, table string) *SQLHistory {
	return &SQLHistory{
		db:    client.db,
		table: table,
		existsQuery: `
			SELECT COUNT(*)
			FROM information_schema.tables
			WHERE table_schema = ? AND table_name = ?
		`,
		existsArgs:  []any{client.dbName, table},
		selectQuery: "SELECT `MigrationId` FROM " + quoteMySQL(table) + " ORDER BY `MigrationId`",
	}
}

func quoteMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
