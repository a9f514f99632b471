package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"auditdrive/internal/domain/repositories"
)

// RepositoryConfig holds shared dependencies for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds environment-prefixed table names
type TableNames struct {
	Clients     string
	Projects    string
	FolderCache string
	Grants      string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Clients:     fmt.Sprintf("%sclients", prefix),
		Projects:    fmt.Sprintf("%sprojects", prefix),
		FolderCache: fmt.Sprintf("%sfolder_cache", prefix),
		Grants:      fmt.Sprintf("%saccess_grants", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool and verifies it with a
// ping. Table names are interpolated into SQL before it reaches the driver,
// so per-environment prefixes are safe alongside prepared statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction from the context if one is present,
// otherwise the pool. Repositories call this so they automatically
// participate in an ambient transaction.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
