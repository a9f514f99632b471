package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
)

// PostgresClientRepository implements the ClientRepository interface
type PostgresClientRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewClientRepository creates a new client repository
func NewClientRepository(config *RepositoryConfig) repositories.ClientRepository {
	return &PostgresClientRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new client
func (r *PostgresClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, company_type, created_by, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, created_at
	`, r.tables.Clients)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		client.Name,
		client.CompanyType,
		client.CreatedBy,
	).Scan(&client.ID, &client.CreatedAt)

	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("client %q: %w", client.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create client: %w", err)
	}

	client.Active = true
	return nil
}

// GetByID retrieves an active client by ID
func (r *PostgresClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	query := fmt.Sprintf(`
		SELECT id, name, company_type, created_by, active, created_at
		FROM %s
		WHERE id = $1 AND active
	`, r.tables.Clients)

	executor := GetExecutor(ctx, r.pool)

	var client models.Client
	err := executor.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&client.CompanyType,
		&client.CreatedBy,
		&client.Active,
		&client.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	return &client, nil
}

// List retrieves all active clients
func (r *PostgresClientRepository) List(ctx context.Context) ([]models.Client, error) {
	query := fmt.Sprintf(`
		SELECT id, name, company_type, created_by, active, created_at
		FROM %s
		WHERE active
		ORDER BY name ASC
	`, r.tables.Clients)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		var client models.Client
		err := rows.Scan(
			&client.ID,
			&client.Name,
			&client.CompanyType,
			&client.CreatedBy,
			&client.Active,
			&client.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// Deactivate soft-deletes a client
func (r *PostgresClientRepository) Deactivate(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET active = FALSE WHERE id = $1 AND active
	`, r.tables.Clients)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("client %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
