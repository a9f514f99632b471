package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
)

// PostgresGrantRepository implements the GrantRepository interface
type PostgresGrantRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(config *RepositoryConfig) repositories.GrantRepository {
	return &PostgresGrantRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Add creates a new grant row
func (r *PostgresGrantRepository) Add(ctx context.Context, grant *models.AccessGrant) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, project_id, has_access, assigned_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING assigned_at
	`, r.tables.Grants)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		grant.ID,
		grant.UserID,
		grant.ProjectID,
		grant.HasAccess,
		grant.AssignedAt,
		grant.ExpiresAt,
	).Scan(&grant.AssignedAt)

	if err != nil {
		if isForeignKey(err) {
			return fmt.Errorf("project %s: %w", grant.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("add grant: %w", err)
	}

	return nil
}

// GetByID retrieves a grant row by ID
func (r *PostgresGrantRepository) GetByID(ctx context.Context, id string) (*models.AccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, project_id, has_access, assigned_at, expires_at
		FROM %s
		WHERE id = $1
	`, r.tables.Grants)

	executor := GetExecutor(ctx, r.pool)

	var grant models.AccessGrant
	err := executor.QueryRow(ctx, query, id).Scan(
		&grant.ID,
		&grant.UserID,
		&grant.ProjectID,
		&grant.HasAccess,
		&grant.AssignedAt,
		&grant.ExpiresAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("grant %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get grant: %w", err)
	}

	return &grant, nil
}

// Update mutates has_access and expires_at in place
func (r *PostgresGrantRepository) Update(ctx context.Context, grant *models.AccessGrant) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET has_access = $1, expires_at = $2
		WHERE id = $3
	`, r.tables.Grants)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, grant.HasAccess, grant.ExpiresAt, grant.ID)
	if err != nil {
		return fmt.Errorf("update grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("grant %s: %w", grant.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a grant row
func (r *PostgresGrantRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE id = $1
	`, r.tables.Grants)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("grant %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByProject returns all grant rows for a project, newest first
func (r *PostgresGrantRepository) ListByProject(ctx context.Context, projectID string) ([]models.AccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, project_id, has_access, assigned_at, expires_at
		FROM %s
		WHERE project_id = $1
		ORDER BY assigned_at DESC
	`, r.tables.Grants)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list grants by project: %w", err)
	}

	return scanGrants(rows)
}

// ListByUser returns all grant rows for a user, newest first
func (r *PostgresGrantRepository) ListByUser(ctx context.Context, userID string) ([]models.AccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, project_id, has_access, assigned_at, expires_at
		FROM %s
		WHERE user_id = $1
		ORDER BY assigned_at DESC
	`, r.tables.Grants)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants by user: %w", err)
	}

	return scanGrants(rows)
}

// CurrentForUser resolves most-recent-wins per project in SQL, so concurrent
// writers are ordered by the assignment timestamp the database recorded.
func (r *PostgresGrantRepository) CurrentForUser(ctx context.Context, userID string) (map[string]models.AccessGrant, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT ON (project_id)
			id, user_id, project_id, has_access, assigned_at, expires_at
		FROM %s
		WHERE user_id = $1
		ORDER BY project_id, assigned_at DESC
	`, r.tables.Grants)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("current grants for user: %w", err)
	}

	grants, err := scanGrants(rows)
	if err != nil {
		return nil, err
	}

	current := make(map[string]models.AccessGrant, len(grants))
	for _, g := range grants {
		current[g.ProjectID] = g
	}

	return current, nil
}

func scanGrants(rows pgx.Rows) ([]models.AccessGrant, error) {
	defer rows.Close()

	var grants []models.AccessGrant
	for rows.Next() {
		var grant models.AccessGrant
		err := rows.Scan(
			&grant.ID,
			&grant.UserID,
			&grant.ProjectID,
			&grant.HasAccess,
			&grant.AssignedAt,
			&grant.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}

	return grants, nil
}
