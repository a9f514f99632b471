package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (client_id, name, project_type, drive_folder_id, created_by, active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, created_at
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		project.ClientID,
		project.Name,
		project.Type,
		project.DriveFolderID,
		project.CreatedBy,
	).Scan(&project.ID, &project.CreatedAt)

	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("project %q: %w", project.Name, domain.ErrConflict)
		}
		if isForeignKey(err) {
			return fmt.Errorf("client %s: %w", project.ClientID, domain.ErrNotFound)
		}
		return fmt.Errorf("create project: %w", err)
	}

	project.Active = true
	return nil
}

// GetByID retrieves an active project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, client_id, name, project_type, drive_folder_id, created_by, active, created_at
		FROM %s
		WHERE id = $1 AND active
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)

	var project models.Project
	err := executor.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.ClientID,
		&project.Name,
		&project.Type,
		&project.DriveFolderID,
		&project.CreatedBy,
		&project.Active,
		&project.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return &project, nil
}

// ListByClient retrieves all active projects for a client
func (r *PostgresProjectRepository) ListByClient(ctx context.Context, clientID string) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, client_id, name, project_type, drive_folder_id, created_by, active, created_at
		FROM %s
		WHERE client_id = $1 AND active
		ORDER BY created_at ASC
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID,
			&project.ClientID,
			&project.Name,
			&project.Type,
			&project.DriveFolderID,
			&project.CreatedBy,
			&project.Active,
			&project.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// Deactivate soft-deletes a project
func (r *PostgresProjectRepository) Deactivate(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET active = FALSE WHERE id = $1 AND active
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
