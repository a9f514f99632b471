package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"auditdrive/internal/domain"
	"auditdrive/internal/domain/models"
	"auditdrive/internal/domain/repositories"
)

// PostgresFolderCacheRepository implements the FolderCacheRepository interface
type PostgresFolderCacheRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderCacheRepository creates a new folder cache repository
func NewFolderCacheRepository(config *RepositoryConfig) repositories.FolderCacheRepository {
	return &PostgresFolderCacheRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Lookup returns the remote id for an active (name, parentRef) row
func (r *PostgresFolderCacheRepository) Lookup(ctx context.Context, name string, parentRef *string) (string, error) {
	query := fmt.Sprintf(`
		SELECT remote_id
		FROM %s
		WHERE name = $1 AND parent_ref IS NOT DISTINCT FROM $2 AND active
	`, r.tables.FolderCache)

	executor := GetExecutor(ctx, r.pool)

	var remoteID string
	err := executor.QueryRow(ctx, query, name, parentRef).Scan(&remoteID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("cached folder %q: %w", name, domain.ErrNotFound)
		}
		return "", fmt.Errorf("lookup cached folder: %w", err)
	}

	return remoteID, nil
}

// Insert records a segment mapping. Idempotent for the same remote id; an
// active row holding a different remote id is a divergence and is surfaced,
// never overwritten.
func (r *PostgresFolderCacheRepository) Insert(ctx context.Context, name string, parentRef *string, remoteID string) (*models.CachedFolder, error) {
	if existing, err := r.getActive(ctx, name, parentRef); err != nil {
		return nil, err
	} else if existing != nil {
		if existing.RemoteID == remoteID {
			return existing, nil
		}
		return nil, &domain.CacheDivergenceError{
			Name:      name,
			ParentRef: parentRef,
			CachedID:  existing.RemoteID,
			RemoteID:  remoteID,
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name, parent_ref, remote_id, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, created_at
	`, r.tables.FolderCache)

	executor := GetExecutor(ctx, r.pool)

	entry := &models.CachedFolder{
		Name:      name,
		ParentRef: parentRef,
		RemoteID:  remoteID,
		Active:    true,
	}
	err := executor.QueryRow(ctx, query, name, parentRef, remoteID).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			// Lost an insert race; re-read and compare against the winner.
			winner, readErr := r.getActive(ctx, name, parentRef)
			if readErr != nil {
				return nil, readErr
			}
			if winner != nil && winner.RemoteID == remoteID {
				return winner, nil
			}
			cachedID := ""
			if winner != nil {
				cachedID = winner.RemoteID
			}
			return nil, &domain.CacheDivergenceError{
				Name:      name,
				ParentRef: parentRef,
				CachedID:  cachedID,
				RemoteID:  remoteID,
			}
		}
		return nil, fmt.Errorf("insert cached folder: %w", err)
	}

	return entry, nil
}

// Deactivate soft-deletes a cache row
func (r *PostgresFolderCacheRepository) Deactivate(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET active = FALSE WHERE id = $1 AND active
	`, r.tables.FolderCache)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate cached folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("cached folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresFolderCacheRepository) getActive(ctx context.Context, name string, parentRef *string) (*models.CachedFolder, error) {
	query := fmt.Sprintf(`
		SELECT id, name, parent_ref, remote_id, active, created_at
		FROM %s
		WHERE name = $1 AND parent_ref IS NOT DISTINCT FROM $2 AND active
	`, r.tables.FolderCache)

	executor := GetExecutor(ctx, r.pool)

	var entry models.CachedFolder
	err := executor.QueryRow(ctx, query, name, parentRef).Scan(
		&entry.ID,
		&entry.Name,
		&entry.ParentRef,
		&entry.RemoteID,
		&entry.Active,
		&entry.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached folder: %w", err)
	}

	return &entry, nil
}
