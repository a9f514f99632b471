package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isDuplicateKey checks for a unique constraint violation (23505)
func isDuplicateKey(err error) bool {
	return pgErrCode(err) == "23505"
}

// isForeignKey checks for a foreign key violation (23503)
func isForeignKey(err error) bool {
	return pgErrCode(err) == "23503"
}

// isNoRows checks for an empty query result
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
