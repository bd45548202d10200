package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// siblingNameIndexSuffix ends the names of the per-parent name indexes
// ({prefix}folders_child_name_idx, {prefix}files_root_name_idx, ...).
const siblingNameIndexSuffix = "_name_idx"

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsPgSiblingNameConflict reports a unique violation on one of the sibling-name indexes.
// Other unique violations (share tokens) are not name conflicts.
func IsPgSiblingNameConflict(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgUniqueViolation && strings.HasSuffix(pgErr.ConstraintName, siblingNameIndexSuffix)
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgForeignKeyViolation
}
