package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassifiers(t *testing.T) {
	wrap := func(err error) error { return fmt.Errorf("create folder: %w", err) }

	tests := []struct {
		name        string
		err         error
		siblingName bool
		foreignKey  bool
		noRows      bool
	}{
		{"child name index", wrap(&pgconn.PgError{Code: "23505", ConstraintName: "dev_folders_child_name_idx"}), true, false, false},
		{"root name index", &pgconn.PgError{Code: "23505", ConstraintName: "files_root_name_idx"}, true, false, false},
		{"share token", wrap(&pgconn.PgError{Code: "23505", ConstraintName: "dev_folders_share_token_key"}), false, false, false},
		{"foreign key", wrap(&pgconn.PgError{Code: "23503", ConstraintName: "dev_files_folder_id_fkey"}), false, true, false},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "dev_owners_storage_used_check"}, false, false, false},
		{"no rows", wrap(pgx.ErrNoRows), false, false, true},
		{"plain error", errors.New("connection reset"), false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.siblingName, IsPgSiblingNameConflict(tt.err))
			assert.Equal(t, tt.foreignKey, IsPgForeignKeyError(tt.err))
			assert.Equal(t, tt.noRows, IsPgNoRowsError(tt.err))
		})
	}
}
