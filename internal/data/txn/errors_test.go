package txn

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	types "github.com/yungbote/skillsync/internal/domain"
	"gorm.io/gorm"
)

func TestMapErrorPostgresCodes(t *testing.T) {
	cases := map[string]types.ErrorCode{
		"23505": types.CodeDuplicateEntry,
		"23503": types.CodeMissingReference,
		"23502": types.CodeConstraintViolation,
		"23514": types.CodeConstraintViolation,
		"22001": types.CodeConstraintViolation,
		"42703": types.CodeSchemaMismatch,
		"42P01": types.CodeSchemaMismatch,
		"08006": types.CodeStoreUnavailable,
		"XX000": types.CodePersistenceFailed,
	}
	for code, want := range cases {
		err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: code, Message: "pg failure"})
		got := MapError("op", err)
		require.Equal(t, want, types.CodeOf(got), "sqlstate %s", code)
		require.ErrorIs(t, got, err)
	}
}

func TestMapErrorSQLiteMessages(t *testing.T) {
	cases := map[string]types.ErrorCode{
		"UNIQUE constraint failed: employee.business_key":         types.CodeDuplicateEntry,
		"FOREIGN KEY constraint failed":                           types.CodeMissingReference,
		"NOT NULL constraint failed: employee.name":               types.CodeConstraintViolation,
		"table unresolved_skill_input has no column named method": types.CodeSchemaMismatch,
		"no such table: role":                                     types.CodeSchemaMismatch,
		"sql: database is closed":                                 types.CodeStoreUnavailable,
		"something odd":                                           types.CodePersistenceFailed,
	}
	for msg, want := range cases {
		require.Equal(t, want, types.CodeOf(MapError("op", errors.New(msg))), msg)
	}
}

func TestMapErrorSentinels(t *testing.T) {
	require.Nil(t, MapError("op", nil))
	require.Equal(t, types.CodeDuplicateEntry, types.CodeOf(MapError("op", gorm.ErrDuplicatedKey)))
	require.Equal(t, types.CodeMissingReference, types.CodeOf(MapError("op", gorm.ErrForeignKeyViolated)))
	require.Equal(t, types.CodeStoreUnavailable, types.CodeOf(MapError("op", context.DeadlineExceeded)))

	coded := types.NewError(types.CodeMissingTeam, "validate", "team missing", nil)
	require.Same(t, coded, MapError("op", coded))
}

func TestIsSchemaMismatch(t *testing.T) {
	require.True(t, IsSchemaMismatch(errors.New("table x has no column named confidence")))
	require.True(t, IsSchemaMismatch(&pgconn.PgError{Code: "42703"}))
	require.False(t, IsSchemaMismatch(errors.New("UNIQUE constraint failed")))
}
