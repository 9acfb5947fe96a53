package txn

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	types "github.com/yungbote/skillsync/internal/domain"
	"gorm.io/gorm"
)

// MapError classifies a storage failure into an import error code. Errors
// that already carry a code pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if types.CodeOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return types.Wrap(types.CodeDuplicateEntry, op, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrRecordNotFound):
		return types.Wrap(types.CodeMissingReference, op, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return types.Wrap(types.CodeConstraintViolation, op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return types.Wrap(types.CodeStoreUnavailable, op, err)
	case errors.Is(err, context.Canceled):
		return types.Wrap(types.CodeInternal, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case code == "23505":
			return types.Wrap(types.CodeDuplicateEntry, op, err) // unique_violation
		case code == "23503":
			return types.Wrap(types.CodeMissingReference, op, err) // foreign_key_violation
		case code == "23502", code == "23514", strings.HasPrefix(code, "22"):
			return types.Wrap(types.CodeConstraintViolation, op, err) // not_null/check/data_exception
		case code == "42703", code == "42P01":
			return types.Wrap(types.CodeSchemaMismatch, op, err) // undefined_column/undefined_table
		case strings.HasPrefix(code, "08"), code == "57P01", code == "57P03":
			return types.Wrap(types.CodeStoreUnavailable, op, err)
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unique constraint failed"), strings.Contains(msg, "duplicate key"):
		return types.Wrap(types.CodeDuplicateEntry, op, err)
	case strings.Contains(msg, "foreign key constraint"):
		return types.Wrap(types.CodeMissingReference, op, err)
	case strings.Contains(msg, "not null constraint failed"),
		strings.Contains(msg, "check constraint failed"),
		strings.Contains(msg, "violates not-null"),
		strings.Contains(msg, "violates check"):
		return types.Wrap(types.CodeConstraintViolation, op, err)
	case isSchemaMessage(msg):
		return types.Wrap(types.CodeSchemaMismatch, op, err)
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "database is closed"),
		strings.Contains(msg, "bad connection"),
		strings.Contains(msg, "unable to open database"),
		strings.Contains(msg, "no such host"):
		return types.Wrap(types.CodeStoreUnavailable, op, err)
	default:
		return types.Wrap(types.CodePersistenceFailed, op, err)
	}
}

// IsSchemaMismatch reports whether err means the table shape differs from the model.
func IsSchemaMismatch(err error) bool {
	return types.IsCode(MapError("txn.schema", err), types.CodeSchemaMismatch)
}

func isSchemaMessage(msg string) bool {
	return strings.Contains(msg, "has no column named") ||
		strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "column") && strings.Contains(msg, "does not exist"))
}
