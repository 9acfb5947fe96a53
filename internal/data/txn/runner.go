package txn

import (
	"context"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"gorm.io/gorm"
)

// Runner is the scoped transaction boundary: the body's writes commit when it
// returns nil and roll back when it returns an error or panics.
type Runner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormRunner struct {
	db *gorm.DB
}

func NewGormRunner(db *gorm.DB) Runner {
	return &gormRunner{db: db}
}

func (r *gormRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return types.NewError(types.CodeInternal, "txn.InTx", "transaction runner has nil db", nil)
	}
	// gorm rolls back and re-panics when fn panics.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// InSavepoint runs fn in a nested sub-transaction of dbc.Tx so a failure
// discards only fn's writes. Without an enclosing transaction it opens one on
// fallback.
func InSavepoint(dbc dbctx.Context, fallback *gorm.DB, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	ctx := dbc.Context()
	base := dbc.Tx
	if base == nil {
		if fallback == nil {
			return types.NewError(types.CodeInternal, "txn.InSavepoint", "no transaction and no fallback db", nil)
		}
		base = fallback
	}
	return base.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
