package txn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"gorm.io/gorm"
)

func countSubSegments(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&types.SubSegment{}).Count(&n).Error)
	return n
}

func TestGormRunnerCommitsOnSuccess(t *testing.T) {
	db := testutil.DB(t)
	r := NewGormRunner(db)

	err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		require.NotNil(t, dbc.Tx)
		return dbc.Tx.Create(&types.SubSegment{Name: "Engineering"}).Error
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, countSubSegments(t, db))
}

func TestGormRunnerRollsBackOnError(t *testing.T) {
	db := testutil.DB(t)
	r := NewGormRunner(db)
	bodyErr := errors.New("boom")

	err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		if err := dbc.Tx.Create(&types.SubSegment{Name: "Engineering"}).Error; err != nil {
			return err
		}
		return bodyErr
	})
	require.ErrorIs(t, err, bodyErr)
	require.EqualValues(t, 0, countSubSegments(t, db))
}

func TestGormRunnerRollsBackOnPanic(t *testing.T) {
	db := testutil.DB(t)
	r := NewGormRunner(db)

	require.PanicsWithValue(t, "kaboom", func() {
		_ = r.InTx(context.Background(), func(dbc dbctx.Context) error {
			if err := dbc.Tx.Create(&types.SubSegment{Name: "Engineering"}).Error; err != nil {
				return err
			}
			panic("kaboom")
		})
	})
	require.EqualValues(t, 0, countSubSegments(t, db))
}

func TestGormRunnerNilDB(t *testing.T) {
	err := NewGormRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	require.True(t, types.IsCode(err, types.CodeInternal))
}

func TestInSavepointIsolatesInnerFailure(t *testing.T) {
	db := testutil.DB(t)
	r := NewGormRunner(db)
	innerErr := errors.New("inner failed")

	var gotInner error
	err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		if err := dbc.Tx.Create(&types.SubSegment{Name: "Kept"}).Error; err != nil {
			return err
		}
		gotInner = InSavepoint(dbc, db, func(sp dbctx.Context) error {
			if err := sp.Tx.Create(&types.SubSegment{Name: "Discarded"}).Error; err != nil {
				return err
			}
			return innerErr
		})
		return dbc.Tx.Create(&types.SubSegment{Name: "AlsoKept"}).Error
	})
	require.NoError(t, err)
	require.ErrorIs(t, gotInner, innerErr)

	var names []string
	require.NoError(t, db.Model(&types.SubSegment{}).Order("name").Pluck("name", &names).Error)
	require.Equal(t, []string{"AlsoKept", "Kept"}, names)
}

func TestInSavepointWithoutTxUsesFallback(t *testing.T) {
	db := testutil.DB(t)
	err := InSavepoint(dbctx.Context{Ctx: context.Background()}, db, func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&types.SubSegment{Name: "Solo"}).Error
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, countSubSegments(t, db))

	err = InSavepoint(dbctx.Context{}, nil, func(dbctx.Context) error { return nil })
	require.True(t, types.IsCode(err, types.CodeInternal))
}

func TestExecuteReportsHooks(t *testing.T) {
	db := testutil.DB(t)
	r := NewGormRunner(db)
	hooks := &recordingHooks{}

	require.NoError(t, Execute(context.Background(), r, hooks, "employee.upsert", func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&types.Employee{BusinessKey: "E1", Name: "A"}).Error
	}))
	err := Execute(context.Background(), r, hooks, "employee.upsert", func(dbc dbctx.Context) error {
		return dbc.Tx.Create(&types.Employee{BusinessKey: "E1", Name: "B"}).Error
	})
	require.True(t, types.IsCode(err, types.CodeDuplicateEntry), "got %v", err)
	require.Equal(t, []string{"success", string(types.CodeDuplicateEntry)}, hooks.statuses)
	require.Equal(t, 1, hooks.conflicts)
}

type recordingHooks struct {
	statuses  []string
	conflicts int
}

func (h *recordingHooks) ObserveOperation(_ string, status string, _ time.Duration) {
	h.statuses = append(h.statuses, status)
}

func (h *recordingHooks) IncConflict(string) { h.conflicts++ }
