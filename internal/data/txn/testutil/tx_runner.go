package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/skillsync/internal/data/txn"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"gorm.io/gorm"
)

// InjectedTxRunner is a test helper for failure injection around the
// transaction boundary. With DB set the body runs inside a real transaction,
// so FailCommit rolls back work the body already did.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin      error
	FailBeforeBody error
	FailCommit     error
	// FailCommitOn, when set, decides per call whether FailCommit applies.
	FailCommitOn func(call int) bool

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ txn.Runner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	call := r.BeginCalls
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	if failCommit != nil && r.FailCommitOn != nil && !r.FailCommitOn(call) {
		failCommit = nil
	}
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.rolledBack()
		return failBeforeBody
	}
	if fn == nil {
		r.committed()
		return nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	var tx *gorm.DB
	if r.DB != nil {
		tx = r.DB.WithContext(ctx).Begin()
		if tx.Error != nil {
			return tx.Error
		}
		dbc.Tx = tx
	}

	var bodyErr error
	func() {
		defer func() {
			if p := recover(); p != nil {
				if tx != nil {
					tx.Rollback()
				}
				r.rolledBack()
				panic(p)
			}
		}()
		bodyErr = fn(dbc)
	}()

	if bodyErr != nil {
		if tx != nil {
			tx.Rollback()
		}
		r.rolledBack()
		return bodyErr
	}
	if failCommit != nil {
		if tx != nil {
			tx.Rollback()
		}
		r.rolledBack()
		return failCommit
	}
	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			r.rolledBack()
			return err
		}
	}
	r.committed()
	return nil
}

func (r *InjectedTxRunner) committed() {
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
}

func (r *InjectedTxRunner) rolledBack() {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
}
