package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yungbote/skillsync/internal/app"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/modules/imports/orchestrator"
)

const (
	exitOK                  = 0
	exitFailure             = 1
	exitCompletedWithErrors = 2
	exitUsage               = 3
	exitStore               = 4
	exitImportFailed        = 5
)

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitError carries an exit code without a message of its own.
type exitError struct{ code int }

func (e exitError) Error() string { return "" }

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var ue usageError
	if errors.As(err, &ue) || errors.Is(err, app.ErrInvalidConfig) || errors.Is(err, app.ErrNoEmbedder) {
		return exitUsage
	}
	var bootErr *app.VectorProviderBootstrapError
	if errors.As(err, &bootErr) {
		return exitUsage
	}
	if _, ok := orchestrator.AsImportFailed(err); ok {
		return exitImportFailed
	}
	if types.IsCode(err, types.CodeStoreUnavailable) || types.IsCode(err, types.CodeSchemaMismatch) {
		return exitStore
	}
	return exitFailure
}
