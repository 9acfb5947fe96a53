package imports

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is the machine-readable reason attached to every import failure.
type ErrorCode string

const (
	CodeMissingSubSegment   ErrorCode = "MISSING_SUB_SEGMENT"
	CodeMissingProject      ErrorCode = "MISSING_PROJECT"
	CodeMissingTeam         ErrorCode = "MISSING_TEAM"
	CodeMissingRole         ErrorCode = "MISSING_ROLE"
	CodeMissingReference    ErrorCode = "MISSING_REFERENCE"
	CodeDuplicateEntry      ErrorCode = "DUPLICATE_ENTRY"
	CodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"
	CodeSkillNotResolved    ErrorCode = "SKILL_NOT_RESOLVED"
	CodeSkillNeedsReview    ErrorCode = "SKILL_NEEDS_REVIEW"
	CodeBatchCommitFailed   ErrorCode = "BATCH_COMMIT_FAILED"
	CodeInvalidField        ErrorCode = "INVALID_FIELD"
	CodeEmployeeNotImported ErrorCode = "EMPLOYEE_NOT_IMPORTED"
	CodeEmployeeNotFound    ErrorCode = "EMPLOYEE_NOT_FOUND"
	CodePersistenceFailed   ErrorCode = "PERSISTENCE_FAILED"

	// Fatal: the job cannot continue.
	CodeInputUnreadable  ErrorCode = "INPUT_UNREADABLE"
	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	CodeSchemaMismatch   ErrorCode = "SCHEMA_MISMATCH"
	CodeInternal         ErrorCode = "INTERNAL"
)

// Fatal reports whether a code aborts the whole import.
func (c ErrorCode) Fatal() bool {
	switch c {
	case CodeInputUnreadable, CodeStoreUnavailable, CodeInternal:
		return true
	default:
		return false
	}
}

// ImportError is the typed error raised by validators, persisters and the storage mapper.
type ImportError struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *ImportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *ImportError) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &ImportError{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with code unless it already carries one.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		return err
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var ie *ImportError
	if !errors.As(err, &ie) {
		return false
	}
	return ie.Code == code
}

// CodeOf extracts the code, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var ie *ImportError
	if !errors.As(err, &ie) {
		return ""
	}
	return ie.Code
}

// MessageOf returns the bare message of an ImportError, or err.Error() otherwise.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var ie *ImportError
	if errors.As(err, &ie) && strings.TrimSpace(ie.Message) != "" {
		return ie.Message
	}
	return err.Error()
}
