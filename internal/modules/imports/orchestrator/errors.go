package orchestrator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/skillsync/internal/domain"
)

const maxMessageLen = 300

// ImportFailedError is returned when a run stops on a fatal error. The job
// row carries the same sanitized message.
type ImportFailedError struct {
	JobID   uuid.UUID
	Phase   string
	Code    types.ErrorCode
	Message string
	Hint    string
	Cause   error
}

func (e *ImportFailedError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("import %s failed during %s: %s (%s)", e.JobID, e.Phase, e.Message, e.Code)
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

func (e *ImportFailedError) Unwrap() error { return e.Cause }

// AsImportFailed unwraps err into an ImportFailedError.
func AsImportFailed(err error) (*ImportFailedError, bool) {
	var ife *ImportFailedError
	if errors.As(err, &ife) {
		return ife, true
	}
	return nil, false
}

func newFailure(jobID uuid.UUID, phase string, err error) *ImportFailedError {
	code := types.CodeOf(err)
	if code == "" {
		code = types.CodeInternal
	}
	return &ImportFailedError{
		JobID:   jobID,
		Phase:   phase,
		Code:    code,
		Message: sanitizeMessage(types.MessageOf(err)),
		Hint:    hintFor(code),
		Cause:   err,
	}
}

var hints = map[types.ErrorCode]string{
	types.CodeInputUnreadable:  "check that the file is an .xlsx workbook with Employees and Skills sheets and the expected headers",
	types.CodeStoreUnavailable: "check the database connection settings and that the database is reachable",
	types.CodeSchemaMismatch:   "the database schema is out of date; run `skillsync migrate`",
	types.CodeInternal:         "rerun the import; if it fails again, report the job id",
}

func hintFor(code types.ErrorCode) string {
	return hints[code]
}

// sqlIdent is a plain, quoted or schema-qualified table name.
const sqlIdent = "[\"`]?[\\w.]+[\"`]?"

var (
	dsnCredentials = regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^\s/@]+@`)
	dsnPassword    = regexp.MustCompile(`(?i)\bpassword=\S+`)
	// Only statement shapes count as SQL, so prose like "could not update job" survives.
	sqlStatement = regexp.MustCompile("(?is)\\b(?:" +
		"select\\s+(?:\\*|\"|\\w+\\(|[\\w.\"]+\\s*,)" +
		"|insert\\s+into\\s+" + sqlIdent + "\\s*(?:\\(|values\\b)" +
		"|update\\s+" + sqlIdent + "\\s+set\\s" +
		"|delete\\s+from\\s+" + sqlIdent +
		").*")
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// sanitizeMessage makes an error message safe for the job row: credentials
// in DSNs are masked, SQL text is dropped, and the result is one line of at
// most maxMessageLen runes.
func sanitizeMessage(msg string) string {
	msg = dsnCredentials.ReplaceAllString(msg, "${1}***@")
	msg = dsnPassword.ReplaceAllString(msg, "password=***")
	msg = sqlStatement.ReplaceAllString(msg, "[sql omitted]")
	msg = strings.TrimSpace(whitespaceRun.ReplaceAllString(msg, " "))
	if r := []rune(msg); len(r) > maxMessageLen {
		msg = string(r[:maxMessageLen-3]) + "..."
	}
	if msg == "" {
		msg = "unknown error"
	}
	return msg
}
