package orchestrator

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/skillsync/internal/domain"
)

var errCommit = errors.New("commit refused by test")

func TestSanitizeMessage(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"dsn credentials", "dial postgres://skillsync:hunter2@db:5432/app failed", "dial postgres://***@db:5432/app failed"},
		{"keyword password", "connect host=db password=hunter2 user=app", "connect host=db password=*** user=app"},
		{"sql text", "ERROR: relation missing\nINSERT INTO employee (id) VALUES ($1)", "ERROR: relation missing [sql omitted]"},
		{"gorm select", `ERROR: column "email" does not exist SELECT * FROM "employee" WHERE business_key = $1`, `ERROR: column "email" does not exist [sql omitted]`},
		{"gorm update", `timeout: UPDATE "import_job" SET "progress"=$1 WHERE id = $2`, "timeout: [sql omitted]"},
		{"delete", "ERROR: locked DELETE FROM skill_alias WHERE id = 1", "ERROR: locked [sql omitted]"},
		{"prose update", "could not update job row: connection refused", "could not update job row: connection refused"},
		{"prose select", "open /data/select employees.xlsx: no such file or directory", "open /data/select employees.xlsx: no such file or directory"},
		{"prose select from", "could not select employee from pool", "could not select employee from pool"},
		{"newlines", "line one\n\tline two", "line one line two"},
		{"empty", "   ", "unknown error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, sanitizeMessage(tc.in))
		})
	}

	long := sanitizeMessage(strings.Repeat("x", 1000))
	require.Len(t, []rune(long), maxMessageLen)
	require.True(t, strings.HasSuffix(long, "..."))
}

func TestImportFailedError(t *testing.T) {
	cause := types.NewError(types.CodeSchemaMismatch, "employee.upsert", "table employee has no column named email", nil)
	id := uuid.New()
	err := error(newFailure(id, types.PhaseImportingEmployees, cause))

	ife, ok := AsImportFailed(err)
	require.True(t, ok)
	require.Equal(t, types.CodeSchemaMismatch, ife.Code)
	require.Equal(t, hintFor(types.CodeSchemaMismatch), ife.Hint)
	require.Contains(t, err.Error(), id.String())
	require.Contains(t, err.Error(), "importing_employees")
	require.True(t, errors.Is(err, cause))

	plain := newFailure(id, types.PhaseFinalizing, errors.New("boom"))
	require.Equal(t, types.CodeInternal, plain.Code)
	require.Empty(t, hintFor(types.CodeSkillNotResolved))
}
