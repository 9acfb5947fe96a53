package persist

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	"github.com/yungbote/skillsync/internal/data/txn"
	txntest "github.com/yungbote/skillsync/internal/data/txn/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/ingestion/workbook"
)

func (h *harness) importEmployees(t *testing.T, keys ...string) EmployeeOutcome {
	t.Helper()
	rows := make([]workbook.EmployeeRow, 0, len(keys))
	for i, k := range keys {
		rows = append(rows, h.employeeRow(i+2, k))
	}
	out := h.employeePersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, rows, Options{})
	require.NoError(t, out.Err)
	require.Zero(t, out.Failed)
	return out
}

func TestSkillPersistResolvesAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	emps := h.importEmployees(t, "E001")
	jobID := uuid.New()
	opts := Options{JobID: &jobID, Source: "workbook.xlsx", Actor: "tester"}

	level := 4
	python := skillRow(2, "E001", "python")
	python.ProficiencyLabel = "Expert"
	python.ProficiencyLevel = &level
	rows := []workbook.SkillRow{
		python,
		skillRow(2, "E001", "Postgre"),
		skillRow(2, "E001", "Unknownium"),
	}

	out := h.skillPersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, rows, emps, opts)
	require.NoError(t, out.Err)
	require.Equal(t, 2, out.Imported)
	require.Equal(t, 2, out.Created)
	require.Equal(t, 1, out.Failed)
	require.Equal(t, 1, out.Batches)
	require.Equal(t, []types.ErrorCode{types.CodeSkillNotResolved}, codes(out.Failures))
	require.Equal(t, types.ResolutionStats{Exact: 1, Alias: 1, Unresolved: 1}, out.Resolution)

	empID := emps.Imported["E001"].ID
	occ, err := h.occurrences.Get(h.dbc, empID, h.python.ID)
	require.NoError(t, err)
	require.NotNil(t, occ)
	require.Equal(t, types.MethodExact, occ.ResolutionMethod)
	require.Equal(t, "Expert", occ.ProficiencyLabel)
	require.Equal(t, &jobID, occ.ImportJobID)

	occ, err = h.occurrences.Get(h.dbc, empID, h.postgres.ID)
	require.NoError(t, err)
	require.NotNil(t, occ)
	require.Equal(t, types.MethodAlias, occ.ResolutionMethod)
	require.Equal(t, 1.0, occ.ResolutionConfidence)

	hist, err := h.historyRepo.ListByEmployee(h.dbc, empID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, hist[0].BatchID, hist[1].BatchID)
	require.Equal(t, "import", hist[0].Reason)
	require.Equal(t, "tester", hist[0].Actor)

	pending, err := h.unresolved.ListByJob(h.dbc, jobID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "Unknownium", pending[0].RawText)
	require.Equal(t, "unknownium", pending[0].NormalizedText)

	// Same rows again: nothing changes, so no new history.
	out = h.skillPersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, rows, emps, opts)
	require.NoError(t, out.Err)
	require.Equal(t, 2, out.Imported)
	require.Zero(t, out.Created)
	require.Zero(t, out.Updated)
	require.Equal(t, 2, out.Unchanged)

	hist, err = h.historyRepo.ListByEmployee(h.dbc, empID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	n, err := h.occurrences.Count(h.dbc)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestSkillPersistBlankCellsKeepStoredValues(t *testing.T) {
	h := newHarness(t)
	emps := h.importEmployees(t, "E001")
	empID := emps.Imported["E001"].ID

	first := skillRow(2, "E001", "Python")
	first.ProficiencyLabel = "Expert"
	first.Certification = "PCAP"
	out := h.skillPersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, []workbook.SkillRow{first}, emps, Options{})
	require.Equal(t, 1, out.Created)

	second := skillRow(2, "E001", "Python")
	second.Interest = "High"
	out = h.skillPersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, []workbook.SkillRow{second}, emps, Options{})
	require.NoError(t, out.Err)
	require.Equal(t, 1, out.Updated)

	occ, err := h.occurrences.Get(h.dbc, empID, h.python.ID)
	require.NoError(t, err)
	require.Equal(t, "Expert", occ.ProficiencyLabel)
	require.Equal(t, "PCAP", occ.Certification)
	require.Equal(t, "High", occ.InterestLevel)

	hist, err := h.historyRepo.ListByEmployee(h.dbc, empID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
}

func TestSkillPersistEmployeeNotImported(t *testing.T) {
	h := newHarness(t)
	emps := EmployeeOutcome{
		Imported:   map[string]EmployeeRef{},
		FailedKeys: map[string]struct{}{"E002": {}},
	}
	rows := []workbook.SkillRow{skillRow(2, "E002", "Python"), skillRow(2, "E002", "Postgre")}

	out := h.skillPersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, rows, emps, Options{})
	require.NoError(t, out.Err)
	require.Equal(t, 2, out.Failed)
	require.Equal(t, []types.ErrorCode{types.CodeEmployeeNotImported, types.CodeEmployeeNotImported}, codes(out.Failures))
	require.Zero(t, out.Batches)
}

func TestSkillPersistLooksUpEmployeesOutsideTheSheet(t *testing.T) {
	h := newHarness(t)
	stored := testutil.SeedEmployee(t, h.dbc.Ctx, h.db, "Z001", h.org.Team.ID)
	emps := EmployeeOutcome{Imported: map[string]EmployeeRef{}, FailedKeys: map[string]struct{}{}}
	jobID := uuid.New()

	rows := []workbook.SkillRow{skillRow(2, "Z001", "Postgre"), skillRow(3, "X404", "Python")}
	out := h.skillPersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, rows, emps, Options{JobID: &jobID})
	require.NoError(t, out.Err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, []types.ErrorCode{types.CodeEmployeeNotFound}, codes(out.Failures))

	occ, err := h.occurrences.Get(h.dbc, stored.ID, h.postgres.ID)
	require.NoError(t, err)
	require.NotNil(t, occ)
	require.Equal(t, "Postgre", occ.SourceText)
}

func TestSkillPersistRecordsOrgUnitForUnresolved(t *testing.T) {
	h := newHarness(t)
	emps := h.importEmployees(t, "E001")
	jobID := uuid.New()

	out := h.skillPersister(t, txn.NewGormRunner(h.db)).Persist(h.dbc.Ctx, []workbook.SkillRow{skillRow(2, "E001", "Quantum Basket Weaving")}, emps, Options{JobID: &jobID})
	require.Equal(t, 1, out.Failed)

	pending, err := h.unresolved.ListByJob(h.dbc, jobID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].OrgUnitID)
	require.Equal(t, h.org.SubSegment.ID, *pending[0].OrgUnitID)
	require.NotNil(t, pending[0].EmployeeID)
	require.Equal(t, emps.Imported["E001"].ID, *pending[0].EmployeeID)
}

func TestSkillPersistBatchCommitFailureRollsBackEmployee(t *testing.T) {
	h := newHarness(t)
	emps := h.importEmployees(t, "E001", "E002")
	jobID := uuid.New()

	// Only the first employee's batch fails to commit.
	runner := &txntest.InjectedTxRunner{
		DB:           h.db,
		FailCommit:   errors.New("commit refused"),
		FailCommitOn: func(call int) bool { return call == 1 },
	}
	rows := []workbook.SkillRow{
		skillRow(2, "E001", "Unknownium"),
		skillRow(2, "E001", "Python"),
		skillRow(3, "E002", "Python"),
	}
	out := h.skillPersister(t, runner).Persist(h.dbc.Ctx, rows, emps, Options{JobID: &jobID})
	require.NoError(t, out.Err)
	require.Equal(t, 2, out.Batches)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, 2, out.Failed)
	require.Equal(t, []types.ErrorCode{types.CodeBatchCommitFailed, types.CodeBatchCommitFailed}, codes(out.Failures))
	require.Contains(t, out.Failures[0].Message, string(types.CodeSkillNotResolved))
	require.Equal(t, 1, runner.RollbackCalls)
	require.Equal(t, 1, runner.CommitCalls)
	batches := h.hooks.Statuses("skills.batch")
	require.Len(t, batches, 2)
	require.NotEqual(t, "success", batches[0])
	require.Equal(t, "success", batches[1])
	require.Zero(t, h.hooks.Conflicts("skills.batch"))

	occ, err := h.occurrences.Get(h.dbc, emps.Imported["E001"].ID, h.python.ID)
	require.NoError(t, err)
	require.Nil(t, occ)
	hist, err := h.historyRepo.ListByEmployee(h.dbc, emps.Imported["E001"].ID)
	require.NoError(t, err)
	require.Empty(t, hist)

	// The unresolved insert rode the rolled back transaction.
	pending, err := h.unresolved.ListByJob(h.dbc, jobID)
	require.NoError(t, err)
	require.Empty(t, pending)

	occ, err = h.occurrences.Get(h.dbc, emps.Imported["E002"].ID, h.python.ID)
	require.NoError(t, err)
	require.NotNil(t, occ)
}
