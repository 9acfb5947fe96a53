package orchestrator

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	jobsrepo "github.com/yungbote/skillsync/internal/data/repos/jobs"
	orgrepo "github.com/yungbote/skillsync/internal/data/repos/org"
	peoplerepo "github.com/yungbote/skillsync/internal/data/repos/people"
	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/ingestion/workbook"
	jobrt "github.com/yungbote/skillsync/internal/jobs/runtime"
	"github.com/yungbote/skillsync/internal/modules/imports/resolver"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
)

var (
	employeeHeader = []interface{}{"Employee ID", "Name", "Sub Segment", "Project", "Team", "Role", "Start Date", "Email"}
	skillHeader    = []interface{}{"Employee ID", "Skill", "Proficiency", "Years Experience", "Last Used", "Certification", "Interest"}
)

func writeWorkbook(t *testing.T, employees, skills [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", types.SheetEmployees))
	_, err := f.NewSheet(types.SheetSkills)
	require.NoError(t, err)
	write := func(sheet string, rows [][]interface{}) {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}
	write(types.SheetEmployees, append([][]interface{}{employeeHeader}, employees...))
	write(types.SheetSkills, append([][]interface{}{skillHeader}, skills...))
	path := filepath.Join(t.TempDir(), "people.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

type progressLog struct {
	mu     sync.Mutex
	events []types.ImportJob
}

func (p *progressLog) add(job *types.ImportJob) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *job)
}

func (p *progressLog) JobProgress(_ context.Context, job *types.ImportJob) { p.add(job) }
func (p *progressLog) JobDone(_ context.Context, job *types.ImportJob)     { p.add(job) }
func (p *progressLog) JobFailed(_ context.Context, job *types.ImportJob)   { p.add(job) }

type env struct {
	db       *gorm.DB
	ctx      context.Context
	org      testutil.Org
	python   *types.CanonicalSkill
	postgres *types.CanonicalSkill
	jobs     jobsrepo.ImportJobRepo
	progress *progressLog
	deps     Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	ctx := context.Background()
	logg := testutil.Logger(t)

	e := &env{
		db:       db,
		ctx:      ctx,
		org:      testutil.SeedOrg(t, ctx, db, "Engineering", "Apollo", "Alpha"),
		python:   testutil.SeedSkill(t, ctx, db, "Python"),
		postgres: testutil.SeedSkill(t, ctx, db, "PostgreSQL", "Postgre"),
		jobs:     jobsrepo.NewImportJobRepo(db, logg),
		progress: &progressLog{},
	}
	testutil.SeedRole(t, ctx, db, "Software Engineer", "SWE, Developer")

	e.deps = Deps{
		DB:          db,
		Runner:      txn.NewGormRunner(db),
		Reader:      workbook.NewReader(workbook.Options{}, logg),
		Orgs:        orgrepo.NewOrgRepo(db, logg),
		Employees:   peoplerepo.NewEmployeeRepo(db, logg),
		Catalog:     skillsrepo.NewCatalogRepo(db, logg),
		Occurrences: skillsrepo.NewEmployeeSkillRepo(db, logg),
		History:     skillsrepo.NewHistoryRepo(db, logg),
		Unresolved:  skillsrepo.NewUnresolvedRepo(db, logg),
		Tracker:     jobrt.NewTracker(e.jobs, e.progress, nil, time.Millisecond, logg),
		Log:         logg,
	}
	return e
}

func (e *env) orchestrator(opts Options) *Orchestrator {
	return New(e.deps, opts)
}

type panickingBackend struct{}

func (panickingBackend) Nearest(context.Context, string, int) ([]resolver.Match, error) {
	var hits map[string]int
	hits["nearest"]++
	return nil, nil
}

// explodingOccurrences panics on the first occurrence lookup.
type explodingOccurrences struct {
	skillsrepo.EmployeeSkillRepo
}

func (explodingOccurrences) Get(dbctx.Context, uuid.UUID, uuid.UUID) (*types.EmployeeSkill, error) {
	panic("occurrence store exploded")
}
