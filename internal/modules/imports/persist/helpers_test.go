package persist

import (
	"context"
	"testing"

	"gorm.io/gorm"

	orgrepo "github.com/yungbote/skillsync/internal/data/repos/org"
	peoplerepo "github.com/yungbote/skillsync/internal/data/repos/people"
	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	"github.com/yungbote/skillsync/internal/data/txn"
	txntest "github.com/yungbote/skillsync/internal/data/txn/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/ingestion/workbook"
	"github.com/yungbote/skillsync/internal/modules/imports/history"
	"github.com/yungbote/skillsync/internal/modules/imports/masterdata"
	"github.com/yungbote/skillsync/internal/modules/imports/resolver"
	"github.com/yungbote/skillsync/internal/modules/imports/unresolved"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
)

type harness struct {
	db          *gorm.DB
	dbc         dbctx.Context
	org         testutil.Org
	role        *types.Role
	python      *types.CanonicalSkill
	postgres    *types.CanonicalSkill
	employees   peoplerepo.EmployeeRepo
	orgs        orgrepo.OrgRepo
	occurrences skillsrepo.EmployeeSkillRepo
	historyRepo skillsrepo.HistoryRepo
	unresolved  skillsrepo.UnresolvedRepo
	catalog     skillsrepo.CatalogRepo
	hooks       *txntest.HooksRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	ctx := context.Background()
	logg := testutil.Logger(t)
	h := &harness{
		db:          db,
		dbc:         dbctx.Context{Ctx: ctx},
		org:         testutil.SeedOrg(t, ctx, db, "Engineering", "Apollo", "Alpha"),
		role:        testutil.SeedRole(t, ctx, db, "Software Engineer", "SWE"),
		python:      testutil.SeedSkill(t, ctx, db, "Python"),
		postgres:    testutil.SeedSkill(t, ctx, db, "PostgreSQL", "Postgre", "psql"),
		employees:   peoplerepo.NewEmployeeRepo(db, logg),
		orgs:        orgrepo.NewOrgRepo(db, logg),
		occurrences: skillsrepo.NewEmployeeSkillRepo(db, logg),
		historyRepo: skillsrepo.NewHistoryRepo(db, logg),
		unresolved:  skillsrepo.NewUnresolvedRepo(db, logg),
		catalog:     skillsrepo.NewCatalogRepo(db, logg),
		hooks:       &txntest.HooksRecorder{},
	}
	return h
}

func (h *harness) employeePersister(t *testing.T, runner txn.Runner) *EmployeePersister {
	t.Helper()
	logg := testutil.Logger(t)
	return NewEmployeePersister(masterdata.NewValidator(h.orgs, logg), h.employees, runner, h.hooks, logg)
}

// skillPersister builds a persister with a fresh resolver, matching one
// resolver per import run.
func (h *harness) skillPersister(t *testing.T, runner txn.Runner) *SkillPersister {
	t.Helper()
	logg := testutil.Logger(t)
	res := resolver.NewResolver(h.catalog, nil, resolver.Options{}, logg)
	ulog := unresolved.NewLogger(h.unresolved, h.db, nil, nil, nil, logg)
	return NewSkillPersister(
		res, ulog, h.employees, h.orgs, h.occurrences,
		history.NewRecorder(h.historyRepo, logg),
		runner, h.hooks, logg,
	)
}

func (h *harness) employeeRow(n int, key string) workbook.EmployeeRow {
	return workbook.EmployeeRow{
		Sheet:       "Employees",
		Row:         n,
		RowRef:      "Employees!" + key,
		BusinessKey: key,
		Name:        "Employee " + key,
		SubSegment:  h.org.SubSegment.Name,
		Project:     h.org.Project.Name,
		Team:        h.org.Team.Name,
		Role:        h.role.Name,
	}
}

func skillRow(n int, key, text string) workbook.SkillRow {
	return workbook.SkillRow{
		Sheet:       "Skills",
		Row:         n,
		RowRef:      "Skills!" + key,
		BusinessKey: key,
		SkillText:   text,
	}
}

func codes(failures []types.FailureRecord) []types.ErrorCode {
	out := make([]types.ErrorCode, 0, len(failures))
	for _, f := range failures {
		out = append(out, f.Code)
	}
	return out
}
