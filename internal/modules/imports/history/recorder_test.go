package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
)

func TestRecorderWritesOldAndNewState(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := skillsrepo.NewHistoryRepo(db, log)
	rec := NewRecorder(repo, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: testutil.Tx(t, db)}

	emp, skill, batch := uuid.New(), uuid.New(), uuid.New()
	level := 3
	first := SkillState{SourceText: "Python", ProficiencyLevel: &level, ResolutionMethod: "exact", ResolutionConfidence: 1}
	require.NoError(t, rec.Record(dbc, Change{
		EmployeeID: emp, SkillID: skill, New: first,
		Source: "workbook_import", Actor: "hr-bot", Reason: "import", BatchID: batch,
	}))

	second := first
	second.YearsExperience = decimal.NewNullDecimal(decimal.RequireFromString("4.5"))
	require.NoError(t, rec.Record(dbc, Change{
		EmployeeID: emp, SkillID: skill, Old: &first, New: second,
		Source: "workbook_import", Actor: "hr-bot", Reason: "import", BatchID: batch,
	}))

	rows, err := repo.ListByBatch(dbc, batch)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var created, updated *SkillState
	for _, row := range rows {
		var st SkillState
		require.NoError(t, json.Unmarshal(row.NewState, &st))
		if len(row.OldState) == 0 {
			created = &st
		} else {
			updated = &st
			var old SkillState
			require.NoError(t, json.Unmarshal(row.OldState, &old))
			require.True(t, old.Equal(first))
		}
		require.Equal(t, "hr-bot", row.Actor)
	}
	require.NotNil(t, created)
	require.NotNil(t, updated)
	require.True(t, updated.Equal(second))
}

func TestRecorderRejectsMissingIDs(t *testing.T) {
	db := testutil.DB(t)
	rec := NewRecorder(skillsrepo.NewHistoryRepo(db, testutil.Logger(t)), testutil.Logger(t))
	err := rec.Record(dbctx.Context{Ctx: context.Background()}, Change{EmployeeID: uuid.New(), SkillID: uuid.New()})
	require.Error(t, err)
}

func TestSkillStateEqual(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d.In(time.FixedZone("x", 3600))
	a := SkillState{SourceText: "Go", LastUsed: &d, YearsExperience: decimal.NewNullDecimal(decimal.RequireFromString("2.0"))}
	b := SkillState{SourceText: "Go", LastUsed: &d2, YearsExperience: decimal.NewNullDecimal(decimal.RequireFromString("2"))}
	require.True(t, a.Equal(b))

	lvl := 2
	b.ProficiencyLevel = &lvl
	require.False(t, a.Equal(b))
}
