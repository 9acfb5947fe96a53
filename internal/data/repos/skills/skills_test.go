package skills

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"gorm.io/datatypes"
)

func TestCatalogAndEmbeddingRepos(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	logg := testutil.Logger(t)
	catalog := NewCatalogRepo(db, logg)
	embeddings := NewEmbeddingRepo(db, logg)

	python := &types.CanonicalSkill{Name: "Python", Active: true}
	pg := &types.CanonicalSkill{Name: "PostgreSQL", Active: true}
	require.NoError(t, catalog.Create(dbc, []*types.CanonicalSkill{python, pg}))
	require.NoError(t, catalog.CreateAliases(dbc, []*types.SkillAlias{{SkillID: pg.ID, Alias: "Postgre"}}))

	active, err := catalog.ListActive(dbc)
	require.NoError(t, err)
	require.Len(t, active, 2)

	aliases, err := catalog.ListAliases(dbc)
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	require.Equal(t, pg.ID, aliases[0].SkillID)

	missing, err := catalog.ListMissingEmbeddings(dbc, "m1")
	require.NoError(t, err)
	require.Len(t, missing, 2)

	require.NoError(t, embeddings.Upsert(dbc, []*types.SkillEmbedding{
		{SkillID: python.ID, Model: "m1", Vector: pgvector.NewVector([]float32{1, 0, 0})},
	}))
	missing, err = catalog.ListMissingEmbeddings(dbc, "m1")
	require.NoError(t, err)
	require.Len(t, missing, 1)
	require.Equal(t, pg.ID, missing[0].ID)

	// second upsert for the same (skill, model) replaces the vector
	require.NoError(t, embeddings.Upsert(dbc, []*types.SkillEmbedding{
		{SkillID: python.ID, Model: "m1", Vector: pgvector.NewVector([]float32{0, 1, 0, 0})},
	}))
	rows, err := embeddings.ListByModel(dbc, "m1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, []float32{0, 1, 0, 0}, rows[0].Vector.Slice())
	require.Equal(t, 4, rows[0].Dim)

	_, err = embeddings.NearestPG(dbc, "m1", []float32{1, 0, 0}, 3)
	require.Error(t, err)
}

func TestEmployeeSkillAndHistoryRepos(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	logg := testutil.Logger(t)
	occurrences := NewEmployeeSkillRepo(db, logg)
	history := NewHistoryRepo(db, logg)

	empID, skillID := uuid.New(), uuid.New()
	none, err := occurrences.Get(dbc, empID, skillID)
	require.NoError(t, err)
	require.Nil(t, none)

	row := &types.EmployeeSkill{
		EmployeeID:       empID,
		SkillID:          skillID,
		SourceText:       "python",
		YearsExperience:  decimal.NewNullDecimal(decimal.RequireFromString("3.5")),
		ResolutionMethod: types.MethodExact,
	}
	require.NoError(t, occurrences.Create(dbc, row))
	require.Error(t, occurrences.Create(dbc, &types.EmployeeSkill{EmployeeID: empID, SkillID: skillID, ResolutionMethod: types.MethodExact}))

	require.NoError(t, occurrences.UpdateFields(dbc, row.ID, map[string]interface{}{"proficiency_label": "Expert"}))
	got, err := occurrences.Get(dbc, empID, skillID)
	require.NoError(t, err)
	require.Equal(t, "Expert", got.ProficiencyLabel)
	require.True(t, got.YearsExperience.Valid)
	require.Equal(t, "3.5", got.YearsExperience.Decimal.String())

	batch := uuid.New()
	require.NoError(t, history.Create(dbc, &types.EmployeeSkillHistory{
		EmployeeID: empID,
		SkillID:    skillID,
		NewState:   datatypes.JSON([]byte(`{"source_text":"python"}`)),
		Source:     "workbook",
		Reason:     "import",
		BatchID:    batch,
	}))
	hist, err := history.ListByBatch(dbc, batch)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	require.Nil(t, hist[0].OldState)

	byEmp, err := history.ListByEmployee(dbc, empID)
	require.NoError(t, err)
	require.Len(t, byEmp, 1)
}

func TestUnresolvedRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewUnresolvedRepo(db, testutil.Logger(t))

	jobID := uuid.New()
	method := types.MethodReview
	conf := 0.83
	require.NoError(t, repo.Create(dbc, &types.UnresolvedSkillInput{
		RawText:        "Pythn",
		NormalizedText: "pythn",
		ImportJobID:    &jobID,
		Method:         &method,
		Confidence:     &conf,
	}))
	rows, err := repo.ListByJob(dbc, jobID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, types.MethodReview, *rows[0].Method)
	require.InDelta(t, 0.83, *rows[0].Confidence, 1e-9)
}
