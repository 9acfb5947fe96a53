package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	skillsrepo "github.com/yungbote/skillsync/internal/data/repos/skills"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/qdrant"
)

type catalogFixture struct {
	db       *gorm.DB
	catalog  skillsrepo.CatalogRepo
	python   *types.CanonicalSkill
	postgres *types.CanonicalSkill
	golang   *types.CanonicalSkill
	retired  *types.CanonicalSkill
}

func seedCatalog(t *testing.T) catalogFixture {
	t.Helper()
	db := testutil.DB(t)
	catalog := skillsrepo.NewCatalogRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	f := catalogFixture{
		db:       db,
		catalog:  catalog,
		python:   &types.CanonicalSkill{Name: "Python", Category: "language", Active: true},
		postgres: &types.CanonicalSkill{Name: "PostgreSQL", Category: "database", Active: true},
		golang:   &types.CanonicalSkill{Name: "Go", Category: "language", Active: true},
		retired:  &types.CanonicalSkill{Name: "COBOL", Category: "language", Active: true},
	}
	require.NoError(t, catalog.Create(dbc, []*types.CanonicalSkill{f.python, f.postgres, f.golang, f.retired}))
	require.NoError(t, db.Model(f.retired).Update("active", false).Error)
	require.NoError(t, catalog.CreateAliases(dbc, []*types.SkillAlias{
		{SkillID: f.postgres.ID, Alias: "Postgre"},
		{SkillID: f.postgres.ID, Alias: "psql"},
		{SkillID: f.golang.ID, Alias: "Golang"},
		{SkillID: f.retired.ID, Alias: "Cobol-85"},
	}))
	return f
}

type fakeBackend struct {
	mu      sync.Mutex
	calls   map[string]int
	results map[string][]Match
	err     error
}

func (f *fakeBackend) Nearest(_ context.Context, text string, _ int) ([]Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[text]++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[text], nil
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type panickingBackend struct{ calls int }

func (b *panickingBackend) Nearest(context.Context, string, int) ([]Match, error) {
	b.calls++
	var scores map[string]float64
	scores["boom"] = 1
	return nil, nil
}

type fakeEmbedder struct {
	model   string
	vectors map[string][]float32
	err     error
	calls   int
	mu      sync.Mutex
}

func (f *fakeEmbedder) Model() string { return f.model }

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		v, ok := f.vectors[in]
		if !ok {
			return nil, errors.New("no vector for " + in)
		}
		out[i] = v
	}
	return out, nil
}

type fakeStore struct {
	ensured bool
	points  map[string][]qdrant.Point
	matches []qdrant.Match
	err     error
}

func (f *fakeStore) EnsureCollection(context.Context) error {
	f.ensured = true
	return f.err
}

func (f *fakeStore) Upsert(_ context.Context, ns string, points []qdrant.Point) error {
	if f.err != nil {
		return f.err
	}
	if f.points == nil {
		f.points = map[string][]qdrant.Point{}
	}
	f.points[ns] = append(f.points[ns], points...)
	return nil
}

func (f *fakeStore) QueryMatches(_ context.Context, _ string, _ []float32, _ int) ([]qdrant.Match, error) {
	return f.matches, f.err
}

func idOf(t *testing.T, res Resolution) uuid.UUID {
	t.Helper()
	require.NotNil(t, res.SkillID, "expected a resolved skill, got %+v", res)
	return *res.SkillID
}
