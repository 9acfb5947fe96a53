package skills

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

// ScoredSkill is a nearest-neighbour hit; Score is cosine similarity.
type ScoredSkill struct {
	SkillID uuid.UUID
	Score   float64
}

type EmbeddingRepo interface {
	ListByModel(dbc dbctx.Context, model string) ([]*types.SkillEmbedding, error)
	Upsert(dbc dbctx.Context, rows []*types.SkillEmbedding) error
	// NearestPG ranks by pgvector cosine distance. Postgres only.
	NearestPG(dbc dbctx.Context, model string, query []float32, k int) ([]ScoredSkill, error)
}

type embeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) EmbeddingRepo {
	return &embeddingRepo{
		db:  db,
		log: baseLog.With("repo", "EmbeddingRepo"),
	}
}

func (r *embeddingRepo) ListByModel(dbc dbctx.Context, model string) ([]*types.SkillEmbedding, error) {
	var out []*types.SkillEmbedding
	if model == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("model = ?", model).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *embeddingRepo) Upsert(dbc dbctx.Context, rows []*types.SkillEmbedding) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now()
	for _, row := range rows {
		row.Dim = len(row.Vector.Slice())
		row.UpdatedAt = now
	}
	return dbc.DB(r.db).
		Omit("Skill").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "skill_id"}, {Name: "model"}},
			DoUpdates: clause.AssignmentColumns([]string{"vector", "dim", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *embeddingRepo) NearestPG(dbc dbctx.Context, model string, query []float32, k int) ([]ScoredSkill, error) {
	if len(query) == 0 || k <= 0 {
		return nil, nil
	}
	tx := dbc.DB(r.db)
	if name := tx.Dialector.Name(); name != "postgres" {
		return nil, fmt.Errorf("pgvector search requires postgres, have %s", name)
	}
	vec := pgvector.NewVector(query)
	var rows []struct {
		SkillID  uuid.UUID
		Distance float64
	}
	err := tx.
		Model(&types.SkillEmbedding{}).
		Select("skill_id, vector <=> ? AS distance", vec).
		Where("model = ?", model).
		Order(clause.Expr{SQL: "vector <=> ?", Vars: []interface{}{vec}}).
		Limit(k).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ScoredSkill, 0, len(rows))
	for _, row := range rows {
		out = append(out, ScoredSkill{SkillID: row.SkillID, Score: 1 - row.Distance})
	}
	return out, nil
}
