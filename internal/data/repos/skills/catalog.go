package skills

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type CatalogRepo interface {
	ListActive(dbc dbctx.Context) ([]*types.CanonicalSkill, error)
	ListAliases(dbc dbctx.Context) ([]*types.SkillAlias, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CanonicalSkill, error)
	// ListMissingEmbeddings returns active skills with no vector stored for model.
	ListMissingEmbeddings(dbc dbctx.Context, model string) ([]*types.CanonicalSkill, error)
	Create(dbc dbctx.Context, skills []*types.CanonicalSkill) error
	CreateAliases(dbc dbctx.Context, aliases []*types.SkillAlias) error
}

type catalogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogRepo(db *gorm.DB, baseLog *logger.Logger) CatalogRepo {
	return &catalogRepo{
		db:  db,
		log: baseLog.With("repo", "CatalogRepo"),
	}
}

func (r *catalogRepo) ListActive(dbc dbctx.Context) ([]*types.CanonicalSkill, error) {
	var out []*types.CanonicalSkill
	if err := dbc.DB(r.db).Where("active = ?", true).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListAliases(dbc dbctx.Context) ([]*types.SkillAlias, error) {
	var out []*types.SkillAlias
	if err := dbc.DB(r.db).Order("alias ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CanonicalSkill, error) {
	var out []*types.CanonicalSkill
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) ListMissingEmbeddings(dbc dbctx.Context, model string) ([]*types.CanonicalSkill, error) {
	var out []*types.CanonicalSkill
	tx := dbc.DB(r.db)
	sub := tx.Session(&gorm.Session{NewDB: true}).
		Model(&types.SkillEmbedding{}).
		Select("skill_id").
		Where("model = ?", model)
	if err := tx.
		Where("active = ?", true).
		Where("id NOT IN (?)", sub).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *catalogRepo) Create(dbc dbctx.Context, skills []*types.CanonicalSkill) error {
	if len(skills) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&skills).Error
}

func (r *catalogRepo) CreateAliases(dbc dbctx.Context, aliases []*types.SkillAlias) error {
	if len(aliases) == 0 {
		return nil
	}
	return dbc.DB(r.db).Omit("Skill").Create(&aliases).Error
}
