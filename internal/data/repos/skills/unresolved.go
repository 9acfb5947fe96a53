package skills

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type UnresolvedRepo interface {
	Create(dbc dbctx.Context, row *types.UnresolvedSkillInput) error
	ListByJob(dbc dbctx.Context, jobID uuid.UUID) ([]*types.UnresolvedSkillInput, error)
	Count(dbc dbctx.Context) (int64, error)
}

type unresolvedRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUnresolvedRepo(db *gorm.DB, baseLog *logger.Logger) UnresolvedRepo {
	return &unresolvedRepo{
		db:  db,
		log: baseLog.With("repo", "UnresolvedRepo"),
	}
}

func (r *unresolvedRepo) Create(dbc dbctx.Context, row *types.UnresolvedSkillInput) error {
	return dbc.DB(r.db).Create(row).Error
}

func (r *unresolvedRepo) ListByJob(dbc dbctx.Context, jobID uuid.UUID) ([]*types.UnresolvedSkillInput, error) {
	var out []*types.UnresolvedSkillInput
	if err := dbc.DB(r.db).Where("import_job_id = ?", jobID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *unresolvedRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.UnresolvedSkillInput{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
