package skills

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type HistoryRepo interface {
	Create(dbc dbctx.Context, row *types.EmployeeSkillHistory) error
	ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.EmployeeSkillHistory, error)
	ListByEmployee(dbc dbctx.Context, employeeID uuid.UUID) ([]*types.EmployeeSkillHistory, error)
}

type historyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHistoryRepo(db *gorm.DB, baseLog *logger.Logger) HistoryRepo {
	return &historyRepo{
		db:  db,
		log: baseLog.With("repo", "HistoryRepo"),
	}
}

func (r *historyRepo) Create(dbc dbctx.Context, row *types.EmployeeSkillHistory) error {
	return dbc.DB(r.db).Create(row).Error
}

func (r *historyRepo) ListByBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.EmployeeSkillHistory, error) {
	var out []*types.EmployeeSkillHistory
	if err := dbc.DB(r.db).Where("batch_id = ?", batchID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *historyRepo) ListByEmployee(dbc dbctx.Context, employeeID uuid.UUID) ([]*types.EmployeeSkillHistory, error) {
	var out []*types.EmployeeSkillHistory
	if err := dbc.DB(r.db).Where("employee_id = ?", employeeID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
