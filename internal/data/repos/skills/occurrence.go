package skills

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type EmployeeSkillRepo interface {
	// Get returns nil, nil when the pair has no occurrence.
	Get(dbc dbctx.Context, employeeID, skillID uuid.UUID) (*types.EmployeeSkill, error)
	ListByEmployee(dbc dbctx.Context, employeeID uuid.UUID) ([]*types.EmployeeSkill, error)
	Create(dbc dbctx.Context, row *types.EmployeeSkill) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Count(dbc dbctx.Context) (int64, error)
}

type employeeSkillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeSkillRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeSkillRepo {
	return &employeeSkillRepo{
		db:  db,
		log: baseLog.With("repo", "EmployeeSkillRepo"),
	}
}

func (r *employeeSkillRepo) Get(dbc dbctx.Context, employeeID, skillID uuid.UUID) (*types.EmployeeSkill, error) {
	var out []*types.EmployeeSkill
	if err := dbc.DB(r.db).
		Where("employee_id = ? AND skill_id = ?", employeeID, skillID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *employeeSkillRepo) ListByEmployee(dbc dbctx.Context, employeeID uuid.UUID) ([]*types.EmployeeSkill, error) {
	var out []*types.EmployeeSkill
	if err := dbc.DB(r.db).
		Where("employee_id = ?", employeeID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *employeeSkillRepo) Create(dbc dbctx.Context, row *types.EmployeeSkill) error {
	return dbc.DB(r.db).Create(row).Error
}

func (r *employeeSkillRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.DB(r.db).
		Model(&types.EmployeeSkill{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *employeeSkillRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.EmployeeSkill{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
