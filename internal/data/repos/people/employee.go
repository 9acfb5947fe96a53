package people

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type EmployeeRepo interface {
	// GetByBusinessKey returns nil, nil when no employee carries key.
	GetByBusinessKey(dbc dbctx.Context, key string) (*types.Employee, error)
	GetByBusinessKeys(dbc dbctx.Context, keys []string) ([]*types.Employee, error)
	Create(dbc dbctx.Context, e *types.Employee) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Count(dbc dbctx.Context) (int64, error)
}

type employeeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	return &employeeRepo{
		db:  db,
		log: baseLog.With("repo", "EmployeeRepo"),
	}
}

func (r *employeeRepo) GetByBusinessKey(dbc dbctx.Context, key string) (*types.Employee, error) {
	if key == "" {
		return nil, nil
	}
	var out []*types.Employee
	if err := dbc.DB(r.db).Where("business_key = ?", key).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *employeeRepo) GetByBusinessKeys(dbc dbctx.Context, keys []string) ([]*types.Employee, error) {
	var out []*types.Employee
	if len(keys) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("business_key IN ?", keys).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *employeeRepo) Create(dbc dbctx.Context, e *types.Employee) error {
	return dbc.DB(r.db).Create(e).Error
}

func (r *employeeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return dbc.DB(r.db).
		Model(&types.Employee{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *employeeRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Employee{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
