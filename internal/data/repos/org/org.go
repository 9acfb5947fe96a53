package org

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

type OrgRepo interface {
	ListSubSegments(dbc dbctx.Context) ([]*types.SubSegment, error)
	ListProjectsBySubSegment(dbc dbctx.Context, subSegmentID uuid.UUID) ([]*types.Project, error)
	ListTeamsByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Team, error)
	ListActiveRoles(dbc dbctx.Context) ([]*types.Role, error)
	SubSegmentIDForTeam(dbc dbctx.Context, teamID uuid.UUID) (uuid.UUID, error)

	CreateSubSegment(dbc dbctx.Context, s *types.SubSegment) error
	CreateProject(dbc dbctx.Context, p *types.Project) error
	CreateTeam(dbc dbctx.Context, t *types.Team) error
	CreateRole(dbc dbctx.Context, r *types.Role) error
}

type orgRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrgRepo(db *gorm.DB, baseLog *logger.Logger) OrgRepo {
	return &orgRepo{
		db:  db,
		log: baseLog.With("repo", "OrgRepo"),
	}
}

func (r *orgRepo) ListSubSegments(dbc dbctx.Context) ([]*types.SubSegment, error) {
	var out []*types.SubSegment
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orgRepo) ListProjectsBySubSegment(dbc dbctx.Context, subSegmentID uuid.UUID) ([]*types.Project, error) {
	var out []*types.Project
	if subSegmentID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("sub_segment_id = ?", subSegmentID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orgRepo) ListTeamsByProject(dbc dbctx.Context, projectID uuid.UUID) ([]*types.Team, error) {
	var out []*types.Team
	if projectID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orgRepo) ListActiveRoles(dbc dbctx.Context) ([]*types.Role, error) {
	var out []*types.Role
	if err := dbc.DB(r.db).Where("active = ?", true).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SubSegmentIDForTeam walks team → project → sub segment. Unknown team yields uuid.Nil.
func (r *orgRepo) SubSegmentIDForTeam(dbc dbctx.Context, teamID uuid.UUID) (uuid.UUID, error) {
	if teamID == uuid.Nil {
		return uuid.Nil, nil
	}
	var projects []*types.Project
	err := dbc.DB(r.db).
		Where("id = (?)", dbc.DB(r.db).Model(&types.Team{}).Select("project_id").Where("id = ?", teamID)).
		Limit(1).
		Find(&projects).Error
	if err != nil {
		return uuid.Nil, err
	}
	if len(projects) == 0 {
		return uuid.Nil, nil
	}
	return projects[0].SubSegmentID, nil
}

func (r *orgRepo) CreateSubSegment(dbc dbctx.Context, s *types.SubSegment) error {
	return dbc.DB(r.db).Create(s).Error
}

func (r *orgRepo) CreateProject(dbc dbctx.Context, p *types.Project) error {
	return dbc.DB(r.db).Omit("SubSegment").Create(p).Error
}

func (r *orgRepo) CreateTeam(dbc dbctx.Context, t *types.Team) error {
	return dbc.DB(r.db).Omit("Project").Create(t).Error
}

func (r *orgRepo) CreateRole(dbc dbctx.Context, role *types.Role) error {
	return dbc.DB(r.db).Create(role).Error
}
