package masterdata

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	orgrepo "github.com/yungbote/skillsync/internal/data/repos/org"
	"github.com/yungbote/skillsync/internal/data/txn"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/normalization"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
	"github.com/yungbote/skillsync/internal/platform/logger"
)

// Ref is the hierarchy a row claims, by name.
type Ref struct {
	SubSegment string
	Project    string
	Team       string
	Role       string
	RowRef     string
}

type Resolved struct {
	SubSegmentID uuid.UUID
	ProjectID    uuid.UUID
	TeamID       uuid.UUID
	RoleID       *uuid.UUID
}

// Validator checks a row's hierarchy against stored master data. Each level
// is looked up under its claimed parent only, so a same-named Project under a
// different SubSegment never matches. Lookups are memoized; build one
// Validator per import run.
type Validator struct {
	repo orgrepo.OrgRepo
	log  *logger.Logger

	segments map[string]uuid.UUID
	projects map[uuid.UUID]map[string]uuid.UUID
	teams    map[uuid.UUID]map[string]uuid.UUID
	roles    map[string]uuid.UUID
}

func NewValidator(repo orgrepo.OrgRepo, baseLog *logger.Logger) *Validator {
	return &Validator{
		repo:     repo,
		log:      baseLog.With("service", "MasterDataValidator"),
		projects: map[uuid.UUID]map[string]uuid.UUID{},
		teams:    map[uuid.UUID]map[string]uuid.UUID{},
	}
}

func (v *Validator) Validate(ctx context.Context, ref Ref) (Resolved, error) {
	const op = "masterdata.validate"
	var out Resolved

	segID, ok, err := v.subSegment(ctx, ref.SubSegment)
	if err != nil {
		return out, txn.MapError(op, err)
	}
	if !ok {
		return out, types.NewError(types.CodeMissingSubSegment, op,
			fmt.Sprintf("sub segment %q not found", ref.SubSegment), nil)
	}
	out.SubSegmentID = segID

	projID, ok, err := v.project(ctx, segID, ref.Project)
	if err != nil {
		return out, txn.MapError(op, err)
	}
	if !ok {
		return out, types.NewError(types.CodeMissingProject, op,
			fmt.Sprintf("project %q not found under sub segment %q", ref.Project, ref.SubSegment), nil)
	}
	out.ProjectID = projID

	teamID, ok, err := v.team(ctx, projID, ref.Team)
	if err != nil {
		return out, txn.MapError(op, err)
	}
	if !ok {
		return out, types.NewError(types.CodeMissingTeam, op,
			fmt.Sprintf("team %q not found under project %q", ref.Team, ref.Project), nil)
	}
	out.TeamID = teamID

	if normalization.NormalizeKey(ref.Role) == "" {
		return out, nil
	}
	roleID, ok, err := v.role(ctx, ref.Role)
	if err != nil {
		return out, txn.MapError(op, err)
	}
	if !ok {
		return out, types.NewError(types.CodeMissingRole, op,
			fmt.Sprintf("role %q matches no active role or alias", ref.Role), nil)
	}
	out.RoleID = &roleID
	return out, nil
}

func (v *Validator) subSegment(ctx context.Context, name string) (uuid.UUID, bool, error) {
	key := normalization.NormalizeKey(name)
	if key == "" {
		return uuid.Nil, false, nil
	}
	if v.segments == nil {
		rows, err := v.repo.ListSubSegments(dbctx.Context{Ctx: ctx})
		if err != nil {
			return uuid.Nil, false, err
		}
		v.segments = make(map[string]uuid.UUID, len(rows))
		for _, s := range rows {
			putFirst(v.segments, s.Name, s.ID)
		}
	}
	id, ok := v.segments[key]
	return id, ok, nil
}

func (v *Validator) project(ctx context.Context, segID uuid.UUID, name string) (uuid.UUID, bool, error) {
	key := normalization.NormalizeKey(name)
	if key == "" {
		return uuid.Nil, false, nil
	}
	children, ok := v.projects[segID]
	if !ok {
		rows, err := v.repo.ListProjectsBySubSegment(dbctx.Context{Ctx: ctx}, segID)
		if err != nil {
			return uuid.Nil, false, err
		}
		children = make(map[string]uuid.UUID, len(rows))
		for _, p := range rows {
			putFirst(children, p.Name, p.ID)
		}
		v.projects[segID] = children
	}
	id, ok := children[key]
	return id, ok, nil
}

func (v *Validator) team(ctx context.Context, projID uuid.UUID, name string) (uuid.UUID, bool, error) {
	key := normalization.NormalizeKey(name)
	if key == "" {
		return uuid.Nil, false, nil
	}
	children, ok := v.teams[projID]
	if !ok {
		rows, err := v.repo.ListTeamsByProject(dbctx.Context{Ctx: ctx}, projID)
		if err != nil {
			return uuid.Nil, false, err
		}
		children = make(map[string]uuid.UUID, len(rows))
		for _, t := range rows {
			putFirst(children, t.Name, t.ID)
		}
		v.teams[projID] = children
	}
	id, ok := children[key]
	return id, ok, nil
}

func (v *Validator) role(ctx context.Context, name string) (uuid.UUID, bool, error) {
	if v.roles == nil {
		rows, err := v.repo.ListActiveRoles(dbctx.Context{Ctx: ctx})
		if err != nil {
			return uuid.Nil, false, err
		}
		v.roles = map[string]uuid.UUID{}
		// names first so an alias never shadows another role's real name
		for _, r := range rows {
			putFirst(v.roles, r.Name, r.ID)
		}
		for _, r := range rows {
			for _, alias := range r.AliasTokens() {
				putFirst(v.roles, alias, r.ID)
			}
		}
		v.log.Debug("role index built", "roles", len(rows), "keys", len(v.roles))
	}
	id, ok := v.roles[normalization.NormalizeKey(name)]
	return id, ok, nil
}

// remember records an entity created mid-run. Unloaded parents are skipped;
// their first lookup reads the committed row from the store.
func (v *Validator) remember(kind string, parent uuid.UUID, name string, id uuid.UUID) {
	switch kind {
	case KindSubSegment:
		if v.segments != nil {
			putFirst(v.segments, name, id)
		}
	case KindProject:
		if m, ok := v.projects[parent]; ok {
			putFirst(m, name, id)
		}
	case KindTeam:
		if m, ok := v.teams[parent]; ok {
			putFirst(m, name, id)
		}
	}
}

func putFirst(m map[string]uuid.UUID, name string, id uuid.UUID) {
	key := normalization.NormalizeKey(name)
	if key == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = id
	}
}
