package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/skillsync/internal/domain"
	"gorm.io/gorm"
)

// Org is a seeded sub-segment > project > team chain plus one role.
type Org struct {
	SubSegment *types.SubSegment
	Project    *types.Project
	Team       *types.Team
	Role       *types.Role
}

func SeedOrg(tb testing.TB, ctx context.Context, tx *gorm.DB, subSegment, project, team string) Org {
	tb.Helper()
	o := Org{
		SubSegment: &types.SubSegment{ID: uuid.New(), Name: subSegment},
	}
	if err := tx.WithContext(ctx).Create(o.SubSegment).Error; err != nil {
		tb.Fatalf("seed sub segment: %v", err)
	}
	o.Project = &types.Project{ID: uuid.New(), SubSegmentID: o.SubSegment.ID, Name: project}
	if err := tx.WithContext(ctx).Create(o.Project).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	o.Team = &types.Team{ID: uuid.New(), ProjectID: o.Project.ID, Name: team}
	if err := tx.WithContext(ctx).Create(o.Team).Error; err != nil {
		tb.Fatalf("seed team: %v", err)
	}
	return o
}

func SeedRole(tb testing.TB, ctx context.Context, tx *gorm.DB, name, aliases string) *types.Role {
	tb.Helper()
	r := &types.Role{ID: uuid.New(), Name: name, Aliases: aliases, Active: true}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed role: %v", err)
	}
	return r
}

func SeedEmployee(tb testing.TB, ctx context.Context, tx *gorm.DB, key string, teamID uuid.UUID) *types.Employee {
	tb.Helper()
	e := &types.Employee{ID: uuid.New(), BusinessKey: key, Name: "Employee " + key, TeamID: teamID}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed employee: %v", err)
	}
	return e
}

// SeedSkill creates an active canonical skill and its aliases.
func SeedSkill(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, aliases ...string) *types.CanonicalSkill {
	tb.Helper()
	s := &types.CanonicalSkill{ID: uuid.New(), Name: name, Active: true}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed skill: %v", err)
	}
	for _, a := range aliases {
		if err := tx.WithContext(ctx).Create(&types.SkillAlias{ID: uuid.New(), SkillID: s.ID, Alias: a}).Error; err != nil {
			tb.Fatalf("seed skill alias: %v", err)
		}
	}
	return s
}
