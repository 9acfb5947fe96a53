package org

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
)

func TestOrgRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewOrgRepo(db, testutil.Logger(t))

	eng := &types.SubSegment{Name: "Engineering"}
	ops := &types.SubSegment{Name: "Operations"}
	require.NoError(t, repo.CreateSubSegment(dbc, eng))
	require.NoError(t, repo.CreateSubSegment(dbc, ops))
	require.NotEqual(t, uuid.Nil, eng.ID)

	apollo := &types.Project{SubSegmentID: eng.ID, Name: "Apollo"}
	opsApollo := &types.Project{SubSegmentID: ops.ID, Name: "Apollo"}
	require.NoError(t, repo.CreateProject(dbc, apollo))
	require.NoError(t, repo.CreateProject(dbc, opsApollo))

	alpha := &types.Team{ProjectID: apollo.ID, Name: "Alpha"}
	require.NoError(t, repo.CreateTeam(dbc, alpha))

	projects, err := repo.ListProjectsBySubSegment(dbc, eng.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, apollo.ID, projects[0].ID)

	teams, err := repo.ListTeamsByProject(dbc, opsApollo.ID)
	require.NoError(t, err)
	require.Empty(t, teams)

	segID, err := repo.SubSegmentIDForTeam(dbc, alpha.ID)
	require.NoError(t, err)
	require.Equal(t, eng.ID, segID)

	segID, err = repo.SubSegmentIDForTeam(dbc, uuid.New())
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, segID)

	require.NoError(t, repo.CreateRole(dbc, &types.Role{Name: "Engineer", Aliases: "SWE, Developer", Active: true}))
	retired := &types.Role{Name: "Retired", Active: true}
	require.NoError(t, repo.CreateRole(dbc, retired))
	require.NoError(t, tx.Model(retired).Update("active", false).Error)

	roles, err := repo.ListActiveRoles(dbc)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, []string{"SWE", "Developer"}, roles[0].AliasTokens())
}
