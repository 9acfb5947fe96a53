package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yungbote/skillsync/internal/data/repos/testutil"
	types "github.com/yungbote/skillsync/internal/domain"
	"github.com/yungbote/skillsync/internal/platform/dbctx"
)

func TestImportJobRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewImportJobRepo(db, testutil.Logger(t))

	missing, err := repo.GetByID(dbc, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)

	job := &types.ImportJob{JobType: types.JobTypeWorkbookImport, Status: types.JobStatusPending, Phase: types.PhasePending}
	require.NoError(t, repo.Create(dbc, job))
	require.NotEqual(t, uuid.Nil, job.ID)

	ok, err := repo.UpdateFieldsUnlessStatus(dbc, job.ID, []string{types.JobStatusCompleted, types.JobStatusFailed}, map[string]interface{}{
		"status":   types.JobStatusRunning,
		"progress": 10,
	})
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.UpdateFields(dbc, job.ID, map[string]interface{}{"status": types.JobStatusCompleted, "progress": 100}))

	ok, err = repo.UpdateFieldsUnlessStatus(dbc, job.ID, []string{types.JobStatusCompleted, types.JobStatusFailed}, map[string]interface{}{
		"progress": 50,
	})
	require.NoError(t, err)
	require.False(t, ok)

	got, err := repo.GetByID(dbc, job.ID)
	require.NoError(t, err)
	require.Equal(t, 100, got.Progress)
	require.Equal(t, types.JobStatusCompleted, got.Status)

	recent, err := repo.ListRecent(dbc, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}
