package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/prdinsights/internal/domain/analysis"
	"github.com/rpggio/prdinsights/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestRunRepository_Lifecycle(t *testing.T) {
	db := NewTestDB(t)
	seedRelease(t, db, "tenant1", "p1", "r1")
	seedDocument(t, db, "tenant1", "p1", "r1", "d1")
	repo := NewRunRepository(db)
	ctx := context.Background()

	run := &analysis.Run{
		ID:         "run1",
		ProjectID:  "p1",
		ReleaseID:  "r1",
		DocumentID: "d1",
		Mode:       "document",
		Status:     analysis.RunRunning,
		StartedAt:  time.Now(),
	}
	require.NoError(t, repo.Create(ctx, "tenant1", run))

	loaded, err := repo.Get(ctx, "tenant1", "run1")
	require.NoError(t, err)
	require.Equal(t, analysis.RunRunning, loaded.Status)
	require.Nil(t, loaded.CompletedAt)
	require.Empty(t, loaded.FailedChunks)

	done := time.Now()
	run.Status = analysis.RunCompleted
	run.InsightCount = 4
	run.ConcernCount = 2
	run.ReflectionRounds = 2
	run.FailedChunks = []int{3, 5}
	run.CompletedAt = &done
	require.NoError(t, repo.Update(ctx, "tenant1", run))

	loaded, err = repo.Get(ctx, "tenant1", "run1")
	require.NoError(t, err)
	require.Equal(t, analysis.RunCompleted, loaded.Status)
	require.Equal(t, 4, loaded.InsightCount)
	require.Equal(t, []int{3, 5}, loaded.FailedChunks)
	require.NotNil(t, loaded.CompletedAt)

	_, err = repo.Get(ctx, "tenant2", "run1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	missing := *run
	missing.ID = "nope"
	require.ErrorIs(t, repo.Update(ctx, "tenant1", &missing), repository.ErrNotFound)
}

func TestRunRepository_List(t *testing.T) {
	db := NewTestDB(t)
	seedRelease(t, db, "tenant1", "p1", "r1")
	seedDocument(t, db, "tenant1", "p1", "r1", "d1")
	repo := NewRunRepository(db)
	ctx := context.Background()

	base := time.Now()
	for i, status := range []analysis.RunStatus{analysis.RunFailed, analysis.RunCompleted} {
		require.NoError(t, repo.Create(ctx, "tenant1", &analysis.Run{
			ID:         string(rune('a' + i)),
			ProjectID:  "p1",
			ReleaseID:  "r1",
			DocumentID: "d1",
			Mode:       "document",
			Status:     status,
			StartedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	runs, err := repo.List(ctx, "tenant1", analysis.ListOptions{DocumentID: "d1"})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "b", runs[0].ID)

	failed, err := repo.List(ctx, "tenant1", analysis.ListOptions{Status: "failed"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.Equal(t, "a", failed[0].ID)
}
