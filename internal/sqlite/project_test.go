package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestProjectRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	proj := &project.Project{
		ID:          "p1",
		TenantID:    "tenant1",
		Name:        "Checkout",
		Description: "Payments and cart",
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(ctx, "tenant1", proj))

	retrieved, err := repo.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Equal(t, proj.Name, retrieved.Name)
	require.Equal(t, proj.Description, retrieved.Description)
	require.Equal(t, "tenant1", retrieved.TenantID)
}

func TestProjectRepository_DuplicateName(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "tenant1", &project.Project{ID: "p1", Name: "Checkout", CreatedAt: time.Now()}))
	err := repo.Create(ctx, "tenant1", &project.Project{ID: "p2", Name: "Checkout", CreatedAt: time.Now()})
	require.ErrorIs(t, err, repository.ErrConflict)

	// Names are unique per tenant only.
	require.NoError(t, repo.Create(ctx, "tenant2", &project.Project{ID: "p3", Name: "Checkout", CreatedAt: time.Now()}))
}

func TestProjectRepository_TenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "tenant1", &project.Project{ID: "p1", Name: "Checkout", CreatedAt: time.Now()}))

	_, err := repo.Get(ctx, "tenant2", "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.List(ctx, "tenant2")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestProjectRepository_Releases(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "tenant1", &project.Project{ID: "p1", Name: "Checkout", CreatedAt: time.Now()}))

	base := time.Now()
	for i, label := range []string{"v1", "v2"} {
		rel := &project.Release{
			ID:        "r" + label,
			ProjectID: "p1",
			Label:     label,
			Status:    project.ReleaseDraft,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.CreateRelease(ctx, "tenant1", rel))
	}

	err := repo.CreateRelease(ctx, "tenant1", &project.Release{ID: "dup", ProjectID: "p1", Label: "v1", Status: project.ReleaseDraft, CreatedAt: base})
	require.ErrorIs(t, err, repository.ErrConflict)

	err = repo.CreateRelease(ctx, "tenant1", &project.Release{ID: "orphan", ProjectID: "missing", Label: "v1", Status: project.ReleaseDraft, CreatedAt: base})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)

	rel, err := repo.GetRelease(ctx, "tenant1", "rv1")
	require.NoError(t, err)
	require.Equal(t, "p1", rel.ProjectID)
	require.Equal(t, project.ReleaseDraft, rel.Status)

	releases, err := repo.ListReleases(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Len(t, releases, 2)
	require.Equal(t, "v2", releases[0].Label)

	list, err := repo.List(ctx, "tenant1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 2, list[0].ReleaseCount)

	_, err = repo.GetRelease(ctx, "tenant2", "rv1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
