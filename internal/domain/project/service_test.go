package project_test

import (
	"context"
	"testing"

	"github.com/rpggio/prdinsights/internal/domain/project"
	"github.com/rpggio/prdinsights/internal/repository"
	"github.com/rpggio/prdinsights/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, "tenant1", mock.MatchedBy(func(p *project.Project) bool {
		return p.Name == "Checkout" && p.ID != "" && p.TenantID == "tenant1"
	})).Return(nil)

	svc := project.NewService(repo, nil)
	proj, err := svc.Create(ctx, "tenant1", project.CreateRequest{Name: "  Checkout ", Description: "Payments"})
	require.NoError(t, err)
	require.Equal(t, "Checkout", proj.Name)
	repo.AssertExpectations(t)
}

func TestProjectService_Create_Validation(t *testing.T) {
	svc := project.NewService(&mocks.ProjectRepository{}, nil)
	_, err := svc.Create(context.Background(), "tenant1", project.CreateRequest{Name: " "})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestProjectService_Create_DuplicateName(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, "tenant1", mock.Anything).Return(repository.ErrConflict)

	svc := project.NewService(repo, nil)
	_, err := svc.Create(ctx, "tenant1", project.CreateRequest{Name: "Checkout"})
	require.ErrorIs(t, err, project.ErrDuplicateName)
}

func TestProjectService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "tenant1", "missing").Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, "tenant1", "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectService_CreateRelease(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "tenant1", "proj1").Return(&project.Project{ID: "proj1"}, nil)
	repo.On("CreateRelease", ctx, "tenant1", mock.MatchedBy(func(r *project.Release) bool {
		return r.ProjectID == "proj1" && r.Status == project.ReleaseInReview
	})).Return(nil)

	svc := project.NewService(repo, nil)
	rel, err := svc.CreateRelease(ctx, "tenant1", project.CreateReleaseRequest{
		ProjectID: "proj1",
		Label:     "v1.0",
		Status:    "in_review",
	})
	require.NoError(t, err)
	require.Equal(t, project.ReleaseInReview, rel.Status)
	repo.AssertExpectations(t)
}

func TestProjectService_CreateRelease_DefaultsToDraft(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "tenant1", "proj1").Return(&project.Project{ID: "proj1"}, nil)
	repo.On("CreateRelease", ctx, "tenant1", mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	rel, err := svc.CreateRelease(ctx, "tenant1", project.CreateReleaseRequest{ProjectID: "proj1", Label: "v1"})
	require.NoError(t, err)
	require.Equal(t, project.ReleaseDraft, rel.Status)
}

func TestProjectService_CreateRelease_Errors(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "tenant1", "missing").Return(nil, repository.ErrNotFound)

	svc := project.NewService(repo, nil)

	_, err := svc.CreateRelease(ctx, "tenant1", project.CreateReleaseRequest{ProjectID: "proj1", Label: "v1", Status: "SHIPPED"})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.CreateRelease(ctx, "tenant1", project.CreateReleaseRequest{ProjectID: "missing", Label: "v1"})
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	repo.AssertNotCalled(t, "CreateRelease", mock.Anything, mock.Anything, mock.Anything)
}
