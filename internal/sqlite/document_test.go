package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/prdinsights/internal/domain/document"
	"github.com/rpggio/prdinsights/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepository_CreateGetFindByHash(t *testing.T) {
	db := NewTestDB(t)
	seedRelease(t, db, "tenant1", "p1", "r1")
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	doc := &document.Document{
		ID:        "d1",
		ProjectID: "p1",
		ReleaseID: "r1",
		Name:      "checkout.md",
		Type:      document.TypePRD,
		Hash:      "abc",
		Content:   "# Checkout",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, "tenant1", doc))

	loaded, err := repo.Get(ctx, "tenant1", "d1")
	require.NoError(t, err)
	require.Equal(t, "tenant1", loaded.TenantID)
	require.Equal(t, doc.Content, loaded.Content)

	found, err := repo.FindByHash(ctx, "tenant1", "p1", "r1", "abc")
	require.NoError(t, err)
	require.Equal(t, "d1", found.ID)

	_, err = repo.FindByHash(ctx, "tenant1", "p1", "r1", "other")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Get(ctx, "tenant2", "d1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	dup := *doc
	dup.ID = "d2"
	require.ErrorIs(t, repo.Create(ctx, "tenant1", &dup), repository.ErrConflict)
}

func TestDocumentRepository_UpsertChunks(t *testing.T) {
	db := NewTestDB(t)
	seedRelease(t, db, "tenant1", "p1", "r1")
	seedDocument(t, db, "tenant1", "p1", "r1", "d1")
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertChunks(ctx, "d1", []document.Chunk{
		{Index: 1, Content: "## B"},
		{Index: 0, Content: "# A"},
	}))
	require.NoError(t, repo.UpsertChunks(ctx, "d1", []document.Chunk{{Index: 1, Content: "## B revised"}}))

	chunks, err := repo.ListChunks(ctx, "d1")
	require.NoError(t, err)
	require.Equal(t, []document.Chunk{{Index: 0, Content: "# A"}, {Index: 1, Content: "## B revised"}}, chunks)

	err = repo.UpsertChunks(ctx, "missing", []document.Chunk{{Index: 0, Content: "x"}})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestDocumentRepository_List(t *testing.T) {
	db := NewTestDB(t)
	seedRelease(t, db, "tenant1", "p1", "r1")
	seedRelease(t, db, "tenant1", "p2", "r2")
	seedDocument(t, db, "tenant1", "p1", "r1", "d1")
	seedDocument(t, db, "tenant1", "p2", "r2", "d2")
	repo := NewDocumentRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.UpsertChunks(ctx, "d1", []document.Chunk{{Index: 0, Content: "# A"}, {Index: 1, Content: "# B"}}))

	all, err := repo.List(ctx, "tenant1", document.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	filtered, err := repo.List(ctx, "tenant1", document.ListOptions{ReleaseID: "r1"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, 2, filtered[0].ChunkCount)

	limited, err := repo.List(ctx, "tenant1", document.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
