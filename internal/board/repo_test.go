package board

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsboard/pkg/database"
	"opsboard/pkg/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.MigrateFrom(db, "../../docs/schema.sql"))
	return NewRepo(db)
}

func TestCategoryCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.InsertCategory(ctx, models.Category{
		Name:    "Turnos",
		Section: "inicio",
		Icon:    "calendar",
		Color:   "#ff8800",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Positive(t, saved.ID)
	assert.Equal(t, "Turnos", saved.Name)
	assert.Equal(t, "calendar", saved.Icon)
	assert.False(t, saved.CreatedAt.IsZero())

	updated, err := repo.UpdateCategory(ctx, saved.ID, map[string]any{"name": "Guardias", "bogus": "x"})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetCategory(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Guardias", got.Name)
	assert.Equal(t, "#ff8800", got.Color)

	deleted, err := repo.DeleteCategory(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err = repo.GetCategory(ctx, saved.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateCategoryNoKnownFields(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved, err := repo.InsertCategory(ctx, models.Category{Name: "Turnos", Section: "inicio"})
	require.NoError(t, err)

	updated, err := repo.UpdateCategory(ctx, saved.ID, map[string]any{"bogus": "x"})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestUpdateCategoryMissingRow(t *testing.T) {
	repo := newTestRepo(t)

	updated, err := repo.UpdateCategory(context.Background(), 999, map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestListCategoriesBySection(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, c := range []models.Category{
		{Name: "Turnos", Section: "inicio"},
		{Name: "Metas Q3", Section: "metas", CSVURL: "https://example.com/feed.csv"},
		{Name: "Enlaces", Section: "inicio"},
	} {
		_, err := repo.InsertCategory(ctx, c)
		require.NoError(t, err)
	}

	inicio, err := repo.ListCategories(ctx, "inicio")
	require.NoError(t, err)
	require.Len(t, inicio, 2)
	// insertion order
	assert.Equal(t, "Turnos", inicio[0].Name)
	assert.Equal(t, "Enlaces", inicio[1].Name)

	all, err := repo.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	metas, err := repo.ListCategories(ctx, "  metas ")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "https://example.com/feed.csv", metas[0].CSVURL)
}

func TestLinkCRUDAndFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.InsertCategory(ctx, models.Category{Name: "Turnos", Section: "inicio"})
	require.NoError(t, err)
	other, err := repo.InsertCategory(ctx, models.Category{Name: "Metas", Section: "metas"})
	require.NoError(t, err)

	l1, err := repo.InsertLink(ctx, models.Link{Title: "Panel", URL: "https://example.com/p", CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = repo.InsertLink(ctx, models.Link{Title: "Hoja", URL: "https://example.com/h", CategoryID: other.ID})
	require.NoError(t, err)

	byCategory, err := repo.ListLinks(ctx, cat.ID, "")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Panel", byCategory[0].Title)

	bySection, err := repo.ListLinks(ctx, 0, "metas")
	require.NoError(t, err)
	require.Len(t, bySection, 1)
	assert.Equal(t, "Hoja", bySection[0].Title)

	updated, err := repo.UpdateLink(ctx, l1.ID, map[string]any{"url": "https://example.com/p2"})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetLink(ctx, l1.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "https://example.com/p2", got.URL)

	deleted, err := repo.DeleteLink(ctx, l1.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestDeleteCategoryLeavesLinksInPlace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.InsertCategory(ctx, models.Category{Name: "Turnos", Section: "inicio"})
	require.NoError(t, err)
	link, err := repo.InsertLink(ctx, models.Link{Title: "Panel", URL: "https://example.com", CategoryID: cat.ID})
	require.NoError(t, err)

	deleted, err := repo.DeleteCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	// no cascade: the link survives with a dangling category id
	got, err := repo.GetLink(ctx, link.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cat.ID, got.CategoryID)
}
