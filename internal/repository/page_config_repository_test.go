package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/program-discovery/internal/config"
	"github.com/iliyamo/program-discovery/internal/database"
	"github.com/iliyamo/program-discovery/internal/model"
)

func newTestRepo(t *testing.T) *PageConfigRepo {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "pages.db")}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, cfg.Driver))

	repo := NewPageConfigRepo(db)
	repo.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return repo
}

func TestPageConfigRepo_UpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pc := &model.PageConfig{
		Slug:                 "downtown",
		APIKey:               "secret",
		OrgIDs:               []string{"12", "14"},
		FacilityID:           "3",
		CacheTTLFull:         30 * time.Minute,
		CacheTTLAvailability: 45 * time.Second,
		ProgramFilterMode:    model.ProgramFilterExclude,
		ExcludedProgramIDs:   []string{"99"},
	}
	require.NoError(t, repo.Upsert(ctx, pc))

	got, err := repo.GetConfigBySlug(ctx, "downtown")
	require.NoError(t, err)
	assert.Equal(t, "secret", got.APIKey)
	assert.Equal(t, []string{"12", "14"}, got.OrgIDs)
	assert.Equal(t, "3", got.FacilityID)
	assert.Equal(t, 30*time.Minute, got.CacheTTLFull)
	assert.Equal(t, 45*time.Second, got.CacheTTLAvailability)
	assert.Equal(t, model.ProgramFilterExclude, got.ProgramFilterMode)
	assert.Nil(t, got.IncludedProgramIDs)
	assert.Equal(t, []string{"99"}, got.ExcludedProgramIDs)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got.UpdatedAt)

	pc.OrgIDs = []string{"12"}
	pc.ProgramFilterMode = model.ProgramFilterAll
	require.NoError(t, repo.Upsert(ctx, pc))

	got, err = repo.GetConfigBySlug(ctx, "downtown")
	require.NoError(t, err)
	assert.Equal(t, []string{"12"}, got.OrgIDs)
	assert.Equal(t, model.ProgramFilterAll, got.ProgramFilterMode)
}

func TestPageConfigRepo_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetConfigBySlug(context.Background(), "missing")
	require.ErrorIs(t, err, ErrPageConfigNotFound)
	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrPageConfigNotFound)
}

func TestPageConfigRepo_ListSlugsAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, slug := range []string{"north", "east", "south"} {
		require.NoError(t, repo.Upsert(ctx, &model.PageConfig{Slug: slug}))
	}
	slugs, err := repo.ListSlugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "north", "south"}, slugs)

	require.NoError(t, repo.Delete(ctx, "north"))
	slugs, err = repo.ListSlugs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "south"}, slugs)
}

func TestPageConfigRepo_UpsertRejectsEmptySlug(t *testing.T) {
	repo := newTestRepo(t)
	require.Error(t, repo.Upsert(context.Background(), &model.PageConfig{Slug: "  "}))
}
