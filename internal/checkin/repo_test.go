package checkin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classcheckin/internal/store"
)

func setupTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := store.NewDB(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestRepository_InsertAndList(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	a, err := repo.Insert(ctx, NewRecord{Name: "Loya Niu", Email: "zn23", Timestamp: 300})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	b, err := repo.Insert(ctx, NewRecord{Name: "Ada", Email: "ada@example.com", Timestamp: 100})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []Record{a, b}, all, "listed in insertion order")
}

func TestRepository_ListByEmail(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	for _, email := range []string{"x@example.com", "y@example.com", "x@example.com"} {
		_, err := repo.Insert(ctx, NewRecord{Name: "n", Email: email, Timestamp: 1})
		require.NoError(t, err)
	}

	xs, err := repo.List(ctx, "x@example.com")
	require.NoError(t, err)
	assert.Len(t, xs, 2)

	none, err := repo.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRepository_MigrateIsIdempotent(t *testing.T) {
	repo := setupTestRepository(t)
	require.NoError(t, repo.Migrate(context.Background()))
}

func TestRepository_RecentByEmail(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, NewRecord{Name: "n", Email: "e", Timestamp: 100})
	require.NoError(t, err)
	newer, err := repo.Insert(ctx, NewRecord{Name: "n", Email: "e", Timestamp: 200})
	require.NoError(t, err)

	got, err := repo.RecentByEmail(ctx, "e", 150)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer, *got)

	got, err = repo.RecentByEmail(ctx, "e", 201)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.RecentByEmail(ctx, "other", 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}
