package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/reviewloop/internal/repository/sqlite"
	"github.com/vytor/reviewloop/internal/testutil"
)

func TestLearnerRepository_GetMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewLearnerRepository(db)

	l, err := repo.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestLearnerRepository_UpsertIsStable(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewLearnerRepository(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, "ada")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateAbility(ctx, first.ID, 1.2))

	// A second upsert with the same name returns the same row, ability intact.
	second, err := repo.Upsert(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.InDelta(t, 1.2, second.AbilityEstimate, 1e-9)
}

func TestLearnerRepository_UpdateAbility(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewLearnerRepository(db)
	ctx := context.Background()

	l, err := repo.Upsert(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.AbilityEstimate)

	require.NoError(t, repo.UpdateAbility(ctx, l.ID, -0.8))

	got, err := repo.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.InDelta(t, -0.8, got.AbilityEstimate, 1e-9)
}
