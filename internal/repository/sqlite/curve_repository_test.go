package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository/sqlite"
	"github.com/vytor/reviewloop/internal/testutil"
)

func TestCurveRepository_GetMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewCurveRepository(db)

	curve, err := repo.Get(context.Background(), 999, nil)
	require.NoError(t, err)
	assert.Nil(t, curve)
}

func TestCurveRepository_UpsertReplacesExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewCurveRepository(db)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)
	fitted := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Upsert(ctx, models.ForgettingCurve{
		LearnerID:     learnerID,
		DecayConstant: 0.2,
		HalfLife:      3.47,
		Confidence:    0.5,
		DataPoints:    10,
		FittedAt:      fitted,
	}))

	// Second upsert for the same (learner, global) slot overwrites.
	require.NoError(t, repo.Upsert(ctx, models.ForgettingCurve{
		LearnerID:     learnerID,
		DecayConstant: 0.1,
		HalfLife:      6.93,
		Confidence:    0.7,
		DataPoints:    25,
		FittedAt:      fitted.Add(time.Hour),
	}))

	curve, err := repo.Get(ctx, learnerID, nil)
	require.NoError(t, err)
	require.NotNil(t, curve)
	assert.InDelta(t, 0.1, curve.DecayConstant, 1e-9)
	assert.Equal(t, 25, curve.DataPoints)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM forgetting_curves`).Scan(&count))
	assert.Equal(t, 1, count, "upsert must not accumulate rows")
}

func TestCurveRepository_TopicScopedSlots(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewCurveRepository(db)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)
	_, err := db.Exec(`INSERT INTO topics (name) VALUES ('algebra')`)
	require.NoError(t, err)
	topicID := int64(1)
	fitted := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, models.ForgettingCurve{
		LearnerID: learnerID, DecayConstant: 0.2, HalfLife: 3.47, Confidence: 0.5, FittedAt: fitted,
	}))
	require.NoError(t, repo.Upsert(ctx, models.ForgettingCurve{
		LearnerID: learnerID, TopicID: &topicID, DecayConstant: 0.4, HalfLife: 1.73, Confidence: 0.4, FittedAt: fitted,
	}))

	global, err := repo.Get(ctx, learnerID, nil)
	require.NoError(t, err)
	require.NotNil(t, global)
	assert.InDelta(t, 0.2, global.DecayConstant, 1e-9)

	scoped, err := repo.Get(ctx, learnerID, &topicID)
	require.NoError(t, err)
	require.NotNil(t, scoped)
	assert.InDelta(t, 0.4, scoped.DecayConstant, 1e-9)
}

func TestCurveRepository_LearnerIDsWithObservations(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := sqlite.NewCurveRepository(db)
	obsRepo := sqlite.NewObservationRepository(db)
	ctx := context.Background()

	busy := testutil.InsertLearner(t, db, "busy", 0)
	quiet := testutil.InsertLearner(t, db, "quiet", 0)
	busyItem := testutil.InsertItem(t, db, busy, models.ReviewItem{Front: "q", Back: "a"})
	quietItem := testutil.InsertItem(t, db, quiet, models.ReviewItem{Front: "q", Back: "a"})

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_, err := obsRepo.Append(ctx, models.ReviewObservation{
			LearnerID: busy, ItemID: busyItem, DaysSinceReview: 1, Quality: 4, ObservedAt: now,
		})
		require.NoError(t, err)
	}
	_, err := obsRepo.Append(ctx, models.ReviewObservation{
		LearnerID: quiet, ItemID: quietItem, DaysSinceReview: 1, Quality: 4, ObservedAt: now,
	})
	require.NoError(t, err)

	ids, err := repo.LearnerIDsWithObservations(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{busy}, ids)
}
