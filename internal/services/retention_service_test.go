package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository/sqlite"
	"github.com/vytor/reviewloop/internal/services"
	"github.com/vytor/reviewloop/internal/testutil"
)

func TestGetCurve_InsufficientData(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		sqlite.NewObservationRepository(db),
		sqlite.NewCurveRepository(db),
	)

	learnerID := testutil.InsertLearner(t, db, "ada", 0)

	_, err := svc.GetCurve(context.Background(), learnerID, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NewInsufficientDataError(0, 0)))
}

func TestGetCurve_FitsAndCaches(t *testing.T) {
	db := testutil.NewTestDB(t)
	obsRepo := sqlite.NewObservationRepository(db)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		obsRepo,
		sqlite.NewCurveRepository(db),
	)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)
	itemID := testutil.InsertItem(t, db, learnerID, models.ReviewItem{Front: "q", Back: "a"})

	now := time.Now().UTC()
	for i, days := range []float64{1, 2, 3, 5, 7, 10} {
		_, err := obsRepo.Append(ctx, models.ReviewObservation{
			LearnerID: learnerID, ItemID: itemID,
			DaysSinceReview: days,
			Quality:         5 - i%3,
			ObservedAt:      now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	curve, err := svc.GetCurve(ctx, learnerID, nil)
	require.NoError(t, err)
	require.NotNil(t, curve)
	assert.Greater(t, curve.DecayConstant, 0.0)
	assert.Equal(t, 6, curve.DataPoints)

	// A fresh fit was cached.
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM forgetting_curves WHERE learner_id = ?`, learnerID).Scan(&count))
	assert.Equal(t, 1, count)

	// The second read is served from cache without adding rows.
	again, err := svc.GetCurve(ctx, learnerID, nil)
	require.NoError(t, err)
	assert.Equal(t, curve.DecayConstant, again.DecayConstant)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM forgetting_curves WHERE learner_id = ?`, learnerID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetCurve_StaleCacheServedWhenRefitLacksData(t *testing.T) {
	db := testutil.NewTestDB(t)
	curveRepo := sqlite.NewCurveRepository(db)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		sqlite.NewObservationRepository(db),
		curveRepo,
	)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)

	// A cached curve past the staleness window, fitted from a healthy sample,
	// but with no observations left to refit from.
	stale := models.ForgettingCurve{
		LearnerID:     learnerID,
		DecayConstant: 0.2,
		HalfLife:      3.47,
		Confidence:    0.6,
		DataPoints:    8,
		FittedAt:      time.Now().UTC().AddDate(0, 0, -3),
	}
	require.NoError(t, curveRepo.Upsert(ctx, stale))

	curve, err := svc.GetCurve(ctx, learnerID, nil)
	require.NoError(t, err)
	require.NotNil(t, curve)
	assert.InDelta(t, 0.2, curve.DecayConstant, 1e-9, "the stale curve is served as-is")
}

func TestGetCurve_StaleCacheBelowFloorIsNotServed(t *testing.T) {
	db := testutil.NewTestDB(t)
	curveRepo := sqlite.NewCurveRepository(db)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		sqlite.NewObservationRepository(db),
		curveRepo,
	)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)

	// Cached before the observation floor was raised: too few data points to
	// trust now, so the data gate wins over the cache.
	stale := models.ForgettingCurve{
		LearnerID:     learnerID,
		DecayConstant: 0.2,
		HalfLife:      3.47,
		Confidence:    0.2,
		DataPoints:    2,
		FittedAt:      time.Now().UTC().AddDate(0, 0, -3),
	}
	require.NoError(t, curveRepo.Upsert(ctx, stale))

	_, err := svc.GetCurve(ctx, learnerID, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NewInsufficientDataError(0, 0)))
}

func TestGetDueItemsRanked_DefaultCurveForNewLearner(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		sqlite.NewObservationRepository(db),
		sqlite.NewCurveRepository(db),
	)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)
	now := time.Now().UTC().Truncate(time.Second)
	longAgo := now.AddDate(0, 0, -20)
	recently := now.Add(-time.Hour)

	// One item reviewed long ago (retention collapsed), one reviewed an hour
	// ago (still fresh, above target).
	testutil.InsertItem(t, db, learnerID, models.ReviewItem{Front: "stale", Back: "a", NextReviewAt: now, LastReviewAt: &longAgo})
	testutil.InsertItem(t, db, learnerID, models.ReviewItem{Front: "fresh", Back: "a", NextReviewAt: now.AddDate(0, 0, 5), LastReviewAt: &recently})

	due, err := svc.GetDueItemsRanked(ctx, learnerID, 0)
	require.NoError(t, err)
	require.Len(t, due, 1, "only the collapsed item is at or past the target")
	assert.Equal(t, "stale", due[0].Front)
	assert.Equal(t, "overdue", due[0].Urgency)
	assert.Less(t, due[0].Confidence, 0.5, "default-curve rankings carry low confidence")
}

func TestGetDueItemsRanked_TargetOverride(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		sqlite.NewObservationRepository(db),
		sqlite.NewCurveRepository(db),
	)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)
	now := time.Now().UTC().Truncate(time.Second)
	// Default decay 0.3: retention after 1 day is e^-0.3 ≈ 0.74.
	dayAgo := now.AddDate(0, 0, -1)
	testutil.InsertItem(t, db, learnerID, models.ReviewItem{Front: "q", Back: "a", NextReviewAt: now, LastReviewAt: &dayAgo})

	// Against the default target (0.85) the item is due.
	due, err := svc.GetDueItemsRanked(ctx, learnerID, 0)
	require.NoError(t, err)
	assert.Len(t, due, 1)

	// Against a looser target (0.5) it can wait.
	due, err = svc.GetDueItemsRanked(ctx, learnerID, 0.5)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestGetStats(t *testing.T) {
	db := testutil.NewTestDB(t)
	obsRepo := sqlite.NewObservationRepository(db)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		obsRepo,
		sqlite.NewCurveRepository(db),
	)
	ctx := context.Background()

	learnerID := testutil.InsertLearner(t, db, "ada", 0)
	itemID := testutil.InsertItem(t, db, learnerID, models.ReviewItem{Front: "q", Back: "a"})

	now := time.Now().UTC()
	for _, quality := range []int{5, 4} {
		_, err := obsRepo.Append(ctx, models.ReviewObservation{
			LearnerID: learnerID, ItemID: itemID, DaysSinceReview: 2, Quality: quality, ObservedAt: now,
		})
		require.NoError(t, err)
	}

	stats, err := svc.GetStats(ctx, learnerID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalObservations)
	assert.InDelta(t, 1.0, stats.RecallRate, 1e-9)
	assert.Nil(t, stats.Curve, "below the observation gate no curve is attached")
}

func TestRefitCurve_InsufficientDataIsSilent(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		sqlite.NewObservationRepository(db),
		sqlite.NewCurveRepository(db),
	)

	learnerID := testutil.InsertLearner(t, db, "ada", 0)
	assert.NoError(t, svc.RefitCurve(context.Background(), learnerID, nil),
		"background refits swallow the data gate")
}

func TestRefreshAllCurves(t *testing.T) {
	db := testutil.NewTestDB(t)
	obsRepo := sqlite.NewObservationRepository(db)
	svc := services.NewRetentionService(
		services.DefaultRetentionConfig(),
		sqlite.NewReviewItemRepository(db),
		obsRepo,
		sqlite.NewCurveRepository(db),
	)
	ctx := context.Background()

	busy := testutil.InsertLearner(t, db, "busy", 0)
	testutil.InsertLearner(t, db, "quiet", 0)
	itemID := testutil.InsertItem(t, db, busy, models.ReviewItem{Front: "q", Back: "a"})

	now := time.Now().UTC()
	for i := 0; i < 6; i++ {
		_, err := obsRepo.Append(ctx, models.ReviewObservation{
			LearnerID: busy, ItemID: itemID,
			DaysSinceReview: float64(i + 1), Quality: 4, ObservedAt: now,
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.RefreshAllCurves(ctx))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM forgetting_curves`).Scan(&count))
	assert.Equal(t, 1, count, "only the learner with enough observations gets a curve")
}
