package services_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/feedback"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/plan"
	"github.com/vytor/reviewloop/internal/repository/sqlite"
	"github.com/vytor/reviewloop/internal/scheduler"
	"github.com/vytor/reviewloop/internal/services"
	"github.com/vytor/reviewloop/internal/testutil"
)

// recordingQueue captures enqueued jobs instead of running them.
type recordingQueue struct {
	feedbackEvents []models.FeedbackEvent
	refits         []int64
}

func (q *recordingQueue) EnqueueFeedbackEvent(event models.FeedbackEvent) {
	q.feedbackEvents = append(q.feedbackEvents, event)
}

func (q *recordingQueue) EnqueueCurveRefit(learnerID int64, _ *int64) {
	q.refits = append(q.refits, learnerID)
}

func newReviewService(t *testing.T) (services.ReviewService, *recordingQueue, *testDB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	planRepo := sqlite.NewPlanRepository(db)
	queue := &recordingQueue{}

	svc := services.NewReviewService(
		scheduler.DefaultConfig(),
		feedback.NewDetector(feedback.DefaultConfig()),
		plan.NewApplier(planRepo, plan.DefaultConfig()),
		sqlite.NewLearnerRepository(db),
		sqlite.NewReviewItemRepository(db),
		sqlite.NewObservationRepository(db),
		sqlite.NewAnswerEventRepository(db),
		planRepo,
		queue,
	)
	return svc, queue, &testDB{t: t, db: db}
}

func TestSubmitAnswer_InvalidQuality(t *testing.T) {
	svc, _, _ := newReviewService(t)

	for _, quality := range []int{-1, 6} {
		_, err := svc.SubmitAnswer(context.Background(), services.SubmitAnswerRequest{
			LearnerID: 1, AssessmentID: 1, ItemID: 1, Quality: quality,
		})
		require.Error(t, err)
		var appErr *errors.AppError
		require.True(t, stderrors.As(err, &appErr))
		assert.Equal(t, errors.ErrCodeInvalidQuality, appErr.Code)
	}
}

func TestSubmitAnswer_LearnerNotFound(t *testing.T) {
	svc, _, _ := newReviewService(t)

	_, err := svc.SubmitAnswer(context.Background(), services.SubmitAnswerRequest{
		LearnerID: 404, AssessmentID: 1, ItemID: 1, Quality: 4,
	})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NewNotFoundError("", nil)))
}

func TestSubmitAnswer_ItemNotFound(t *testing.T) {
	svc, _, tdb := newReviewService(t)
	learnerID := tdb.insertLearner("ada", 0)

	_, err := svc.SubmitAnswer(context.Background(), services.SubmitAnswerRequest{
		LearnerID: learnerID, AssessmentID: 1, ItemID: 404, Quality: 4,
	})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NewNotFoundError("", nil)))
}

func TestSubmitAnswer_ReschedulesItem(t *testing.T) {
	svc, queue, tdb := newReviewService(t)
	ctx := context.Background()

	learnerID := tdb.insertLearner("ada", 0)
	itemID := tdb.insertItem(learnerID, models.ReviewItem{Front: "q", Back: "a", EaseFactor: 2.5})

	result, err := svc.SubmitAnswer(ctx, services.SubmitAnswerRequest{
		LearnerID: learnerID, AssessmentID: 1, ItemID: itemID, Quality: 4, Category: "algebra",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Item.Repetitions, "first successful review")
	assert.Equal(t, 1, result.Item.IntervalDays)
	require.NotNil(t, result.Item.LastReviewAt)
	assert.False(t, result.Trigger.Triggered)
	assert.Nil(t, result.Adjustment)

	// The scheduling update was persisted.
	var repetitions int
	tdb.queryRow(`SELECT repetitions FROM review_items WHERE id = ?`, itemID).mustScan(&repetitions)
	assert.Equal(t, 1, repetitions)

	// An observation was appended and the audit chain enqueued.
	var obsCount int
	tdb.queryRow(`SELECT COUNT(*) FROM review_observations WHERE learner_id = ?`, learnerID).mustScan(&obsCount)
	assert.Equal(t, 1, obsCount)
	require.Len(t, queue.feedbackEvents, 1)
	assert.Equal(t, models.ActionNone, queue.feedbackEvents[0].Action)
	assert.Equal(t, []int64{learnerID}, queue.refits)
}

func TestSubmitAnswer_SevereStreakAdjustsPlan(t *testing.T) {
	svc, queue, tdb := newReviewService(t)
	ctx := context.Background()

	learnerID := tdb.insertLearner("ada", 0)
	itemID := tdb.insertItem(learnerID, models.ReviewItem{Front: "q", Back: "a", EaseFactor: 2.5})
	planID := tdb.insertPlan(learnerID, models.PlanStatusActive)

	var last *services.SubmitAnswerResult
	for i := 0; i < 5; i++ {
		var err error
		last, err = svc.SubmitAnswer(ctx, services.SubmitAnswerRequest{
			LearnerID: learnerID, AssessmentID: 7, ItemID: itemID, Quality: 0, Category: "algebra",
		})
		require.NoError(t, err)
	}

	require.True(t, last.Trigger.Triggered)
	assert.Equal(t, models.SeveritySevere, last.Trigger.Severity)
	assert.Equal(t, models.ActionInjectReview, last.Trigger.RecommendedAction)

	require.NotNil(t, last.Adjustment)
	assert.NotEmpty(t, last.Adjustment.AdjustmentID)
	assert.Equal(t, 1, last.Adjustment.TasksAffected)

	var taskCount int
	tdb.queryRow(`SELECT COUNT(*) FROM plan_tasks WHERE plan_id = ? AND task_type = 'review'`, planID).mustScan(&taskCount)
	assert.Equal(t, 1, taskCount, "a review task was injected into the plan")

	assert.Len(t, queue.feedbackEvents, 5, "every submission leaves an audit record")
	assert.Equal(t, models.ActionInjectReview, queue.feedbackEvents[4].Action)
}

func TestSubmitAnswer_NoActivePlanStillSucceeds(t *testing.T) {
	svc, _, tdb := newReviewService(t)
	ctx := context.Background()

	learnerID := tdb.insertLearner("ada", 0)
	itemID := tdb.insertItem(learnerID, models.ReviewItem{Front: "q", Back: "a", EaseFactor: 2.5})

	var last *services.SubmitAnswerResult
	for i := 0; i < 5; i++ {
		var err error
		last, err = svc.SubmitAnswer(ctx, services.SubmitAnswerRequest{
			LearnerID: learnerID, AssessmentID: 7, ItemID: itemID, Quality: 0,
		})
		require.NoError(t, err, "scheduling must not fail on plan trouble")
	}

	assert.True(t, last.Trigger.Triggered)
	assert.Nil(t, last.Adjustment, "nothing to adjust without an active plan")
}

func TestCreateItem_AbilityGapSeedsEaseFactor(t *testing.T) {
	svc, _, tdb := newReviewService(t)
	ctx := context.Background()

	strong := tdb.insertLearner("strong", 2.0)
	weak := tdb.insertLearner("weak", -2.0)

	easy, err := svc.CreateItem(ctx, services.CreateItemRequest{
		LearnerID: strong, Front: "q", Back: "a", Difficulty: 0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 2.9, easy.EaseFactor, 1e-9, "able learner, easy item")

	hard, err := svc.CreateItem(ctx, services.CreateItemRequest{
		LearnerID: weak, Front: "q", Back: "a", Difficulty: 0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.4, hard.EaseFactor, 1e-9, "struggling learner starts with short intervals")
}

func TestCreateItem_Validation(t *testing.T) {
	svc, _, tdb := newReviewService(t)
	learnerID := tdb.insertLearner("ada", 0)

	_, err := svc.CreateItem(context.Background(), services.CreateItemRequest{
		LearnerID: learnerID, Front: "", Back: "a",
	})
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
}

func TestPreviewIntervals_DoesNotMutate(t *testing.T) {
	svc, queue, tdb := newReviewService(t)
	ctx := context.Background()

	learnerID := tdb.insertLearner("ada", 0)
	itemID := tdb.insertItem(learnerID, models.ReviewItem{
		Front: "q", Back: "a", EaseFactor: 2.5, IntervalDays: 10, Repetitions: 4,
	})

	preview, err := svc.PreviewIntervals(ctx, learnerID, itemID)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.Again)
	assert.True(t, preview.Hard <= preview.Good && preview.Good <= preview.Easy)

	var repetitions int
	tdb.queryRow(`SELECT repetitions FROM review_items WHERE id = ?`, itemID).mustScan(&repetitions)
	assert.Equal(t, 4, repetitions, "previewing commits nothing")
	assert.Empty(t, queue.feedbackEvents, "previewing enqueues nothing")
}
