package repository

import (
	"context"
	"time"

	"github.com/vytor/reviewloop/internal/models"
)

// LearnerRepository handles learner data access
type LearnerRepository interface {
	Get(ctx context.Context, id int64) (*models.Learner, error)
	Upsert(ctx context.Context, name string) (*models.Learner, error)
	UpdateAbility(ctx context.Context, id int64, ability float64) error
}

// ReviewItemRepository handles review item data access
type ReviewItemRepository interface {
	Get(ctx context.Context, id, learnerID int64) (*models.ReviewItem, error)
	Insert(ctx context.Context, item models.ReviewItem) (int64, error)
	Update(ctx context.Context, item models.ReviewItem) error
	Reviewed(ctx context.Context, filter models.ItemFilter) ([]models.ReviewItem, error)
}

// ObservationRepository is the append-only log backing forgetting-curve fits
type ObservationRepository interface {
	Append(ctx context.Context, obs models.ReviewObservation) (int64, error)
	ForLearner(ctx context.Context, learnerID int64, topicID *int64, limit int) ([]models.ReviewObservation, error)
	Stats(ctx context.Context, learnerID int64) (*models.RetentionStats, error)
}

// AnswerEventRepository handles raw answer event data access
type AnswerEventRepository interface {
	Insert(ctx context.Context, event models.AnswerEvent) (int64, error)
	Recent(ctx context.Context, learnerID, assessmentID int64, limit int) ([]models.AnswerEvent, error)
}

// FeedbackEventRepository persists the best-effort audit trail
type FeedbackEventRepository interface {
	Insert(ctx context.Context, event models.FeedbackEvent) error
}

// CurveRepository caches fitted forgetting curves
type CurveRepository interface {
	Get(ctx context.Context, learnerID int64, topicID *int64) (*models.ForgettingCurve, error)
	Upsert(ctx context.Context, curve models.ForgettingCurve) error
	LearnerIDsWithObservations(ctx context.Context, minObservations int) ([]int64, error)
}

// PlanRepository handles study plan data access. It satisfies plan.Store.
type PlanRepository interface {
	GetPlan(ctx context.Context, planID int64) (*models.StudyPlan, error)
	ActivePlan(ctx context.Context, learnerID int64) (*models.StudyPlan, error)
	UpcomingTasks(ctx context.Context, planID int64) ([]models.PlanTask, error)
	InsertTask(ctx context.Context, task models.PlanTask) (int64, error)
	ShiftIncompleteTasks(ctx context.Context, planID int64, days int) (int, error)
	GetAdjustmentByKey(ctx context.Context, key string) (*models.PlanAdjustment, error)
	CountAdjustmentsSince(ctx context.Context, planID int64, since time.Time) (int, error)
	LatestAdjustmentAt(ctx context.Context, planID int64) (*time.Time, error)
	InsertAdjustment(ctx context.Context, adj models.PlanAdjustment) error
}
