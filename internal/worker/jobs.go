package worker

import (
	"context"

	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
)

// PersistFeedbackEventJob writes one audit record. Best-effort: the pool logs
// failures and the triggering answer submission is never affected.
type PersistFeedbackEventJob struct {
	Repo  repository.FeedbackEventRepository
	Event models.FeedbackEvent
}

func (j *PersistFeedbackEventJob) Name() string { return "persist_feedback_event" }

func (j *PersistFeedbackEventJob) Run(ctx context.Context) error {
	return j.Repo.Insert(ctx, j.Event)
}

// CurveRefitter is implemented by the retention service.
type CurveRefitter interface {
	RefitCurve(ctx context.Context, learnerID int64, topicID *int64) error
}

// RefitCurveJob rebuilds one learner's cached forgetting curve.
type RefitCurveJob struct {
	Refitter  CurveRefitter
	LearnerID int64
	TopicID   *int64
}

func (j *RefitCurveJob) Name() string { return "refit_curve" }

func (j *RefitCurveJob) Run(ctx context.Context) error {
	return j.Refitter.RefitCurve(ctx, j.LearnerID, j.TopicID)
}
