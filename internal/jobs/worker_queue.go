package jobs

import (
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
	"github.com/vytor/reviewloop/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool         *worker.Pool
	feedbackRepo repository.FeedbackEventRepository
	refitter     worker.CurveRefitter
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, feedbackRepo repository.FeedbackEventRepository, refitter worker.CurveRefitter) JobQueue {
	return &WorkerQueue{
		pool:         pool,
		feedbackRepo: feedbackRepo,
		refitter:     refitter,
	}
}

func (q *WorkerQueue) EnqueueFeedbackEvent(event models.FeedbackEvent) {
	q.pool.TrySubmit(&worker.PersistFeedbackEventJob{
		Repo:  q.feedbackRepo,
		Event: event,
	})
}

func (q *WorkerQueue) EnqueueCurveRefit(learnerID int64, topicID *int64) {
	q.pool.TrySubmit(&worker.RefitCurveJob{
		Refitter:  q.refitter,
		LearnerID: learnerID,
		TopicID:   topicID,
	})
}
