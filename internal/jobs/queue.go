package jobs

import "github.com/vytor/reviewloop/internal/models"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	// EnqueueFeedbackEvent persists an audit record off the request path.
	// Best-effort: a full queue drops the event rather than blocking.
	EnqueueFeedbackEvent(event models.FeedbackEvent)
	// EnqueueCurveRefit rebuilds one learner's cached forgetting curve.
	EnqueueCurveRefit(learnerID int64, topicID *int64)
}
