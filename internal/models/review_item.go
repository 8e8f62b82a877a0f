package models

import "time"

// ReviewItem is a single unit under spaced repetition. EaseFactor never drops
// below 1.3 and repetitions reset to 0 on a failed review; both are enforced
// by the scheduler, never by callers mutating fields directly.
type ReviewItem struct {
	ID           int64      `json:"id"`
	LearnerID    int64      `json:"learner_id"`
	TopicID      *int64     `json:"topic_id,omitempty"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	Repetitions  int        `json:"repetitions"`
	Difficulty   float64    `json:"difficulty"`
	NextReviewAt time.Time  `json:"next_review_at"`
	LastReviewAt *time.Time `json:"last_review_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ReviewObservation is one append-only data point for forgetting-curve fits.
type ReviewObservation struct {
	ID              int64     `json:"id"`
	LearnerID       int64     `json:"learner_id"`
	TopicID         *int64    `json:"topic_id,omitempty"`
	ItemID          int64     `json:"item_id"`
	DaysSinceReview float64   `json:"days_since_review"`
	Quality         int       `json:"quality"`
	WasRecalled     bool      `json:"was_recalled"`
	ObservedAt      time.Time `json:"observed_at"`
}

// ItemFilter narrows review item queries. Zero values mean no constraint.
type ItemFilter struct {
	LearnerID int64
	TopicID   *int64
	DueBefore *time.Time
	Limit     int
}

type ItemWithUrgency struct {
	ReviewItem
	PredictedRetention float64 `json:"predicted_retention"`
	Urgency            string  `json:"urgency"`
	Confidence         float64 `json:"confidence"`
}
