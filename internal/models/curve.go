package models

import "time"

// ForgettingCurve is a fitted exponential decay model for one
// (learner, topic-or-global) pair. Derived state: rebuilt from observations on
// demand and cached with a staleness window, never updated incrementally.
type ForgettingCurve struct {
	ID            int64     `json:"id"`
	LearnerID     int64     `json:"learner_id"`
	TopicID       *int64    `json:"topic_id,omitempty"`
	DecayConstant float64   `json:"decay_constant"`
	HalfLife      float64   `json:"half_life"`
	Confidence    float64   `json:"confidence"`
	DataPoints    int       `json:"data_points"`
	FittedAt      time.Time `json:"fitted_at"`
}

// HasEnoughData reports whether the curve was fitted from at least the
// minimum observation count and can be trusted by callers.
func (c *ForgettingCurve) HasEnoughData(minObservations int) bool {
	return c != nil && c.DataPoints >= minObservations
}

type RetentionStats struct {
	TotalObservations      int              `json:"total_observations"`
	RecallRate             float64          `json:"recall_rate"`
	AvgDaysBetweenReviews  float64          `json:"avg_days_between_reviews"`
	AvgQuality             float64          `json:"avg_quality"`
	Curve                  *ForgettingCurve `json:"curve,omitempty"`
}
