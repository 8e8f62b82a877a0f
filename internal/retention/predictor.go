package retention

import (
	"math"
	"sort"
	"time"

	"github.com/vytor/reviewloop/internal/models"
)

// Urgency buckets, ordered from most to least pressing.
const (
	UrgencyOverdue = "overdue"
	UrgencyDueSoon = "due_soon"
	UrgencyOptimal = "optimal"
	UrgencyEarly   = "early"
)

// PredictorConfig holds the tunable prediction thresholds. TargetRetention is
// the retention fraction at which a review is considered optimally timed;
// Tolerance widens the optimal window on either side (as a fraction of t*).
type PredictorConfig struct {
	TargetRetention float64
	Tolerance       float64
}

// DefaultPredictorConfig returns the thresholds used when none are supplied.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		TargetRetention: 0.85,
		Tolerance:       0.15,
	}
}

// Prediction is the ephemeral result of applying a curve to an elapsed time.
type Prediction struct {
	Retention        float64   `json:"retention"`
	Confidence       float64   `json:"confidence"`
	Urgency          string    `json:"urgency"`
	OptimalReviewAt  time.Time `json:"optimal_review_at"`
	DaysUntilOptimal float64   `json:"days_until_optimal"`
}

// Predict evaluates retention = e^(-k·t) for the given elapsed days, clamped
// to [0,1], and classifies urgency against the optimal review time
// t* = -ln(target)/k. Pure function of its inputs.
func Predict(cfg PredictorConfig, curve *models.ForgettingCurve, daysSinceReview float64, now time.Time) Prediction {
	if daysSinceReview < 0 {
		daysSinceReview = 0
	}

	k := curve.DecayConstant
	retention := math.Exp(-k * daysSinceReview)
	if retention > 1 {
		retention = 1
	}
	if retention < 0 {
		retention = 0
	}

	optimalDays := -math.Log(cfg.TargetRetention) / k
	tolerance := optimalDays * cfg.Tolerance
	daysUntil := optimalDays - daysSinceReview

	var urgency string
	switch {
	case daysSinceReview > optimalDays+tolerance:
		urgency = UrgencyOverdue
	case daysSinceReview >= optimalDays-tolerance:
		urgency = UrgencyOptimal
	case daysSinceReview >= optimalDays*0.5:
		urgency = UrgencyDueSoon
	default:
		urgency = UrgencyEarly
	}

	optimalAt := now
	if daysUntil > 0 {
		optimalAt = now.Add(time.Duration(daysUntil * 24 * float64(time.Hour)))
	}

	if daysUntil < 0 {
		daysUntil = 0
	}

	return Prediction{
		Retention:        retention,
		Confidence:       curve.Confidence,
		Urgency:          urgency,
		OptimalReviewAt:  optimalAt,
		DaysUntilOptimal: daysUntil,
	}
}

// RankDueItems orders items most-at-risk first: ascending predicted
// retention, ties broken by earliest next review date, then by ID. The result
// is fully determined by its inputs.
func RankDueItems(cfg PredictorConfig, items []models.ReviewItem, curve *models.ForgettingCurve, now time.Time) []models.ItemWithUrgency {
	ranked := make([]models.ItemWithUrgency, 0, len(items))
	for _, item := range items {
		prediction := Predict(cfg, curve, daysSince(item, now), now)
		ranked = append(ranked, models.ItemWithUrgency{
			ReviewItem:         item,
			PredictedRetention: prediction.Retention,
			Urgency:            prediction.Urgency,
			Confidence:         prediction.Confidence,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].PredictedRetention != ranked[j].PredictedRetention {
			return ranked[i].PredictedRetention < ranked[j].PredictedRetention
		}
		if !ranked[i].NextReviewAt.Equal(ranked[j].NextReviewAt) {
			return ranked[i].NextReviewAt.Before(ranked[j].NextReviewAt)
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func daysSince(item models.ReviewItem, now time.Time) float64 {
	if item.LastReviewAt == nil {
		return 0
	}
	return now.Sub(*item.LastReviewAt).Hours() / 24
}
