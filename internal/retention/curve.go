package retention

import (
	"math"
	"time"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/models"
)

const (
	// DefaultMinObservations gates curve fitting; below it a curve would be
	// misleadingly confident.
	DefaultMinObservations = 5

	// minDecayConstant is the clamp applied when a degenerate fit produces a
	// non-positive k. Retention decays over time, never grows.
	minDecayConstant = 0.01
	// maxDecayConstant bounds implausibly fast forgetting from noisy fits.
	maxDecayConstant = 1.0

	// confidenceHalfCount is the sample count at which the count term of the
	// confidence score reaches 0.5. Confidence grows monotonically with
	// sample count and shrinks with regression residual.
	confidenceHalfCount = 10.0

	// degenerateFitConfidence is reported when the fit had to be clamped.
	degenerateFitConfidence = 0.1
)

// Estimator fits exponential forgetting curves from recall observations.
type Estimator struct {
	MinObservations int
}

// NewEstimator returns an estimator with the given data-sufficiency gate;
// values below 1 fall back to the default.
func NewEstimator(minObservations int) *Estimator {
	if minObservations < 1 {
		minObservations = DefaultMinObservations
	}
	return &Estimator{MinObservations: minObservations}
}

// BuildCurve fits retention ≈ e^(-k·t) to the observations via linear
// regression on ln(retention) vs elapsed days. Observations are grouped by
// whole days elapsed and each day's recall rate becomes one regression point,
// so a single lapse among many recalls does not dominate the fit. Returns an
// InsufficientDataError when fewer than MinObservations exist.
func (e *Estimator) BuildCurve(learnerID int64, topicID *int64, observations []models.ReviewObservation, now time.Time) (*models.ForgettingCurve, error) {
	if len(observations) < e.MinObservations {
		return nil, errors.NewInsufficientDataError(len(observations), e.MinObservations)
	}

	k, confidence := fitDecay(observations)

	return &models.ForgettingCurve{
		LearnerID:     learnerID,
		TopicID:       topicID,
		DecayConstant: k,
		HalfLife:      math.Ln2 / k,
		Confidence:    confidence,
		DataPoints:    len(observations),
		FittedAt:      now,
	}, nil
}

type regressionPoint struct {
	t   float64
	lnR float64
}

// fitDecay linearizes the exponential and solves the least-squares slope
// through the origin: k = -Σ(t·lnR) / Σ(t²).
func fitDecay(observations []models.ReviewObservation) (k, confidence float64) {
	points := recallRatePoints(observations)
	if len(points) < 2 {
		// Not enough distinct day buckets for a slope; fall back to a single
		// aggregate recall-rate point anchored at the mean elapsed time.
		points = aggregatePoint(observations)
	}

	var sumT2, sumTLnR float64
	for _, p := range points {
		sumT2 += p.t * p.t
		sumTLnR += p.t * p.lnR
	}

	if sumT2 == 0 {
		return minDecayConstant, degenerateFitConfidence
	}

	k = -sumTLnR / sumT2
	clamped := false
	if k < minDecayConstant {
		k = minDecayConstant
		clamped = true
	} else if k > maxDecayConstant {
		k = maxDecayConstant
		clamped = true
	}

	confidence = fitConfidence(points, k, len(observations))
	if clamped && confidence > degenerateFitConfidence {
		confidence = degenerateFitConfidence
	}
	return k, confidence
}

// recallRatePoints groups observations into whole-day buckets and converts
// each bucket's recall rate into a (t, ln R) regression point. Buckets with a
// recall rate of exactly 0 or 1 carry no slope information under the log
// transform and are nudged inward instead of dropped.
func recallRatePoints(observations []models.ReviewObservation) []regressionPoint {
	type bucket struct {
		recalled int
		total    int
	}
	buckets := make(map[int]*bucket)
	for _, obs := range observations {
		days := int(obs.DaysSinceReview)
		if days < 0 {
			continue
		}
		b := buckets[days]
		if b == nil {
			b = &bucket{}
			buckets[days] = b
		}
		b.total++
		if recalled(obs) {
			b.recalled++
		}
	}

	var points []regressionPoint
	for days, b := range buckets {
		if days == 0 || b.total == 0 {
			// t=0 contributes nothing to a through-origin slope.
			continue
		}
		// Laplace-style nudge keeps ln defined at the 0 and 1 extremes.
		rate := (float64(b.recalled) + 0.5) / (float64(b.total) + 1.0)
		points = append(points, regressionPoint{t: float64(days), lnR: math.Log(rate)})
	}
	return points
}

func aggregatePoint(observations []models.ReviewObservation) []regressionPoint {
	var sumDays float64
	var recalls int
	var counted int
	for _, obs := range observations {
		if obs.DaysSinceReview <= 0 {
			continue
		}
		counted++
		sumDays += obs.DaysSinceReview
		if recalled(obs) {
			recalls++
		}
	}
	if counted == 0 {
		return nil
	}
	rate := (float64(recalls) + 0.5) / (float64(counted) + 1.0)
	return []regressionPoint{{t: sumDays / float64(counted), lnR: math.Log(rate)}}
}

// fitConfidence combines the regression R² with a bounded sample-count term:
// n/(n+confidenceHalfCount). Monotone up in n, monotone down in residual.
func fitConfidence(points []regressionPoint, k float64, sampleCount int) float64 {
	countTerm := float64(sampleCount) / (float64(sampleCount) + confidenceHalfCount)

	if len(points) < 2 {
		return 0.3 * countTerm
	}

	var meanLnR float64
	for _, p := range points {
		meanLnR += p.lnR
	}
	meanLnR /= float64(len(points))

	var ssRes, ssTot float64
	for _, p := range points {
		predicted := -k * p.t
		ssRes += (p.lnR - predicted) * (p.lnR - predicted)
		ssTot += (p.lnR - meanLnR) * (p.lnR - meanLnR)
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}
	if r2 < 0 {
		r2 = 0
	}
	return r2 * countTerm
}

// recalled treats a graded quality at or above 3 as successful recall,
// matching the scheduler's passing threshold.
func recalled(obs models.ReviewObservation) bool {
	return obs.WasRecalled || obs.Quality >= 3
}
