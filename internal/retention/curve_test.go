package retention_test

import (
	stderrors "errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/retention"
)

var fitNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// obsAt builds n observations at the given elapsed days, of which recalledN
// were successful recalls.
func obsAt(days float64, n, recalledN int) []models.ReviewObservation {
	out := make([]models.ReviewObservation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ReviewObservation{
			DaysSinceReview: days,
			WasRecalled:     i < recalledN,
		})
	}
	return out
}

func TestBuildCurve_InsufficientData(t *testing.T) {
	est := retention.NewEstimator(5)

	_, err := est.BuildCurve(1, nil, obsAt(2, 4, 3), fitNow)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.NewInsufficientDataError(0, 0)),
		"error should be the insufficient-data kind")

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, 422, appErr.Status)
}

func TestBuildCurve_ExactlyMinObservations(t *testing.T) {
	est := retention.NewEstimator(5)

	curve, err := est.BuildCurve(1, nil, obsAt(3, 5, 4), fitNow)
	require.NoError(t, err)
	assert.Equal(t, 5, curve.DataPoints)
	assert.Equal(t, fitNow, curve.FittedAt)
}

func TestBuildCurve_RecoversDecayRate(t *testing.T) {
	est := retention.NewEstimator(5)

	// Synthesize recall rates that follow e^(-0.2t) closely: at t days out of
	// 20 observations, about 20*e^(-0.2t) were recalled.
	k := 0.2
	var observations []models.ReviewObservation
	for _, days := range []float64{1, 2, 4, 7} {
		total := 20
		recalls := int(math.Round(float64(total) * math.Exp(-k*days)))
		observations = append(observations, obsAt(days, total, recalls)...)
	}

	curve, err := est.BuildCurve(1, nil, observations, fitNow)
	require.NoError(t, err)
	assert.InDelta(t, k, curve.DecayConstant, 0.05, "fitted k should be near the true decay rate")
	assert.InDelta(t, math.Ln2/curve.DecayConstant, curve.HalfLife, 1e-9)
	assert.Greater(t, curve.Confidence, 0.5, "a clean fit over many samples should be confident")
}

func TestBuildCurve_DecayClampedLow(t *testing.T) {
	est := retention.NewEstimator(5)

	// Perfect recall everywhere: the nudged rates sit just below 1, so the raw
	// slope is tiny and the clamp to the floor kicks in.
	var observations []models.ReviewObservation
	observations = append(observations, obsAt(30, 2, 2)...)
	observations = append(observations, obsAt(60, 2, 2)...)
	observations = append(observations, obsAt(90, 2, 2)...)

	curve, err := est.BuildCurve(1, nil, observations, fitNow)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, curve.DecayConstant, 0.01)
	assert.LessOrEqual(t, curve.DecayConstant, 1.0)
}

func TestBuildCurve_DecayClampedHigh(t *testing.T) {
	est := retention.NewEstimator(5)

	// Total forgetting by day 1: raw k explodes past the cap.
	var observations []models.ReviewObservation
	observations = append(observations, obsAt(1, 10, 0)...)
	observations = append(observations, obsAt(2, 10, 0)...)

	curve, err := est.BuildCurve(1, nil, observations, fitNow)
	require.NoError(t, err)
	assert.Equal(t, 1.0, curve.DecayConstant, "k is capped")
	assert.LessOrEqual(t, curve.Confidence, 0.1, "clamped fits report low confidence")
}

func TestBuildCurve_SameDayObservationsOnly(t *testing.T) {
	est := retention.NewEstimator(5)

	// All observations at t=0 carry no slope information.
	curve, err := est.BuildCurve(1, nil, obsAt(0, 8, 6), fitNow)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, curve.DecayConstant, 0.01)
	assert.LessOrEqual(t, curve.Confidence, 0.3, "a slopeless fit cannot be confident")
}

func TestBuildCurve_ConfidenceGrowsWithSamples(t *testing.T) {
	est := retention.NewEstimator(5)

	small, err := est.BuildCurve(1, nil, append(obsAt(2, 3, 2), obsAt(5, 3, 1)...), fitNow)
	require.NoError(t, err)

	var many []models.ReviewObservation
	many = append(many, obsAt(2, 30, 20)...)
	many = append(many, obsAt(5, 30, 10)...)
	large, err := est.BuildCurve(1, nil, many, fitNow)
	require.NoError(t, err)

	assert.Greater(t, large.Confidence, small.Confidence,
		"more samples with the same shape should raise confidence")
}

func TestBuildCurve_QualityCountsAsRecall(t *testing.T) {
	est := retention.NewEstimator(5)

	// Graded observations: quality >= 3 is a recall even when WasRecalled is
	// unset.
	var observations []models.ReviewObservation
	for i := 0; i < 6; i++ {
		observations = append(observations, models.ReviewObservation{
			DaysSinceReview: 3,
			Quality:         4,
		})
	}

	curve, err := est.BuildCurve(1, nil, observations, fitNow)
	require.NoError(t, err)
	// High recall rate at t=3 implies slow decay.
	assert.Less(t, curve.DecayConstant, 0.3)
}

func TestNewEstimator_DefaultsGate(t *testing.T) {
	assert.Equal(t, retention.DefaultMinObservations, retention.NewEstimator(0).MinObservations)
	assert.Equal(t, 3, retention.NewEstimator(3).MinObservations)
}
