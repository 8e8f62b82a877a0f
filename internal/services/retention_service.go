package services

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
	"github.com/vytor/reviewloop/internal/retention"
)

// observationFetchLimit bounds how much history one curve fit reads.
const observationFetchLimit = 100

// RetentionService exposes forgetting-curve fitting and retention queries
type RetentionService interface {
	// GetCurve returns the learner's forgetting curve, fitting and caching it
	// when the cached copy is missing or stale. Returns an
	// InsufficientDataError when too few observations exist.
	GetCurve(ctx context.Context, learnerID int64, topicID *int64) (*models.ForgettingCurve, error)
	GetDueItemsRanked(ctx context.Context, learnerID int64, targetRetention float64) ([]models.ItemWithUrgency, error)
	GetStats(ctx context.Context, learnerID int64) (*models.RetentionStats, error)
	RefitCurve(ctx context.Context, learnerID int64, topicID *int64) error
	RefreshAllCurves(ctx context.Context) error
}

// RetentionConfig tunes the service. MaxCurveAge is the cache staleness
// window; past it a curve is refitted on the next read.
type RetentionConfig struct {
	MinObservations int
	MaxCurveAge     time.Duration
	Predictor       retention.PredictorConfig

	// DefaultDecayConstant backs ranking when a learner has no fitted curve
	// yet (Ebbinghaus-like fallback, low confidence).
	DefaultDecayConstant float64
	DefaultConfidence    float64
}

// DefaultRetentionConfig returns the retention settings used when none are supplied.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		MinObservations:      retention.DefaultMinObservations,
		MaxCurveAge:          24 * time.Hour,
		Predictor:            retention.DefaultPredictorConfig(),
		DefaultDecayConstant: 0.3,
		DefaultConfidence:    0.3,
	}
}

type retentionService struct {
	cfg       RetentionConfig
	estimator *retention.Estimator
	items     repository.ReviewItemRepository
	obs       repository.ObservationRepository
	curves    repository.CurveRepository
	now       func() time.Time
}

// NewRetentionService creates a new RetentionService
func NewRetentionService(cfg RetentionConfig, items repository.ReviewItemRepository, obs repository.ObservationRepository, curves repository.CurveRepository) RetentionService {
	return &retentionService{
		cfg:       cfg,
		estimator: retention.NewEstimator(cfg.MinObservations),
		items:     items,
		obs:       obs,
		curves:    curves,
		now:       time.Now,
	}
}

func (s *retentionService) GetCurve(ctx context.Context, learnerID int64, topicID *int64) (*models.ForgettingCurve, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	cached, err := s.curves.Get(ctx, learnerID, topicID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch cached curve", err)
	}
	if cached != nil && now.Sub(cached.FittedAt) < s.cfg.MaxCurveAge {
		log.Debug("using cached curve: learner_id=%d, fitted_at=%v", learnerID, cached.FittedAt)
		return cached, nil
	}

	curve, err := s.fitCurve(ctx, learnerID, topicID, now)
	if err != nil {
		// A stale cached curve beats no curve when the refit cannot run, as
		// long as it still meets the current observation floor.
		if cached.HasEnoughData(s.cfg.MinObservations) && stderrors.Is(err, errors.NewInsufficientDataError(0, 0)) {
			log.Warn("refit lacks data, serving stale curve: learner_id=%d", learnerID)
			return cached, nil
		}
		return nil, err
	}
	return curve, nil
}

func (s *retentionService) fitCurve(ctx context.Context, learnerID int64, topicID *int64, now time.Time) (*models.ForgettingCurve, error) {
	log := logger.FromContext(ctx)

	observations, err := s.obs.ForLearner(ctx, learnerID, topicID, observationFetchLimit)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch observations", err)
	}

	curve, err := s.estimator.BuildCurve(learnerID, topicID, observations, now)
	if err != nil {
		return nil, err
	}

	log.Debug("curve fitted: learner_id=%d, k=%.4f, half_life=%.1f, confidence=%.2f",
		learnerID, curve.DecayConstant, curve.HalfLife, curve.Confidence)

	if err := s.curves.Upsert(ctx, *curve); err != nil {
		// Cache write failure degrades to refitting next time.
		log.Warn("failed to cache curve: %v", err)
	}
	return curve, nil
}

func (s *retentionService) GetDueItemsRanked(ctx context.Context, learnerID int64, targetRetention float64) ([]models.ItemWithUrgency, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	predictorCfg := s.cfg.Predictor
	if targetRetention > 0 && targetRetention < 1 {
		predictorCfg.TargetRetention = targetRetention
	}

	curve, err := s.GetCurve(ctx, learnerID, nil)
	if err != nil {
		if !stderrors.Is(err, errors.NewInsufficientDataError(0, 0)) {
			return nil, err
		}
		// No fitted curve yet: rank on the population-default decay so new
		// learners still get a usable queue, flagged with low confidence.
		curve = &models.ForgettingCurve{
			LearnerID:     learnerID,
			DecayConstant: s.cfg.DefaultDecayConstant,
			HalfLife:      halfLifeOf(s.cfg.DefaultDecayConstant),
			Confidence:    s.cfg.DefaultConfidence,
		}
		log.Debug("no fitted curve, using default decay: learner_id=%d", learnerID)
	}

	items, err := s.items.Reviewed(ctx, models.ItemFilter{LearnerID: learnerID})
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch reviewed items", err)
	}

	ranked := retention.RankDueItems(predictorCfg, items, curve, now)

	// Keep only items at or past the retention target; the rest can wait.
	due := ranked[:0]
	for _, item := range ranked {
		if item.PredictedRetention <= predictorCfg.TargetRetention {
			due = append(due, item)
		}
	}
	log.Debug("ranked due items: learner_id=%d, due=%d of %d", learnerID, len(due), len(ranked))
	return due, nil
}

func (s *retentionService) GetStats(ctx context.Context, learnerID int64) (*models.RetentionStats, error) {
	stats, err := s.obs.Stats(ctx, learnerID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch retention stats", err)
	}

	curve, err := s.GetCurve(ctx, learnerID, nil)
	if err == nil {
		stats.Curve = curve
	} else if !stderrors.Is(err, errors.NewInsufficientDataError(0, 0)) {
		return nil, err
	}
	return stats, nil
}

func (s *retentionService) RefitCurve(ctx context.Context, learnerID int64, topicID *int64) error {
	_, err := s.fitCurve(ctx, learnerID, topicID, s.now())
	if stderrors.Is(err, errors.NewInsufficientDataError(0, 0)) {
		// Not an error for a background refit; the learner just has no data.
		return nil
	}
	return err
}

// RefreshAllCurves refits the cached curve of every learner with enough
// observations. Invoked by the nightly schedule.
func (s *retentionService) RefreshAllCurves(ctx context.Context) error {
	log := logger.FromContext(ctx)

	ids, err := s.curves.LearnerIDsWithObservations(ctx, s.cfg.MinObservations)
	if err != nil {
		return errors.NewStorageUnavailableError("list learners for refresh", err)
	}

	refreshed := 0
	for _, id := range ids {
		if err := s.RefitCurve(ctx, id, nil); err != nil {
			log.Warn("failed to refresh curve for learner %d: %v", id, err)
			continue
		}
		refreshed++
	}
	log.Info("curve refresh completed: %d/%d learners", refreshed, len(ids))
	return nil
}

func halfLifeOf(k float64) float64 {
	if k <= 0 {
		return 0
	}
	return math.Ln2 / k
}
