package services

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/feedback"
	"github.com/vytor/reviewloop/internal/jobs"
	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/plan"
	"github.com/vytor/reviewloop/internal/repository"
	"github.com/vytor/reviewloop/internal/scheduler"
)

// SubmitAnswerRequest carries one answer outcome into the feedback loop.
type SubmitAnswerRequest struct {
	LearnerID    int64   `json:"learner_id"`
	AssessmentID int64   `json:"assessment_id"`
	ItemID       int64   `json:"item_id"`
	Quality      int     `json:"quality"`
	Category     string  `json:"category"`
	TimeSeconds  float64 `json:"time_seconds"`
}

// SubmitAnswerResult is the composed output: new scheduling state, trigger
// detection outcome, and whatever plan adjustment was applied.
type SubmitAnswerResult struct {
	Item       models.ReviewItem            `json:"item"`
	Trigger    feedback.Result              `json:"trigger"`
	Adjustment *models.PlanAdjustmentResult `json:"adjustment,omitempty"`
}

// CreateItemRequest creates a review item seeded with an ability-gap EF.
type CreateItemRequest struct {
	LearnerID  int64   `json:"learner_id"`
	TopicID    *int64  `json:"topic_id,omitempty"`
	Front      string  `json:"front"`
	Back       string  `json:"back"`
	Difficulty float64 `json:"difficulty"`
}

// ReviewService handles answer submission and scheduling business logic
type ReviewService interface {
	// SubmitAnswer runs the explicit feedback chain: validate, reschedule the
	// item, append an observation, detect triggers over the recent window,
	// apply any recommended plan adjustment, and enqueue the audit record.
	SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResult, error)
	PreviewIntervals(ctx context.Context, learnerID, itemID int64) (*scheduler.Preview, error)
	CreateItem(ctx context.Context, req CreateItemRequest) (*models.ReviewItem, error)
}

type reviewService struct {
	schedCfg scheduler.Config
	detector *feedback.Detector
	applier  *plan.Applier
	learners repository.LearnerRepository
	items    repository.ReviewItemRepository
	obs      repository.ObservationRepository
	events   repository.AnswerEventRepository
	plans    repository.PlanRepository
	queue    jobs.JobQueue
	now      func() time.Time

	// Serializes window updates per (learner, assessment) so racing
	// submissions (e.g. a flaky-network retry) cannot interleave and corrupt
	// the trend computation.
	windowLocks sync.Map
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	schedCfg scheduler.Config,
	detector *feedback.Detector,
	applier *plan.Applier,
	learners repository.LearnerRepository,
	items repository.ReviewItemRepository,
	obs repository.ObservationRepository,
	events repository.AnswerEventRepository,
	plans repository.PlanRepository,
	queue jobs.JobQueue,
) ReviewService {
	return &reviewService{
		schedCfg: schedCfg,
		detector: detector,
		applier:  applier,
		learners: learners,
		items:    items,
		obs:      obs,
		events:   events,
		plans:    plans,
		queue:    queue,
		now:      time.Now,
	}
}

func (s *reviewService) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("submitting answer: learner_id=%d, item_id=%d, quality=%d", req.LearnerID, req.ItemID, req.Quality)

	// Reject before touching any state.
	if req.Quality < 0 || req.Quality > 5 {
		return nil, errors.NewInvalidQualityError(req.Quality)
	}

	learner, err := s.learners.Get(ctx, req.LearnerID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch learner", err)
	}
	if learner == nil {
		return nil, errors.NewNotFoundError("learner", req.LearnerID)
	}

	item, err := s.items.Get(ctx, req.ItemID, req.LearnerID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch review item", err)
	}
	if item == nil {
		return nil, errors.NewNotFoundError("review item", req.ItemID)
	}

	now := s.now()
	daysSince := 0.0
	if item.LastReviewAt != nil {
		daysSince = now.Sub(*item.LastReviewAt).Hours() / 24
		if daysSince < 0 {
			daysSince = 0
		}
	}

	next, err := scheduler.ComputeNextState(s.schedCfg, scheduler.StateOf(*item), req.Quality, learner.AbilityEstimate, now)
	if err != nil {
		return nil, err
	}

	item.EaseFactor = next.EaseFactor
	item.IntervalDays = next.IntervalDays
	item.Repetitions = next.Repetitions
	item.NextReviewAt = next.NextReviewAt
	item.LastReviewAt = &now

	if err := s.items.Update(ctx, *item); err != nil {
		return nil, errors.NewStorageUnavailableError("persist item state", err)
	}

	log.Debug("item rescheduled: interval=%d days, ease=%.2f, repetitions=%d",
		item.IntervalDays, item.EaseFactor, item.Repetitions)

	if _, err := s.obs.Append(ctx, models.ReviewObservation{
		LearnerID:       req.LearnerID,
		TopicID:         item.TopicID,
		ItemID:          item.ID,
		DaysSinceReview: daysSince,
		Quality:         req.Quality,
		WasRecalled:     req.Quality >= scheduler.PassingQuality,
		ObservedAt:      now,
	}); err != nil {
		return nil, errors.NewStorageUnavailableError("append observation", err)
	}

	trigger, err := s.runDetection(ctx, req, item, now)
	if err != nil {
		return nil, err
	}

	result := &SubmitAnswerResult{Item: *item, Trigger: trigger}

	if trigger.RecommendedAction != models.ActionNone {
		result.Adjustment = s.applyAdjustment(ctx, req.LearnerID, trigger, now)
	}

	s.queue.EnqueueFeedbackEvent(models.FeedbackEvent{
		ID:            uuid.NewString(),
		LearnerID:     req.LearnerID,
		AssessmentID:  req.AssessmentID,
		TriggersFired: len(trigger.Triggers),
		TopSeverity:   trigger.Severity,
		Action:        trigger.RecommendedAction,
		Accuracy:      trigger.Accuracy,
		Trend:         trigger.Trend,
		CreatedAt:     now,
	})
	s.queue.EnqueueCurveRefit(req.LearnerID, item.TopicID)

	return result, nil
}

// runDetection appends the answer event and re-derives the sliding window
// under the per-key lock, then runs the pure detector over it.
func (s *reviewService) runDetection(ctx context.Context, req SubmitAnswerRequest, item *models.ReviewItem, now time.Time) (feedback.Result, error) {
	mu := s.lockFor(req.LearnerID, req.AssessmentID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.events.Insert(ctx, models.AnswerEvent{
		LearnerID:    req.LearnerID,
		AssessmentID: req.AssessmentID,
		ItemID:       req.ItemID,
		Quality:      req.Quality,
		IsCorrect:    req.Quality >= scheduler.PassingQuality,
		Category:     req.Category,
		TimeSeconds:  req.TimeSeconds,
		AnsweredAt:   now,
	}); err != nil {
		return feedback.Result{}, errors.NewStorageUnavailableError("persist answer event", err)
	}

	windowSize := s.detectorWindowSize()
	events, err := s.events.Recent(ctx, req.LearnerID, req.AssessmentID, windowSize)
	if err != nil {
		return feedback.Result{}, errors.NewStorageUnavailableError("fetch recent answer events", err)
	}

	window := feedback.NewWindow(windowSize, events)
	return s.detector.Detect(window), nil
}

// applyAdjustment routes the recommended action at the learner's active plan.
// Failures here degrade to no adjustment: the scheduling update already
// committed and must not be rolled back by plan trouble.
func (s *reviewService) applyAdjustment(ctx context.Context, learnerID int64, trigger feedback.Result, now time.Time) *models.PlanAdjustmentResult {
	log := logger.FromContext(ctx)

	activePlan, err := s.plans.ActivePlan(ctx, learnerID)
	if err != nil {
		log.Warn("failed to look up active plan: %v", err)
		return nil
	}
	if activePlan == nil {
		log.Debug("no active plan to adjust: learner_id=%d", learnerID)
		return nil
	}

	var categories []string
	if len(trigger.Triggers) > 0 {
		categories = trigger.Triggers[0].Categories
	}

	adjustment, err := s.applier.Apply(ctx, learnerID, activePlan.ID, trigger.RecommendedAction, trigger.Severity, categories, now)
	if err != nil {
		if stderrors.Is(err, errors.NewPlanNotAdjustableError(0, "")) {
			log.Warn("plan not adjustable: %v", err)
			return nil
		}
		log.Error("plan adjustment failed: %v", err)
		return nil
	}
	return adjustment
}

func (s *reviewService) PreviewIntervals(ctx context.Context, learnerID, itemID int64) (*scheduler.Preview, error) {
	learner, err := s.learners.Get(ctx, learnerID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch learner", err)
	}
	if learner == nil {
		return nil, errors.NewNotFoundError("learner", learnerID)
	}

	item, err := s.items.Get(ctx, itemID, learnerID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch review item", err)
	}
	if item == nil {
		return nil, errors.NewNotFoundError("review item", itemID)
	}

	preview := scheduler.PreviewIntervals(s.schedCfg, scheduler.StateOf(*item), learner.AbilityEstimate, s.now())
	return &preview, nil
}

func (s *reviewService) CreateItem(ctx context.Context, req CreateItemRequest) (*models.ReviewItem, error) {
	if req.Front == "" || req.Back == "" {
		return nil, errors.NewValidationError("front/back", "must not be empty")
	}

	learner, err := s.learners.Get(ctx, req.LearnerID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch learner", err)
	}
	if learner == nil {
		return nil, errors.NewNotFoundError("learner", req.LearnerID)
	}

	now := s.now()
	item := models.ReviewItem{
		LearnerID:    req.LearnerID,
		TopicID:      req.TopicID,
		Front:        req.Front,
		Back:         req.Back,
		EaseFactor:   scheduler.InitialEaseFactor(learner.AbilityEstimate, req.Difficulty),
		Difficulty:   req.Difficulty,
		NextReviewAt: now,
		CreatedAt:    now,
	}

	id, err := s.items.Insert(ctx, item)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("insert review item", err)
	}
	item.ID = id
	return &item, nil
}

func (s *reviewService) lockFor(learnerID, assessmentID int64) *sync.Mutex {
	key := [2]int64{learnerID, assessmentID}
	mu, _ := s.windowLocks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *reviewService) detectorWindowSize() int {
	return s.detector.WindowSize()
}
