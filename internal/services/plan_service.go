package services

import (
	"context"
	"time"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/plan"
)

// AdjustPlanRequest is a manual adjustment, e.g. triggered by an operator or
// a client acting on a previously returned recommendation.
type AdjustPlanRequest struct {
	LearnerID  int64           `json:"learner_id"`
	PlanID     int64           `json:"plan_id"`
	Action     models.Action   `json:"action"`
	Severity   models.Severity `json:"severity"`
	Categories []string        `json:"categories,omitempty"`
}

// PlanService handles study plan adjustment business logic
type PlanService interface {
	// Adjust applies the action to the plan. Unlike the automatic path in
	// SubmitAnswer, failures surface to the caller unmodified.
	Adjust(ctx context.Context, req AdjustPlanRequest) (*models.PlanAdjustmentResult, error)
}

type planService struct {
	applier *plan.Applier
	now     func() time.Time
}

// NewPlanService creates a new PlanService
func NewPlanService(applier *plan.Applier) PlanService {
	return &planService{applier: applier, now: time.Now}
}

func (s *planService) Adjust(ctx context.Context, req AdjustPlanRequest) (*models.PlanAdjustmentResult, error) {
	switch req.Action {
	case models.ActionInjectReview, models.ActionSlowPace, models.ActionReinforceTopic, models.ActionNone:
	default:
		return nil, errors.NewValidationError("action", "unknown action")
	}
	switch req.Severity {
	case models.SeverityMild, models.SeverityModerate, models.SeveritySevere, "":
	default:
		return nil, errors.NewValidationError("severity", "unknown severity")
	}

	return s.applier.Apply(ctx, req.LearnerID, req.PlanID, req.Action, req.Severity, req.Categories, s.now())
}
