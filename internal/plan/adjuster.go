package plan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/reviewloop/internal/errors"
	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
)

// Store is the plan persistence boundary the applier mutates through.
type Store interface {
	GetPlan(ctx context.Context, planID int64) (*models.StudyPlan, error)
	InsertTask(ctx context.Context, task models.PlanTask) (int64, error)
	ShiftIncompleteTasks(ctx context.Context, planID int64, days int) (int, error)
	GetAdjustmentByKey(ctx context.Context, key string) (*models.PlanAdjustment, error)
	CountAdjustmentsSince(ctx context.Context, planID int64, since time.Time) (int, error)
	LatestAdjustmentAt(ctx context.Context, planID int64) (*time.Time, error)
	InsertAdjustment(ctx context.Context, adj models.PlanAdjustment) error
}

// Config bounds how often adjustments may land on one plan.
type Config struct {
	MaxPerDay       int
	CooldownMinutes int
}

// DefaultConfig returns the adjustment limits used when none are supplied.
func DefaultConfig() Config {
	return Config{MaxPerDay: 3, CooldownMinutes: 60}
}

// Applier translates recommended actions into concrete study plan mutations.
// Applications are idempotent per trigger signature: replaying the same
// action for the same plan, categories, and UTC day affects nothing.
type Applier struct {
	store Store
	cfg   Config
}

// NewApplier creates an applier over the given plan store.
func NewApplier(store Store, cfg Config) *Applier {
	if cfg.MaxPerDay < 1 {
		cfg.MaxPerDay = DefaultConfig().MaxPerDay
	}
	return &Applier{store: store, cfg: cfg}
}

// Apply mutates the learner's study plan according to the recommended action.
// Returns PlanNotAdjustableError when the plan is missing, archived, or
// completed. A repeat call with an identical trigger signature returns the
// prior adjustment with Deduplicated set instead of mutating again.
func (a *Applier) Apply(ctx context.Context, learnerID, planID int64, action models.Action, severity models.Severity, categories []string, now time.Time) (*models.PlanAdjustmentResult, error) {
	log := logger.FromContext(ctx).WithPrefix("plan")

	if action == models.ActionNone {
		return &models.PlanAdjustmentResult{}, nil
	}

	p, err := a.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("fetch plan", err)
	}
	if p == nil {
		return nil, errors.NewPlanNotAdjustableError(planID, "plan does not exist")
	}
	if p.LearnerID != learnerID {
		return nil, errors.NewPlanNotAdjustableError(planID, "plan belongs to another learner")
	}
	if p.Status != models.PlanStatusActive {
		return nil, errors.NewPlanNotAdjustableError(planID, fmt.Sprintf("plan is %s", p.Status))
	}

	key := IdempotencyKey(planID, action, categories, now)
	if prior, err := a.store.GetAdjustmentByKey(ctx, key); err != nil {
		return nil, errors.NewStorageUnavailableError("check adjustment key", err)
	} else if prior != nil {
		log.Debug("adjustment already applied: key=%s", key)
		return &models.PlanAdjustmentResult{
			AdjustmentID:  prior.ID,
			TasksAffected: prior.TasksAffected,
			Deduplicated:  true,
		}, nil
	}

	if throttled, err := a.throttled(ctx, planID, now); err != nil {
		return nil, err
	} else if throttled {
		log.Info("adjustment throttled: plan_id=%d, action=%s", planID, action)
		return &models.PlanAdjustmentResult{Throttled: true}, nil
	}

	changes, affected, err := a.mutate(ctx, planID, action, severity, categories, now)
	if err != nil {
		return nil, err
	}

	adj := models.PlanAdjustment{
		ID:             uuid.NewString(),
		PlanID:         planID,
		LearnerID:      learnerID,
		Action:         action,
		Severity:       severity,
		IdempotencyKey: key,
		TasksAffected:  affected,
		AppliedAt:      now,
	}
	if err := a.store.InsertAdjustment(ctx, adj); err != nil {
		return nil, errors.NewStorageUnavailableError("record adjustment", err)
	}

	log.Info("plan adjusted: plan_id=%d, action=%s, severity=%s, tasks=%d", planID, action, severity, affected)

	return &models.PlanAdjustmentResult{
		AdjustmentID:  adj.ID,
		TasksAffected: affected,
		Changes:       changes,
	}, nil
}

func (a *Applier) throttled(ctx context.Context, planID int64, now time.Time) (bool, error) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	count, err := a.store.CountAdjustmentsSince(ctx, planID, dayStart)
	if err != nil {
		return false, errors.NewStorageUnavailableError("count adjustments", err)
	}
	if count >= a.cfg.MaxPerDay {
		return true, nil
	}

	if a.cfg.CooldownMinutes > 0 {
		last, err := a.store.LatestAdjustmentAt(ctx, planID)
		if err != nil {
			return false, errors.NewStorageUnavailableError("latest adjustment", err)
		}
		if last != nil && now.Sub(*last) < time.Duration(a.cfg.CooldownMinutes)*time.Minute {
			return true, nil
		}
	}
	return false, nil
}

func (a *Applier) mutate(ctx context.Context, planID int64, action models.Action, severity models.Severity, categories []string, now time.Time) ([]models.PlanChange, int, error) {
	switch action {
	case models.ActionInjectReview:
		return a.injectReviewTasks(ctx, planID, severity, categories, now)
	case models.ActionSlowPace:
		days := 1
		if severity == models.SeveritySevere {
			days = 2
		}
		shifted, err := a.store.ShiftIncompleteTasks(ctx, planID, days)
		if err != nil {
			return nil, 0, errors.NewStorageUnavailableError("shift tasks", err)
		}
		change := models.PlanChange{
			Type:   "task_reordered",
			Reason: fmt.Sprintf("pace slowed: %d incomplete tasks pushed %d day(s)", shifted, days),
		}
		return []models.PlanChange{change}, shifted, nil
	case models.ActionReinforceTopic:
		return a.injectReviewTasks(ctx, planID, severity, categories, now)
	default:
		return nil, 0, nil
	}
}

// injectReviewTasks inserts one review task per affected category, or a
// single general one when no categories are known. Severity sets urgency of
// the due date, not the count: the idempotency key already caps duplicates.
func (a *Applier) injectReviewTasks(ctx context.Context, planID int64, severity models.Severity, categories []string, now time.Time) ([]models.PlanChange, int, error) {
	due := now.AddDate(0, 0, 2)
	if severity == models.SeveritySevere {
		due = now.AddDate(0, 0, 1)
	}

	targets := categories
	if len(targets) == 0 {
		targets = []string{""}
	}

	var changes []models.PlanChange
	for _, category := range targets {
		title := "Review session"
		if category != "" {
			title = fmt.Sprintf("Review: %s", category)
		}
		id, err := a.store.InsertTask(ctx, models.PlanTask{
			PlanID:   planID,
			Title:    title,
			Category: category,
			TaskType: "review",
			DueAt:    due,
		})
		if err != nil {
			return nil, 0, errors.NewStorageUnavailableError("insert review task", err)
		}
		changes = append(changes, models.PlanChange{
			Type:   "task_added",
			TaskID: id,
			Reason: fmt.Sprintf("%s trigger injected review task", severity),
		})
	}
	return changes, len(changes), nil
}

// IdempotencyKey hashes the trigger signature: plan, action, affected
// categories, and the UTC day the trigger fired.
func IdempotencyKey(planID int64, action models.Action, categories []string, now time.Time) string {
	sorted := append([]string(nil), categories...)
	sort.Strings(sorted)
	payload := fmt.Sprintf("%d|%s|%s|%s", planID, action, strings.Join(sorted, ","), now.UTC().Format("2006-01-02"))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:16])
}
