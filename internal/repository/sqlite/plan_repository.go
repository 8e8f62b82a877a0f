package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
)

type planRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository implementation
func NewPlanRepository(db *sql.DB) repository.PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) GetPlan(ctx context.Context, planID int64) (*models.StudyPlan, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")
	log.Debug("getting plan: id=%d", planID)

	var p models.StudyPlan
	err := r.db.QueryRowContext(ctx, `
SELECT id, learner_id, name, status, created_at
FROM study_plans
WHERE id = ?
`, planID).Scan(&p.ID, &p.LearnerID, &p.Name, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("plan not found: id=%d", planID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get plan: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *planRepository) ActivePlan(ctx context.Context, learnerID int64) (*models.StudyPlan, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")

	var p models.StudyPlan
	err := r.db.QueryRowContext(ctx, `
SELECT id, learner_id, name, status, created_at
FROM study_plans
WHERE learner_id = ? AND status = 'active'
ORDER BY created_at DESC
LIMIT 1
`, learnerID).Scan(&p.ID, &p.LearnerID, &p.Name, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get active plan: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *planRepository) UpcomingTasks(ctx context.Context, planID int64) ([]models.PlanTask, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, plan_id, title, category, task_type, due_at, completed, order_index, created_at
FROM plan_tasks
WHERE plan_id = ? AND completed = 0
ORDER BY due_at ASC, order_index ASC
`, planID)
	if err != nil {
		log.Error("failed to query plan tasks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var tasks []models.PlanTask
	for rows.Next() {
		var t models.PlanTask
		if err := rows.Scan(&t.ID, &t.PlanID, &t.Title, &t.Category, &t.TaskType,
			&t.DueAt, &t.Completed, &t.OrderIndex, &t.CreatedAt); err != nil {
			log.Error("failed to scan plan task row: %v", err)
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *planRepository) InsertTask(ctx context.Context, task models.PlanTask) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")
	log.Debug("inserting plan task: plan_id=%d, title=%s", task.PlanID, task.Title)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO plan_tasks (plan_id, title, category, task_type, due_at, completed, order_index)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, task.PlanID, task.Title, task.Category, task.TaskType, task.DueAt, task.Completed, task.OrderIndex)
	if err != nil {
		log.Error("failed to insert plan task: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *planRepository) ShiftIncompleteTasks(ctx context.Context, planID int64, days int) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")
	log.Debug("shifting incomplete tasks: plan_id=%d, days=%d", planID, days)

	res, err := r.db.ExecContext(ctx, `
UPDATE plan_tasks
SET due_at = datetime(due_at, '+' || ? || ' days')
WHERE plan_id = ? AND completed = 0
`, days, planID)
	if err != nil {
		log.Error("failed to shift plan tasks: %v", err)
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (r *planRepository) GetAdjustmentByKey(ctx context.Context, key string) (*models.PlanAdjustment, error) {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")

	var adj models.PlanAdjustment
	err := r.db.QueryRowContext(ctx, `
SELECT id, plan_id, learner_id, action, severity, idempotency_key, tasks_affected, applied_at
FROM plan_adjustments
WHERE idempotency_key = ?
`, key).Scan(&adj.ID, &adj.PlanID, &adj.LearnerID, &adj.Action, &adj.Severity,
		&adj.IdempotencyKey, &adj.TasksAffected, &adj.AppliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get adjustment by key: %v", err)
		return nil, err
	}
	return &adj, nil
}

func (r *planRepository) CountAdjustmentsSince(ctx context.Context, planID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM plan_adjustments WHERE plan_id = ? AND applied_at >= ?
`, planID, since).Scan(&count)
	return count, err
}

func (r *planRepository) LatestAdjustmentAt(ctx context.Context, planID int64) (*time.Time, error) {
	var at sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT MAX(applied_at) FROM plan_adjustments WHERE plan_id = ?
`, planID).Scan(&at)
	if err != nil {
		return nil, err
	}
	if !at.Valid {
		return nil, nil
	}
	return &at.Time, nil
}

func (r *planRepository) InsertAdjustment(ctx context.Context, adj models.PlanAdjustment) error {
	log := logger.FromContext(ctx).WithPrefix("plan_repo")
	log.Debug("inserting adjustment: plan_id=%d, action=%s, key=%s", adj.PlanID, adj.Action, adj.IdempotencyKey)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO plan_adjustments (id, plan_id, learner_id, action, severity, idempotency_key, tasks_affected, applied_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, adj.ID, adj.PlanID, adj.LearnerID, adj.Action, adj.Severity, adj.IdempotencyKey, adj.TasksAffected, adj.AppliedAt)
	if err != nil {
		log.Error("failed to insert adjustment: %v", err)
	}
	return err
}
