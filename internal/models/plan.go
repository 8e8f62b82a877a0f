package models

import "time"

// PlanStatus is the lifecycle state of a study plan. Only active plans
// accept adjustments.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusArchived  PlanStatus = "archived"
	PlanStatusCompleted PlanStatus = "completed"
)

type StudyPlan struct {
	ID        int64      `json:"id"`
	LearnerID int64      `json:"learner_id"`
	Name      string     `json:"name"`
	Status    PlanStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

type PlanTask struct {
	ID         int64      `json:"id"`
	PlanID     int64      `json:"plan_id"`
	Title      string     `json:"title"`
	Category   string     `json:"category,omitempty"`
	TaskType   string     `json:"task_type"`
	DueAt      time.Time  `json:"due_at"`
	Completed  bool       `json:"completed"`
	OrderIndex int        `json:"order_index"`
	CreatedAt  time.Time  `json:"created_at"`
}

// PlanAdjustment records one applied adjustment. IdempotencyKey dedupes
// repeat applications of the same trigger signature.
type PlanAdjustment struct {
	ID             string    `json:"id"`
	PlanID         int64     `json:"plan_id"`
	LearnerID      int64     `json:"learner_id"`
	Action         Action    `json:"action"`
	Severity       Severity  `json:"severity"`
	IdempotencyKey string    `json:"idempotency_key"`
	TasksAffected  int       `json:"tasks_affected"`
	AppliedAt      time.Time `json:"applied_at"`
}

type PlanChange struct {
	Type   string `json:"type"`
	TaskID int64  `json:"task_id,omitempty"`
	Reason string `json:"reason"`
}

type PlanAdjustmentResult struct {
	AdjustmentID  string       `json:"adjustment_id"`
	TasksAffected int          `json:"tasks_affected"`
	Changes       []PlanChange `json:"changes"`
	Deduplicated  bool         `json:"deduplicated"`
	Throttled     bool         `json:"throttled"`
}
