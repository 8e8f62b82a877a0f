package models

import "time"

// Severity of a detected trigger.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities for precedence decisions. Higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	default:
		return 0
	}
}

// TriggerKind identifies the pattern that fired.
type TriggerKind string

const (
	TriggerAccuracyDrop  TriggerKind = "accuracy_drop"
	TriggerStreakFailure TriggerKind = "streak_failure"
)

// Action recommended in response to a trigger.
type Action string

const (
	ActionNone           Action = "none"
	ActionInjectReview   Action = "inject_review"
	ActionSlowPace       Action = "slow_pace"
	ActionReinforceTopic Action = "reinforce_topic"
)

// AnswerEvent is one answer outcome flowing into the feedback loop.
type AnswerEvent struct {
	ID           int64     `json:"id"`
	LearnerID    int64     `json:"learner_id"`
	AssessmentID int64     `json:"assessment_id"`
	ItemID       int64     `json:"item_id"`
	Quality      int       `json:"quality"`
	IsCorrect    bool      `json:"is_correct"`
	Category     string    `json:"category,omitempty"`
	TimeSeconds  float64   `json:"time_seconds"`
	AnsweredAt   time.Time `json:"answered_at"`
}

// DetectedTrigger is the detector's output for one fired pattern.
type DetectedTrigger struct {
	Kind       TriggerKind `json:"kind"`
	Severity   Severity    `json:"severity"`
	Value      float64     `json:"value"`
	Threshold  float64     `json:"threshold"`
	Categories []string    `json:"categories,omitempty"`
}

// FeedbackEvent is the persisted audit record for one answer-submission pass
// through the feedback loop. Persistence is best-effort.
type FeedbackEvent struct {
	ID            string    `json:"id"`
	LearnerID     int64     `json:"learner_id"`
	AssessmentID  int64     `json:"assessment_id"`
	TriggersFired int       `json:"triggers_fired"`
	TopSeverity   Severity  `json:"top_severity,omitempty"`
	Action        Action    `json:"action"`
	Accuracy      float64   `json:"accuracy"`
	Trend         string    `json:"trend"`
	CreatedAt     time.Time `json:"created_at"`
}
