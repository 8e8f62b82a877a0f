package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
)

type answerEventRepository struct {
	db *sql.DB
}

// NewAnswerEventRepository creates a new AnswerEventRepository implementation
func NewAnswerEventRepository(db *sql.DB) repository.AnswerEventRepository {
	return &answerEventRepository{db: db}
}

func (r *answerEventRepository) Insert(ctx context.Context, event models.AnswerEvent) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("event_repo")
	log.Debug("inserting answer event: learner_id=%d, assessment_id=%d, correct=%t", event.LearnerID, event.AssessmentID, event.IsCorrect)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO answer_events (learner_id, assessment_id, item_id, quality, is_correct, category, time_seconds, answered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, event.LearnerID, event.AssessmentID, event.ItemID, event.Quality, event.IsCorrect, event.Category, event.TimeSeconds, event.AnsweredAt)
	if err != nil {
		log.Error("failed to insert answer event: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

// Recent returns the last limit events for the window, oldest first so the
// caller can append in chronological order.
func (r *answerEventRepository) Recent(ctx context.Context, learnerID, assessmentID int64, limit int) ([]models.AnswerEvent, error) {
	log := logger.FromContext(ctx).WithPrefix("event_repo")
	log.Debug("fetching recent answer events: learner_id=%d, assessment_id=%d, limit=%d", learnerID, assessmentID, limit)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, learner_id, assessment_id, item_id, quality, is_correct, category, time_seconds, answered_at
FROM (
    SELECT id, learner_id, assessment_id, item_id, quality, is_correct, category, time_seconds, answered_at
    FROM answer_events
    WHERE learner_id = ? AND assessment_id = ?
    ORDER BY answered_at DESC, id DESC
    LIMIT ?
)
ORDER BY answered_at ASC, id ASC
`, learnerID, assessmentID, limit)
	if err != nil {
		log.Error("failed to query answer events: %v", err)
		return nil, err
	}
	defer rows.Close()

	var events []models.AnswerEvent
	for rows.Next() {
		var e models.AnswerEvent
		if err := rows.Scan(&e.ID, &e.LearnerID, &e.AssessmentID, &e.ItemID,
			&e.Quality, &e.IsCorrect, &e.Category, &e.TimeSeconds, &e.AnsweredAt); err != nil {
			log.Error("failed to scan answer event row: %v", err)
			return nil, err
		}
		events = append(events, e)
	}
	log.Debug("found %d answer events", len(events))
	return events, rows.Err()
}

type feedbackEventRepository struct {
	db *sql.DB
}

// NewFeedbackEventRepository creates a new FeedbackEventRepository implementation
func NewFeedbackEventRepository(db *sql.DB) repository.FeedbackEventRepository {
	return &feedbackEventRepository{db: db}
}

func (r *feedbackEventRepository) Insert(ctx context.Context, event models.FeedbackEvent) error {
	log := logger.FromContext(ctx).WithPrefix("feedback_repo")
	log.Debug("inserting feedback event: id=%s, action=%s", event.ID, event.Action)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedback_events (id, learner_id, assessment_id, triggers_fired, top_severity, action, accuracy, trend, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, event.ID, event.LearnerID, event.AssessmentID, event.TriggersFired, event.TopSeverity, event.Action, event.Accuracy, event.Trend, event.CreatedAt)
	if err != nil {
		log.Error("failed to insert feedback event: %v", err)
	}
	return err
}
