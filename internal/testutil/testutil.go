package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vytor/reviewloop/internal/db"
	"github.com/vytor/reviewloop/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database.DB
}

// InsertLearner inserts a learner row and returns its ID.
func InsertLearner(t *testing.T, database *sql.DB, name string, ability float64) int64 {
	t.Helper()

	res, err := database.Exec(
		`INSERT INTO learners (name, ability_estimate) VALUES (?, ?)`,
		name, ability,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertItem inserts a review item with sane defaults and returns its ID.
func InsertItem(t *testing.T, database *sql.DB, learnerID int64, item models.ReviewItem) int64 {
	t.Helper()

	if item.EaseFactor == 0 {
		item.EaseFactor = 2.5
	}
	if item.NextReviewAt.IsZero() {
		item.NextReviewAt = time.Now().UTC()
	}
	res, err := database.Exec(
		`INSERT INTO review_items (learner_id, topic_id, front, back, difficulty, ease_factor, interval_days, repetitions, next_review_at, last_review_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		learnerID, item.TopicID, item.Front, item.Back, item.Difficulty,
		item.EaseFactor, item.IntervalDays, item.Repetitions,
		item.NextReviewAt, item.LastReviewAt,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertPlan inserts a study plan and returns its ID.
func InsertPlan(t *testing.T, database *sql.DB, learnerID int64, status models.PlanStatus) int64 {
	t.Helper()

	res, err := database.Exec(
		`INSERT INTO study_plans (learner_id, name, status) VALUES (?, ?, ?)`,
		learnerID, "test plan", status,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	t.Helper()
	require.NoError(t, closer.Close())
}
