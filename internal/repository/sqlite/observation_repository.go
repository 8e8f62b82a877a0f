package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
)

type observationRepository struct {
	db *sql.DB
}

// NewObservationRepository creates a new ObservationRepository implementation
func NewObservationRepository(db *sql.DB) repository.ObservationRepository {
	return &observationRepository{db: db}
}

func (r *observationRepository) Append(ctx context.Context, obs models.ReviewObservation) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("observation_repo")
	log.Debug("appending observation: learner_id=%d, item_id=%d, days=%.1f", obs.LearnerID, obs.ItemID, obs.DaysSinceReview)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO review_observations (learner_id, topic_id, item_id, days_since_review, quality, was_recalled, observed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, obs.LearnerID, obs.TopicID, obs.ItemID, obs.DaysSinceReview, obs.Quality, obs.WasRecalled, obs.ObservedAt)
	if err != nil {
		log.Error("failed to append observation: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *observationRepository) ForLearner(ctx context.Context, learnerID int64, topicID *int64, limit int) ([]models.ReviewObservation, error) {
	log := logger.FromContext(ctx).WithPrefix("observation_repo")
	log.Debug("fetching observations: learner_id=%d", learnerID)

	query := sqlBuilder.Select(
		"id", "learner_id", "topic_id", "item_id", "days_since_review",
		"quality", "was_recalled", "observed_at",
	).From("review_observations").Where(squirrel.Eq{"learner_id": learnerID})

	if topicID != nil {
		query = query.Where(squirrel.Eq{"topic_id": *topicID})
	}

	query = query.OrderBy("observed_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query observations: %v", err)
		return nil, err
	}
	defer rows.Close()

	var observations []models.ReviewObservation
	for rows.Next() {
		var obs models.ReviewObservation
		if err := rows.Scan(&obs.ID, &obs.LearnerID, &obs.TopicID, &obs.ItemID,
			&obs.DaysSinceReview, &obs.Quality, &obs.WasRecalled, &obs.ObservedAt); err != nil {
			log.Error("failed to scan observation row: %v", err)
			return nil, err
		}
		observations = append(observations, obs)
	}
	log.Debug("found %d observations", len(observations))
	return observations, rows.Err()
}

func (r *observationRepository) Stats(ctx context.Context, learnerID int64) (*models.RetentionStats, error) {
	log := logger.FromContext(ctx).WithPrefix("observation_repo")
	log.Debug("computing retention stats: learner_id=%d", learnerID)

	var stats models.RetentionStats
	var recallRate, avgDays, avgQuality sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       AVG(CASE WHEN was_recalled = 1 OR quality >= 3 THEN 1.0 ELSE 0.0 END),
       AVG(days_since_review),
       AVG(quality)
FROM review_observations
WHERE learner_id = ?
`, learnerID).Scan(&stats.TotalObservations, &recallRate, &avgDays, &avgQuality)
	if err != nil {
		log.Error("failed to compute retention stats: %v", err)
		return nil, err
	}
	stats.RecallRate = recallRate.Float64
	stats.AvgDaysBetweenReviews = avgDays.Float64
	stats.AvgQuality = avgQuality.Float64
	return &stats, nil
}
