package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
)

type curveRepository struct {
	db *sql.DB
}

// NewCurveRepository creates a new CurveRepository implementation
func NewCurveRepository(db *sql.DB) repository.CurveRepository {
	return &curveRepository{db: db}
}

func (r *curveRepository) Get(ctx context.Context, learnerID int64, topicID *int64) (*models.ForgettingCurve, error) {
	log := logger.FromContext(ctx).WithPrefix("curve_repo")
	log.Debug("getting cached curve: learner_id=%d", learnerID)

	var curve models.ForgettingCurve
	err := r.db.QueryRowContext(ctx, `
SELECT id, learner_id, topic_id, decay_constant, half_life, confidence, data_points, fitted_at
FROM forgetting_curves
WHERE learner_id = ? AND IFNULL(topic_id, 0) = IFNULL(?, 0)
`, learnerID, topicID).Scan(&curve.ID, &curve.LearnerID, &curve.TopicID, &curve.DecayConstant,
		&curve.HalfLife, &curve.Confidence, &curve.DataPoints, &curve.FittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get cached curve: %v", err)
		return nil, err
	}
	return &curve, nil
}

func (r *curveRepository) Upsert(ctx context.Context, curve models.ForgettingCurve) error {
	log := logger.FromContext(ctx).WithPrefix("curve_repo")
	log.Debug("caching curve: learner_id=%d, k=%.4f, confidence=%.2f", curve.LearnerID, curve.DecayConstant, curve.Confidence)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO forgetting_curves (learner_id, topic_id, decay_constant, half_life, confidence, data_points, fitted_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (learner_id, IFNULL(topic_id, 0)) DO UPDATE SET
    decay_constant = excluded.decay_constant,
    half_life = excluded.half_life,
    confidence = excluded.confidence,
    data_points = excluded.data_points,
    fitted_at = excluded.fitted_at
`, curve.LearnerID, curve.TopicID, curve.DecayConstant, curve.HalfLife, curve.Confidence, curve.DataPoints, curve.FittedAt)
	if err != nil {
		log.Error("failed to cache curve: %v", err)
	}
	return err
}

func (r *curveRepository) LearnerIDsWithObservations(ctx context.Context, minObservations int) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("curve_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT learner_id
FROM review_observations
GROUP BY learner_id
HAVING COUNT(*) >= ?
`, minObservations)
	if err != nil {
		log.Error("failed to list learners with observations: %v", err)
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
