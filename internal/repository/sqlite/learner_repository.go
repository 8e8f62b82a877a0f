package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
)

type learnerRepository struct {
	db *sql.DB
}

// NewLearnerRepository creates a new LearnerRepository implementation
func NewLearnerRepository(db *sql.DB) repository.LearnerRepository {
	return &learnerRepository{db: db}
}

func (r *learnerRepository) Get(ctx context.Context, id int64) (*models.Learner, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("getting learner: id=%d", id)

	var l models.Learner
	err := r.db.QueryRowContext(ctx, `
SELECT id, name, ability_estimate, created_at
FROM learners
WHERE id = ?
`, id).Scan(&l.ID, &l.Name, &l.AbilityEstimate, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("learner not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get learner: %v", err)
		return nil, err
	}
	return &l, nil
}

func (r *learnerRepository) Upsert(ctx context.Context, name string) (*models.Learner, error) {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("upserting learner: name=%s", name)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO learners (name) VALUES (?)
ON CONFLICT (name) DO NOTHING
`, name)
	if err != nil {
		log.Error("failed to upsert learner: %v", err)
		return nil, err
	}

	var l models.Learner
	err = r.db.QueryRowContext(ctx, `
SELECT id, name, ability_estimate, created_at FROM learners WHERE name = ?
`, name).Scan(&l.ID, &l.Name, &l.AbilityEstimate, &l.CreatedAt)
	if err != nil {
		log.Error("failed to load upserted learner: %v", err)
		return nil, err
	}
	return &l, nil
}

func (r *learnerRepository) UpdateAbility(ctx context.Context, id int64, ability float64) error {
	log := logger.FromContext(ctx).WithPrefix("learner_repo")
	log.Debug("updating learner ability: id=%d, ability=%.2f", id, ability)

	_, err := r.db.ExecContext(ctx, `
UPDATE learners SET ability_estimate = ? WHERE id = ?
`, ability, id)
	if err != nil {
		log.Error("failed to update learner ability: %v", err)
	}
	return err
}
