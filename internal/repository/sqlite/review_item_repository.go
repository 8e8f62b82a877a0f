package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/reviewloop/internal/logger"
	"github.com/vytor/reviewloop/internal/models"
	"github.com/vytor/reviewloop/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

type reviewItemRepository struct {
	db *sql.DB
}

// NewReviewItemRepository creates a new ReviewItemRepository implementation
func NewReviewItemRepository(db *sql.DB) repository.ReviewItemRepository {
	return &reviewItemRepository{db: db}
}

const itemColumns = `id, learner_id, topic_id, front, back, ease_factor, interval_days, repetitions, difficulty, next_review_at, last_review_at, created_at`

func (r *reviewItemRepository) Get(ctx context.Context, id, learnerID int64) (*models.ReviewItem, error) {
	log := logger.FromContext(ctx).WithPrefix("item_repo")
	log.Debug("getting review item: id=%d, learner_id=%d", id, learnerID)

	var item models.ReviewItem
	err := r.db.QueryRowContext(ctx, `
SELECT `+itemColumns+`
FROM review_items
WHERE id = ? AND learner_id = ?
`, id, learnerID).Scan(scanTargets(&item)...)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("review item not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get review item: %v", err)
		return nil, err
	}
	return &item, nil
}

func (r *reviewItemRepository) Insert(ctx context.Context, item models.ReviewItem) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("item_repo")
	log.Debug("inserting review item: learner_id=%d", item.LearnerID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO review_items (learner_id, topic_id, front, back, ease_factor, interval_days, repetitions, difficulty, next_review_at, last_review_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, item.LearnerID, item.TopicID, item.Front, item.Back, item.EaseFactor, item.IntervalDays, item.Repetitions, item.Difficulty, item.NextReviewAt, item.LastReviewAt)
	if err != nil {
		log.Error("failed to insert review item: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get review item id: %v", err)
		return 0, err
	}
	log.Debug("review item inserted: id=%d", id)
	return id, nil
}

func (r *reviewItemRepository) Update(ctx context.Context, item models.ReviewItem) error {
	log := logger.FromContext(ctx).WithPrefix("item_repo")
	log.Debug("updating review item: id=%d, interval=%d, ease=%.2f", item.ID, item.IntervalDays, item.EaseFactor)

	_, err := r.db.ExecContext(ctx, `
UPDATE review_items
SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review_at = ?, last_review_at = ?
WHERE id = ?
`, item.EaseFactor, item.IntervalDays, item.Repetitions, item.NextReviewAt, item.LastReviewAt, item.ID)
	if err != nil {
		log.Error("failed to update review item: %v", err)
	}
	return err
}

func (r *reviewItemRepository) Reviewed(ctx context.Context, filter models.ItemFilter) ([]models.ReviewItem, error) {
	log := logger.FromContext(ctx).WithPrefix("item_repo")
	log.Debug("listing reviewed items: learner_id=%d", filter.LearnerID)

	query := sqlBuilder.Select(
		"id", "learner_id", "topic_id", "front", "back", "ease_factor",
		"interval_days", "repetitions", "difficulty", "next_review_at",
		"last_review_at", "created_at",
	).From("review_items").Where("last_review_at IS NOT NULL")

	if filter.LearnerID != 0 {
		query = query.Where(squirrel.Eq{"learner_id": filter.LearnerID})
	}
	if filter.TopicID != nil {
		query = query.Where(squirrel.Eq{"topic_id": *filter.TopicID})
	}
	if filter.DueBefore != nil {
		query = query.Where(squirrel.LtOrEq{"next_review_at": *filter.DueBefore})
	}

	query = query.OrderBy("next_review_at ASC", "id ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list reviewed items: %v", err)
		return nil, err
	}
	defer rows.Close()

	var items []models.ReviewItem
	for rows.Next() {
		var item models.ReviewItem
		if err := rows.Scan(scanTargets(&item)...); err != nil {
			log.Error("failed to scan review item row: %v", err)
			return nil, err
		}
		items = append(items, item)
	}
	log.Debug("found %d reviewed items", len(items))
	return items, rows.Err()
}

func scanTargets(item *models.ReviewItem) []any {
	return []any{
		&item.ID, &item.LearnerID, &item.TopicID, &item.Front, &item.Back,
		&item.EaseFactor, &item.IntervalDays, &item.Repetitions, &item.Difficulty,
		&item.NextReviewAt, &item.LastReviewAt, &item.CreatedAt,
	}
}
