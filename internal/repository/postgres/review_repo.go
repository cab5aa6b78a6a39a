package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jwall29/swiply/internal/domain"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

// Submit is the review batch: review insert, rating-stat increment,
// reviewer-side completed flag, and the status write to complete, all
// in one transaction. No other code path writes status = complete.
func (r *ReviewRepo) Submit(ctx context.Context, rev *domain.Review, markRequesterDone bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning review tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews (id, request_id, reviewer_id, reviewee_id, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rev.ID, rev.RequestID, rev.ReviewerID, rev.RevieweeID, rev.Rating, rev.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rating_stats (user_id, rating_sum, total_reviews, average_rating)
		VALUES ($1, $2, 1, 0)
		ON CONFLICT (user_id)
		DO UPDATE SET rating_sum = rating_stats.rating_sum + $2,
			total_reviews = rating_stats.total_reviews + 1`,
		rev.RevieweeID, rev.Rating,
	)
	if err != nil {
		return err
	}

	flag := "swiper_review_completed"
	if markRequesterDone {
		flag = "requester_review_completed"
	}
	_, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE swipe_requests SET %s = TRUE, status = $1 WHERE id = $2`, flag),
		domain.StatusComplete, rev.RequestID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ReviewRepo) GetStats(ctx context.Context, userID uuid.UUID) (*domain.RatingStats, error) {
	var stats domain.RatingStats
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, rating_sum, total_reviews, average_rating FROM rating_stats WHERE user_id = $1`,
		userID,
	).Scan(&stats.UserID, &stats.RatingSum, &stats.TotalReviews, &stats.AverageRating)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &stats, err
}

func (r *ReviewRepo) UpdateAverage(ctx context.Context, userID uuid.UUID, avg float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE rating_stats SET average_rating = $1 WHERE user_id = $2`,
		avg, userID,
	)
	return err
}

func (r *ReviewRepo) AddReminder(ctx context.Context, userID, requestID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO review_reminders (user_id, request_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, request_id) DO NOTHING`,
		userID, requestID,
	)
	return err
}

func (r *ReviewRepo) DeleteReminder(ctx context.Context, userID, requestID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM review_reminders WHERE user_id = $1 AND request_id = $2`,
		userID, requestID,
	)
	return err
}

func (r *ReviewRepo) ListReminders(ctx context.Context, userID uuid.UUID) ([]domain.ReviewReminder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, request_id, created_at FROM review_reminders WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []domain.ReviewReminder
	for rows.Next() {
		var rem domain.ReviewReminder
		if err := rows.Scan(&rem.UserID, &rem.RequestID, &rem.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}
