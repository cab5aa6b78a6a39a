package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jwall29/swiply/internal/domain"
)

type RequestRepo struct {
	pool *pgxpool.Pool
}

func NewRequestRepo(pool *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{pool: pool}
}

const requestColumns = `id, requester_id, swiper_id, location, meeting_time, status,
	start_task_name, reminder_task_name,
	requester_review_completed, swiper_review_completed, created_at`

func (r *RequestRepo) Create(ctx context.Context, req *domain.SwipeRequest) error {
	query := `
		INSERT INTO swipe_requests (id, requester_id, swiper_id, location, meeting_time, status,
			start_task_name, reminder_task_name,
			requester_review_completed, swiper_review_completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, query,
		req.ID, req.RequesterID, req.SwiperID, req.Location, req.MeetingTime, req.Status,
		req.StartTaskName, req.ReminderTaskName,
		req.RequesterReviewCompleted, req.SwiperReviewCompleted, req.CreatedAt,
	)
	return err
}

func (r *RequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.SwipeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM swipe_requests WHERE id = $1`
	var req domain.SwipeRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.RequesterID, &req.SwiperID, &req.Location, &req.MeetingTime, &req.Status,
		&req.StartTaskName, &req.ReminderTaskName,
		&req.RequesterReviewCompleted, &req.SwiperReviewCompleted, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &req, err
}

func (r *RequestRepo) Update(ctx context.Context, req *domain.SwipeRequest) error {
	query := `
		UPDATE swipe_requests
		SET swiper_id = $1, location = $2, meeting_time = $3, status = $4,
			start_task_name = $5, reminder_task_name = $6,
			requester_review_completed = $7, swiper_review_completed = $8
		WHERE id = $9`
	_, err := r.pool.Exec(ctx, query,
		req.SwiperID, req.Location, req.MeetingTime, req.Status,
		req.StartTaskName, req.ReminderTaskName,
		req.RequesterReviewCompleted, req.SwiperReviewCompleted, req.ID,
	)
	return err
}

func (r *RequestRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.RequestStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE swipe_requests SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RequestRepo) ListOpen(ctx context.Context, excludeRequester uuid.UUID) ([]domain.SwipeRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM swipe_requests
		WHERE status = $1 AND requester_id <> $2
		ORDER BY meeting_time ASC`
	return r.list(ctx, query, domain.StatusOpen, excludeRequester)
}

func (r *RequestRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.SwipeRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM swipe_requests
		WHERE requester_id = $1 OR swiper_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *RequestRepo) list(ctx context.Context, query string, args ...any) ([]domain.SwipeRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.SwipeRequest
	for rows.Next() {
		var req domain.SwipeRequest
		if err := rows.Scan(
			&req.ID, &req.RequesterID, &req.SwiperID, &req.Location, &req.MeetingTime, &req.Status,
			&req.StartTaskName, &req.ReminderTaskName,
			&req.RequesterReviewCompleted, &req.SwiperReviewCompleted, &req.CreatedAt,
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
