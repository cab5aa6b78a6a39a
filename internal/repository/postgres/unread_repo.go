package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnreadRepo stores per-(user, room) unread counters as individual rows.
// Row-level upserts are the merge-write the counters need: two writers
// touching different rooms never clobber each other.
type UnreadRepo struct {
	pool *pgxpool.Pool
}

func NewUnreadRepo(pool *pgxpool.Pool) *UnreadRepo {
	return &UnreadRepo{pool: pool}
}

func (r *UnreadRepo) Increment(ctx context.Context, userID, roomID uuid.UUID) (int, error) {
	query := `
		INSERT INTO unread_counts (user_id, chat_room_id, count, last_updated)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, chat_room_id)
		DO UPDATE SET count = unread_counts.count + 1, last_updated = NOW()
		RETURNING count`
	var count int
	err := r.pool.QueryRow(ctx, query, userID, roomID).Scan(&count)
	return count, err
}

func (r *UnreadRepo) Reset(ctx context.Context, userID, roomID uuid.UUID) error {
	query := `
		INSERT INTO unread_counts (user_id, chat_room_id, count, last_updated)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (user_id, chat_room_id)
		DO UPDATE SET count = 0, last_updated = NOW()`
	_, err := r.pool.Exec(ctx, query, userID, roomID)
	return err
}

func (r *UnreadRepo) CountsForUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT chat_room_id, count FROM unread_counts WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var roomID uuid.UUID
		var count int
		if err := rows.Scan(&roomID, &count); err != nil {
			return nil, err
		}
		counts[roomID] = count
	}
	return counts, rows.Err()
}
