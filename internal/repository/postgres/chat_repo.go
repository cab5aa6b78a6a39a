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

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) UpsertRoom(ctx context.Context, room *domain.ChatRoom) (bool, error) {
	query := `
		INSERT INTO chat_rooms (id, requester_id, swiper_id, is_active, last_message, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, query,
		room.ID, room.RequesterID, room.SwiperID, room.IsActive,
		room.LastMessage, room.LastMessageAt, room.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ChatRepo) GetRoom(ctx context.Context, roomID uuid.UUID) (*domain.ChatRoom, error) {
	query := `
		SELECT id, requester_id, swiper_id, is_active, last_message, last_message_at, created_at
		FROM chat_rooms
		WHERE id = $1`
	var room domain.ChatRoom
	err := r.pool.QueryRow(ctx, query, roomID).Scan(
		&room.ID, &room.RequesterID, &room.SwiperID, &room.IsActive,
		&room.LastMessage, &room.LastMessageAt, &room.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &room, err
}

func (r *ChatRepo) ListRoomsByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.ChatRoom, error) {
	query := `
		SELECT c.id, c.requester_id, c.swiper_id, c.is_active, c.last_message, c.last_message_at, c.created_at,
			COALESCE(u.count, 0)
		FROM chat_rooms c
		LEFT JOIN unread_counts u ON u.chat_room_id = c.id AND u.user_id = $1
		WHERE c.requester_id = $1 OR c.swiper_id = $1
		ORDER BY c.last_message_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []domain.ChatRoom
	for rows.Next() {
		var room domain.ChatRoom
		if err := rows.Scan(
			&room.ID, &room.RequesterID, &room.SwiperID, &room.IsActive,
			&room.LastMessage, &room.LastMessageAt, &room.CreatedAt,
			&room.UnreadCount,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *ChatRepo) UpdateSwiper(ctx context.Context, roomID uuid.UUID, swiperID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_rooms SET swiper_id = $1, last_message_at = NOW() WHERE id = $2`,
		swiperID, roomID,
	)
	return err
}

func (r *ChatRepo) CloseRoom(ctx context.Context, roomID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_rooms SET is_active = FALSE WHERE id = $1`,
		roomID,
	)
	return err
}

func (r *ChatRepo) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning append tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_messages (id, room_id, sender_id, content, type, proposal_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.RoomID, msg.SenderID, msg.Content, msg.Type, msg.ProposalID, msg.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE chat_rooms SET last_message = $1, last_message_at = $2 WHERE id = $3`,
		msg.Content, msg.CreatedAt, msg.RoomID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ChatRepo) ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, room_id, sender_id, content, type, proposal_id, created_at
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(
			&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content, &msg.Type, &msg.ProposalID, &msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
