// Package presence records which chat room, if any, each user
// currently has open. The chat service consults it to suppress push
// notifications for messages the user is already looking at.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// activeTTL bounds stale entries from clients that never sent a
// leave event.
const activeTTL = 6 * time.Hour

// Tracker stores the active chat room per user in Redis.
type Tracker struct {
	rdb *redis.Client
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

func key(userID uuid.UUID) string {
	return "active_chat:" + userID.String()
}

func (t *Tracker) SetActive(ctx context.Context, userID, roomID uuid.UUID) error {
	if err := t.rdb.Set(ctx, key(userID), roomID.String(), activeTTL).Err(); err != nil {
		return fmt.Errorf("set active chat: %w", err)
	}
	return nil
}

func (t *Tracker) ClearActive(ctx context.Context, userID uuid.UUID) error {
	if err := t.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("clear active chat: %w", err)
	}
	return nil
}

// Active returns the room the user has open, or nil when none is
// recorded.
func (t *Tracker) Active(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	val, err := t.rdb.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active chat: %w", err)
	}
	roomID, err := uuid.Parse(val)
	if err != nil {
		return nil, fmt.Errorf("parse active chat: %w", err)
	}
	return &roomID, nil
}
