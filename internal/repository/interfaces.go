package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jwall29/swiply/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.SwipeRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SwipeRequest, error)
	Update(ctx context.Context, req *domain.SwipeRequest) error
	// CompareAndSetStatus moves id from `from` to `to` in one statement
	// and reports whether the row was actually in `from`. Used by the
	// idempotent task webhook.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to domain.RequestStatus) (bool, error)
	ListOpen(ctx context.Context, excludeRequester uuid.UUID) ([]domain.SwipeRequest, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.SwipeRequest, error)
}

type ChatRepository interface {
	// UpsertRoom creates the room keyed by the request id, or leaves an
	// existing row untouched. Room creation is idempotent by design.
	UpsertRoom(ctx context.Context, room *domain.ChatRoom) (created bool, err error)
	GetRoom(ctx context.Context, roomID uuid.UUID) (*domain.ChatRoom, error)
	ListRoomsByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.ChatRoom, error)
	UpdateSwiper(ctx context.Context, roomID uuid.UUID, swiperID *uuid.UUID) error
	CloseRoom(ctx context.Context, roomID uuid.UUID) error
	// AppendMessage inserts the message and bumps the room's
	// last_message/last_message_at in the same transaction.
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, roomID uuid.UUID) ([]domain.ChatMessage, error)
}

type UnreadRepository interface {
	// Increment adds 1 to the (userID, roomID) counter and returns the
	// new value. Row-level upsert: counters for other rooms are never
	// touched.
	Increment(ctx context.Context, userID, roomID uuid.UUID) (int, error)
	Reset(ctx context.Context, userID, roomID uuid.UUID) error
	CountsForUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}

type ProposalRepository interface {
	Create(ctx context.Context, p *domain.ChangeProposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ChangeProposal, error)
	GetPendingByRequest(ctx context.Context, requestID uuid.UUID) (*domain.ChangeProposal, error)
	// AcceptAndApply marks the proposal accepted and writes the proposed
	// location/meeting time into the request in a single transaction, so
	// no reader ever observes one without the other.
	AcceptAndApply(ctx context.Context, p *domain.ChangeProposal, responderID uuid.UUID, at time.Time) error
	Decline(ctx context.Context, id, responderID uuid.UUID, at time.Time) error
}

type ReviewRepository interface {
	// Submit runs the review batch in one transaction: insert the
	// review, increment the reviewee's rating_sum/total_reviews, set the
	// reviewer's side's completed flag, and set the request status to
	// complete. This transaction is the only path into complete.
	Submit(ctx context.Context, rev *domain.Review, markRequesterDone bool) error
	GetStats(ctx context.Context, userID uuid.UUID) (*domain.RatingStats, error)
	// UpdateAverage is the non-atomic follow-up write of average_rating,
	// deliberately outside the Submit transaction.
	UpdateAverage(ctx context.Context, userID uuid.UUID, avg float64) error
	AddReminder(ctx context.Context, userID, requestID uuid.UUID) error
	DeleteReminder(ctx context.Context, userID, requestID uuid.UUID) error
	ListReminders(ctx context.Context, userID uuid.UUID) ([]domain.ReviewReminder, error)
}
