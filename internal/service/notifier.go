package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jwall29/swiply/internal/domain"
)

// Notifier delivers state-change events to connected clients. All
// methods are fire-and-forget: delivery is best effort and never
// fails the operation that triggered it.
type Notifier interface {
	NotifyNewMessage(msg *domain.ChatMessage)
	NotifyRoomClosed(roomID uuid.UUID)
	NotifyUnread(userID, roomID uuid.UUID, count int)
	NotifyRequestUpdated(req *domain.SwipeRequest)
	NotifyProposalCreated(p *domain.ChangeProposal)
	NotifyProposalResolved(p *domain.ChangeProposal)
	// NotifyPush emits a push-worthy signal for a recipient who is not
	// currently looking at the relevant chat. Notification delivery
	// itself lives outside this service.
	NotifyPush(userID uuid.UUID, kind string, refID uuid.UUID)
}

// Push kinds emitted through NotifyPush.
const (
	PushNewMessage      = "new_message"
	PushProposal        = "proposal"
	PushReviewReminder  = "review_reminder"
	PushMeetingReminder = "meeting_reminder"
)

// TaskKind tags a scheduled task so the callback webhook knows whether
// to advance the request status or deliver a reminder.
type TaskKind string

const (
	TaskStartMeeting    TaskKind = "start_meeting"
	TaskMeetingReminder TaskKind = "meeting_reminder"
)

// ActiveChats tracks which room, if any, a user currently has open.
// Purely advisory state used to suppress duplicate push signals.
type ActiveChats interface {
	SetActive(ctx context.Context, userID, roomID uuid.UUID) error
	ClearActive(ctx context.Context, userID uuid.UUID) error
	Active(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}

// TaskScheduler is the opaque schedule(at, payload) -> handle
// capability of the external task service. The kind travels in the
// task payload and comes back on the callback.
type TaskScheduler interface {
	Schedule(ctx context.Context, runAt time.Time, requestID uuid.UUID, kind TaskKind) (string, error)
	Cancel(ctx context.Context, taskName string) error
}
