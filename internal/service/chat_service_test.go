package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwall29/swiply/internal/domain"
)

// chatFixture creates a scheduled request so the room has two
// participants, and returns the ids.
func chatFixture(t *testing.T, e *env) (requestID, requester, swiper uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	requester, swiper = uuid.New(), uuid.New()

	req, err := e.requestSvc.Create(ctx, requester, domain.LocationCommons, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	_, err = e.requestSvc.Accept(ctx, req.ID, swiper)
	require.NoError(t, err)
	return req.ID, requester, swiper
}

func TestSendMessageBumpsRecipientUnread(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, requester, swiper := chatFixture(t, e)

	msg, err := e.chatSvc.SendMessage(ctx, roomID, requester, "see you at 6?")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeUser, msg.Type)
	require.NotNil(t, msg.SenderID)
	assert.Equal(t, requester, *msg.SenderID)

	// Only the recipient's counter moved.
	swiperCounts, err := e.chatSvc.UnreadCounts(ctx, swiper)
	require.NoError(t, err)
	assert.Equal(t, 1, swiperCounts[roomID])

	senderCounts, err := e.chatSvc.UnreadCounts(ctx, requester)
	require.NoError(t, err)
	assert.Zero(t, senderCounts[roomID])
}

func TestSendMessageValidation(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, requester, _ := chatFixture(t, e)

	_, err := e.chatSvc.SendMessage(ctx, roomID, requester, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = e.chatSvc.SendMessage(ctx, roomID, uuid.New(), "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = e.chatSvc.SendMessage(ctx, uuid.New(), requester, "hi")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestSendMessageToClosedRoom(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, requester, swiper := chatFixture(t, e)

	_, err := e.requestSvc.Cancel(ctx, roomID, requester)
	require.NoError(t, err)

	_, err = e.chatSvc.SendMessage(ctx, roomID, swiper, "wait, are we still on?")
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestUnreadAccumulatesPerRoom(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomA, requesterA, swiper := chatFixture(t, e)

	// A second room with the same swiper.
	reqB, err := e.requestSvc.Create(ctx, uuid.New(), domain.LocationWestUnion, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	_, err = e.requestSvc.Accept(ctx, reqB.ID, swiper)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := e.chatSvc.SendMessage(ctx, roomA, requesterA, "ping")
		require.NoError(t, err)
	}
	_, err = e.chatSvc.SendMessage(ctx, reqB.ID, reqB.RequesterID, "hello")
	require.NoError(t, err)

	counts, err := e.chatSvc.UnreadCounts(ctx, swiper)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[roomA])
	assert.Equal(t, 1, counts[reqB.ID])

	// Opening room A zeroes only room A.
	require.NoError(t, e.chatSvc.OpenChat(ctx, swiper, roomA))
	counts, err = e.chatSvc.UnreadCounts(ctx, swiper)
	require.NoError(t, err)
	assert.Zero(t, counts[roomA])
	assert.Equal(t, 1, counts[reqB.ID])
}

func TestSystemMessagesNeverTouchUnread(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, requester, swiper := chatFixture(t, e)

	before, err := e.chatSvc.UnreadCounts(ctx, swiper)
	require.NoError(t, err)

	require.NoError(t, e.chatSvc.PostSystemMessage(ctx, roomID, "heads up"))

	after, err := e.chatSvc.UnreadCounts(ctx, swiper)
	require.NoError(t, err)
	assert.Equal(t, before[roomID], after[roomID])

	afterRequester, err := e.chatSvc.UnreadCounts(ctx, requester)
	require.NoError(t, err)
	assert.Zero(t, afterRequester[roomID])
}

func TestPushSuppressedWhileRoomOpen(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, requester, swiper := chatFixture(t, e)

	require.NoError(t, e.chatSvc.OpenChat(ctx, swiper, roomID))
	pushesBefore := len(e.notifier.pushes)

	_, err := e.chatSvc.SendMessage(ctx, roomID, requester, "you there?")
	require.NoError(t, err)
	assert.Len(t, e.notifier.pushes, pushesBefore)

	// After leaving, the next message pushes again.
	require.NoError(t, e.chatSvc.LeaveChat(ctx, swiper))
	_, err = e.chatSvc.SendMessage(ctx, roomID, requester, "hello?")
	require.NoError(t, err)
	require.Len(t, e.notifier.pushes, pushesBefore+1)
	push := e.notifier.pushes[len(e.notifier.pushes)-1]
	assert.Equal(t, swiper, push.UserID)
	assert.Equal(t, PushNewMessage, push.Kind)
	assert.Equal(t, roomID, push.RefID)
}

func TestCloseRoomIdempotent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, _, _ := chatFixture(t, e)

	require.NoError(t, e.chatSvc.CloseRoom(ctx, roomID))
	closures := len(e.notifier.closedRooms)

	// Closing again changes nothing.
	require.NoError(t, e.chatSvc.CloseRoom(ctx, roomID))
	assert.Len(t, e.notifier.closedRooms, closures)
}

func TestHistoryRequiresParticipant(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, requester, _ := chatFixture(t, e)

	_, err := e.chatSvc.SendMessage(ctx, roomID, requester, "first")
	require.NoError(t, err)

	msgs, err := e.chatSvc.History(ctx, roomID, requester)
	require.NoError(t, err)
	assert.NotEmpty(t, msgs)

	_, err = e.chatSvc.History(ctx, roomID, uuid.New())
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestEnsureRoomIdempotent(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	roomID, _, _ := chatFixture(t, e)

	req, err := e.requests.GetByID(ctx, roomID)
	require.NoError(t, err)

	msgsBefore, err := e.chats.ListMessages(ctx, roomID)
	require.NoError(t, err)

	room, err := e.chatSvc.EnsureRoom(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, roomID, room.ID)

	// No duplicate welcome message.
	msgsAfter, err := e.chats.ListMessages(ctx, roomID)
	require.NoError(t, err)
	assert.Len(t, msgsAfter, len(msgsBefore))
}
