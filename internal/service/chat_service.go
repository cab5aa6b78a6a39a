package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwall29/swiply/internal/domain"
	"github.com/jwall29/swiply/internal/repository"
)

var (
	ErrRoomNotFound   = errors.New("chat room not found")
	ErrRoomClosed     = errors.New("chat room is closed")
	ErrEmptyMessage   = errors.New("message content is empty")
	ErrNotParticipant = errors.New("you are not a participant of this chat")
)

// ChatService owns chat rooms, messages, and the unread-counter
// protocol. One room per request, sharing the request's id.
type ChatService struct {
	chatRepo   repository.ChatRepository
	unreadRepo repository.UnreadRepository
	userRepo   repository.UserRepository
	active     ActiveChats
	notifier   Notifier
}

func NewChatService(chatRepo repository.ChatRepository, unreadRepo repository.UnreadRepository, userRepo repository.UserRepository, active ActiveChats) *ChatService {
	return &ChatService{
		chatRepo:   chatRepo,
		unreadRepo: unreadRepo,
		userRepo:   userRepo,
		active:     active,
	}
}

func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

// EnsureRoom creates the room paired with the request, or returns the
// existing one. Idempotent on the request id, so it doubles as the
// lazy-recreation path when the companion room is missing.
func (s *ChatService) EnsureRoom(ctx context.Context, req *domain.SwipeRequest) (*domain.ChatRoom, error) {
	now := time.Now()
	room := &domain.ChatRoom{
		ID:            req.ID,
		RequesterID:   req.RequesterID,
		SwiperID:      req.SwiperID,
		IsActive:      true,
		LastMessageAt: now,
		CreatedAt:     now,
	}

	created, err := s.chatRepo.UpsertRoom(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("creating chat room: %w", err)
	}
	if !created {
		return s.getRoom(ctx, req.ID)
	}

	welcome := "Waiting for a swiper to accept this request."
	if req.SwiperID != nil {
		welcome = "A swiper accepted this request. Coordinate your meetup here."
	}
	if err := s.PostSystemMessage(ctx, room.ID, welcome); err != nil {
		// Room exists; the missing welcome message is an accepted
		// inconsistency window.
		log.Printf("chat: welcome message for room %s failed: %v", room.ID, err)
	}

	return room, nil
}

// AssignSwiper records a swiper (re)assignment on the room and posts the
// matching system message. A nil swiperID unassigns.
func (s *ChatService) AssignSwiper(ctx context.Context, roomID uuid.UUID, swiperID *uuid.UUID) error {
	if err := s.chatRepo.UpdateSwiper(ctx, roomID, swiperID); err != nil {
		return fmt.Errorf("updating room swiper: %w", err)
	}

	content := "The swiper backed out. This request is open for a new swiper."
	if swiperID != nil {
		content = "A swiper accepted this request."
		if user, err := s.userRepo.GetByID(ctx, *swiperID); err == nil && user != nil {
			content = fmt.Sprintf("%s accepted this request.", user.DisplayName)
		}
	}
	return s.PostSystemMessage(ctx, roomID, content)
}

// SendMessage appends a participant message and increments the
// counter-party's unread count by exactly one.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID uuid.UUID, content string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Participant(senderID) {
		return nil, ErrNotParticipant
	}
	if !room.IsActive {
		return nil, ErrRoomClosed
	}

	msg := &domain.ChatMessage{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  &senderID,
		Content:   content,
		Type:      domain.MessageTypeUser,
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(msg)
	}

	if recipient := room.OtherParticipant(senderID); recipient != nil {
		s.bumpUnread(ctx, *recipient, roomID)
	}

	return msg, nil
}

// bumpUnread increments the recipient's counter and, when the recipient
// is not looking at this room, emits a push-worthy signal. Both steps
// are best effort relative to the already-committed message.
func (s *ChatService) bumpUnread(ctx context.Context, recipient, roomID uuid.UUID) {
	count, err := s.unreadRepo.Increment(ctx, recipient, roomID)
	if err != nil {
		log.Printf("chat: unread increment for %s in room %s failed: %v", recipient, roomID, err)
		return
	}
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyUnread(recipient, roomID, count)

	activeRoom, err := s.active.Active(ctx, recipient)
	if err != nil {
		log.Printf("chat: active-chat lookup for %s failed: %v", recipient, err)
	}
	if activeRoom == nil || *activeRoom != roomID {
		s.notifier.NotifyPush(recipient, PushNewMessage, roomID)
	}
}

// PostSystemMessage appends a synthetic message. System messages never
// touch unread counters.
func (s *ChatService) PostSystemMessage(ctx context.Context, roomID uuid.UUID, content string) error {
	return s.postSynthetic(ctx, roomID, content, domain.MessageTypeSystem, nil)
}

// PostProposalMessage appends the in-chat rendering of a change
// proposal. The message never changes after creation; proposal status
// is looked up live by clients.
func (s *ChatService) PostProposalMessage(ctx context.Context, roomID uuid.UUID, proposalID uuid.UUID, content string) error {
	return s.postSynthetic(ctx, roomID, content, domain.MessageTypeChangeProposal, &proposalID)
}

func (s *ChatService) postSynthetic(ctx context.Context, roomID uuid.UUID, content string, typ domain.MessageType, proposalID *uuid.UUID) error {
	msg := &domain.ChatMessage{
		ID:         uuid.New(),
		RoomID:     roomID,
		SenderID:   nil, // system
		Content:    content,
		Type:       typ,
		ProposalID: proposalID,
		CreatedAt:  time.Now(),
	}
	if err := s.chatRepo.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("appending system message: %w", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyNewMessage(msg)
	}
	return nil
}

// CloseRoom deactivates the room permanently and posts the closure
// message. Already-closed rooms are a no-op.
func (s *ChatService) CloseRoom(ctx context.Context, roomID uuid.UUID) error {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsActive {
		return nil
	}

	if err := s.chatRepo.CloseRoom(ctx, roomID); err != nil {
		return fmt.Errorf("closing room: %w", err)
	}
	if err := s.PostSystemMessage(ctx, roomID, "This request was canceled. The chat is now closed."); err != nil {
		log.Printf("chat: closure message for room %s failed: %v", roomID, err)
	}
	if s.notifier != nil {
		s.notifier.NotifyRoomClosed(roomID)
	}
	return nil
}

// History returns the room's full ordered message list.
func (s *ChatService) History(ctx context.Context, roomID, userID uuid.UUID) ([]domain.ChatMessage, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Participant(userID) {
		return nil, ErrNotParticipant
	}

	messages, err := s.chatRepo.ListMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return messages, nil
}

// ListRooms returns the user's rooms with their unread counts.
func (s *ChatService) ListRooms(ctx context.Context, userID uuid.UUID) ([]domain.ChatRoom, error) {
	rooms, err := s.chatRepo.ListRoomsByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []domain.ChatRoom{}
	}
	return rooms, nil
}

// OpenChat marks the room as the user's active chat and zeroes its
// unread counter, leaving every other room's counter untouched.
func (s *ChatService) OpenChat(ctx context.Context, userID, roomID uuid.UUID) error {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.Participant(userID) {
		return ErrNotParticipant
	}

	if err := s.active.SetActive(ctx, userID, roomID); err != nil {
		log.Printf("chat: set active chat for %s failed: %v", userID, err)
	}
	return s.ResetUnread(ctx, userID, roomID)
}

// LeaveChat clears the user's active-chat marker.
func (s *ChatService) LeaveChat(ctx context.Context, userID uuid.UUID) error {
	return s.active.ClearActive(ctx, userID)
}

// ResetUnread zeroes exactly one (user, room) counter.
func (s *ChatService) ResetUnread(ctx context.Context, userID, roomID uuid.UUID) error {
	if err := s.unreadRepo.Reset(ctx, userID, roomID); err != nil {
		return fmt.Errorf("resetting unread count: %w", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyUnread(userID, roomID, 0)
	}
	return nil
}

// UnreadCounts returns the user's full counts map.
func (s *ChatService) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	return s.unreadRepo.CountsForUser(ctx, userID)
}

func (s *ChatService) getRoom(ctx context.Context, roomID uuid.UUID) (*domain.ChatRoom, error) {
	room, err := s.chatRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}
