package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwall29/swiply/internal/domain"
)

// In-memory fakes with the same semantics as the postgres repos:
// lookups return (nil, nil) when nothing matches, and mutations applied
// to a fetched value are only visible after Update.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

type memRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]domain.SwipeRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: make(map[uuid.UUID]domain.SwipeRequest)}
}

func (r *memRequestRepo) Create(_ context.Context, req *domain.SwipeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = *req
	return nil
}

func (r *memRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SwipeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		return &req, nil
	}
	return nil, nil
}

func (r *memRequestRepo) Update(_ context.Context, req *domain.SwipeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.ID]; !ok {
		return errors.New("request not found")
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *memRequestRepo) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to domain.RequestStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	r.requests[id] = req
	return true, nil
}

func (r *memRequestRepo) ListOpen(_ context.Context, excludeRequester uuid.UUID) ([]domain.SwipeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SwipeRequest
	for _, req := range r.requests {
		if req.Status == domain.StatusOpen && req.RequesterID != excludeRequester {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *memRequestRepo) ListByParticipant(_ context.Context, userID uuid.UUID) ([]domain.SwipeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SwipeRequest
	for _, req := range r.requests {
		if req.Participant(userID) {
			out = append(out, req)
		}
	}
	return out, nil
}

type memChatRepo struct {
	mu       sync.Mutex
	rooms    map[uuid.UUID]domain.ChatRoom
	messages map[uuid.UUID][]domain.ChatMessage
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{
		rooms:    make(map[uuid.UUID]domain.ChatRoom),
		messages: make(map[uuid.UUID][]domain.ChatMessage),
	}
}

func (r *memChatRepo) UpsertRoom(_ context.Context, room *domain.ChatRoom) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room.ID]; ok {
		return false, nil
	}
	r.rooms[room.ID] = *room
	return true, nil
}

func (r *memChatRepo) GetRoom(_ context.Context, roomID uuid.UUID) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[roomID]; ok {
		return &room, nil
	}
	return nil, nil
}

func (r *memChatRepo) ListRoomsByParticipant(_ context.Context, userID uuid.UUID) ([]domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatRoom
	for _, room := range r.rooms {
		if room.Participant(userID) {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *memChatRepo) UpdateSwiper(_ context.Context, roomID uuid.UUID, swiperID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return errors.New("room not found")
	}
	room.SwiperID = swiperID
	r.rooms[roomID] = room
	return nil
}

func (r *memChatRepo) CloseRoom(_ context.Context, roomID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return errors.New("room not found")
	}
	room.IsActive = false
	r.rooms[roomID] = room
	return nil
}

func (r *memChatRepo) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[msg.RoomID]
	if !ok {
		return errors.New("room not found")
	}
	r.messages[msg.RoomID] = append(r.messages[msg.RoomID], *msg)
	room.LastMessage = msg.Content
	room.LastMessageAt = msg.CreatedAt
	r.rooms[msg.RoomID] = room
	return nil
}

func (r *memChatRepo) ListMessages(_ context.Context, roomID uuid.UUID) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChatMessage(nil), r.messages[roomID]...), nil
}

type memUnreadRepo struct {
	mu     sync.Mutex
	counts map[uuid.UUID]map[uuid.UUID]int // userID -> roomID -> count
}

func newMemUnreadRepo() *memUnreadRepo {
	return &memUnreadRepo{counts: make(map[uuid.UUID]map[uuid.UUID]int)}
}

func (r *memUnreadRepo) Increment(_ context.Context, userID, roomID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts[userID] == nil {
		r.counts[userID] = make(map[uuid.UUID]int)
	}
	r.counts[userID][roomID]++
	return r.counts[userID][roomID], nil
}

func (r *memUnreadRepo) Reset(_ context.Context, userID, roomID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts[userID] == nil {
		r.counts[userID] = make(map[uuid.UUID]int)
	}
	r.counts[userID][roomID] = 0
	return nil
}

func (r *memUnreadRepo) CountsForUser(_ context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]int)
	for roomID, n := range r.counts[userID] {
		out[roomID] = n
	}
	return out, nil
}

type memProposalRepo struct {
	mu        sync.Mutex
	proposals map[uuid.UUID]domain.ChangeProposal
	requests  *memRequestRepo
}

func newMemProposalRepo(requests *memRequestRepo) *memProposalRepo {
	return &memProposalRepo{
		proposals: make(map[uuid.UUID]domain.ChangeProposal),
		requests:  requests,
	}
}

func (r *memProposalRepo) Create(_ context.Context, p *domain.ChangeProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proposals[p.ID] = *p
	return nil
}

func (r *memProposalRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.ChangeProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.proposals[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *memProposalRepo) GetPendingByRequest(_ context.Context, requestID uuid.UUID) (*domain.ChangeProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.proposals {
		if p.RequestID == requestID && p.Status == domain.ProposalPending {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *memProposalRepo) AcceptAndApply(ctx context.Context, p *domain.ChangeProposal, responderID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	stored, ok := r.proposals[p.ID]
	if !ok || stored.Status != domain.ProposalPending {
		r.mu.Unlock()
		return errors.New("proposal no longer pending")
	}
	stored.Status = domain.ProposalAccepted
	stored.RespondedAt = &at
	stored.RespondedByID = &responderID
	r.proposals[p.ID] = stored
	r.mu.Unlock()

	req, err := r.requests.GetByID(ctx, p.RequestID)
	if err != nil || req == nil {
		return errors.New("request not found")
	}
	if p.ProposedLocation != nil {
		req.Location = *p.ProposedLocation
	}
	if p.ProposedMeetingTime != nil {
		req.MeetingTime = *p.ProposedMeetingTime
	}
	return r.requests.Update(ctx, req)
}

func (r *memProposalRepo) Decline(_ context.Context, id, responderID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.proposals[id]
	if !ok || stored.Status != domain.ProposalPending {
		return errors.New("proposal no longer pending")
	}
	stored.Status = domain.ProposalDeclined
	stored.RespondedAt = &at
	stored.RespondedByID = &responderID
	r.proposals[id] = stored
	return nil
}

type reminderKey struct {
	userID    uuid.UUID
	requestID uuid.UUID
}

type memReviewRepo struct {
	mu        sync.Mutex
	reviews   []domain.Review
	stats     map[uuid.UUID]domain.RatingStats
	reminders map[reminderKey]time.Time
	requests  *memRequestRepo
}

func newMemReviewRepo(requests *memRequestRepo) *memReviewRepo {
	return &memReviewRepo{
		stats:     make(map[uuid.UUID]domain.RatingStats),
		reminders: make(map[reminderKey]time.Time),
		requests:  requests,
	}
}

func (r *memReviewRepo) Submit(ctx context.Context, rev *domain.Review, markRequesterDone bool) error {
	r.mu.Lock()
	r.reviews = append(r.reviews, *rev)
	stats := r.stats[rev.RevieweeID]
	stats.UserID = rev.RevieweeID
	stats.RatingSum += rev.Rating
	stats.TotalReviews++
	r.stats[rev.RevieweeID] = stats
	r.mu.Unlock()

	req, err := r.requests.GetByID(ctx, rev.RequestID)
	if err != nil || req == nil {
		return errors.New("request not found")
	}
	if markRequesterDone {
		req.RequesterReviewCompleted = true
	} else {
		req.SwiperReviewCompleted = true
	}
	req.Status = domain.StatusComplete
	return r.requests.Update(ctx, req)
}

func (r *memReviewRepo) GetStats(_ context.Context, userID uuid.UUID) (*domain.RatingStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.stats[userID]; ok {
		return &stats, nil
	}
	return nil, nil
}

func (r *memReviewRepo) UpdateAverage(_ context.Context, userID uuid.UUID, avg float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.stats[userID]
	stats.AverageRating = avg
	r.stats[userID] = stats
	return nil
}

func (r *memReviewRepo) AddReminder(_ context.Context, userID, requestID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reminderKey{userID, requestID}
	if _, ok := r.reminders[key]; !ok {
		r.reminders[key] = time.Now()
	}
	return nil
}

func (r *memReviewRepo) DeleteReminder(_ context.Context, userID, requestID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reminders, reminderKey{userID, requestID})
	return nil
}

func (r *memReviewRepo) ListReminders(_ context.Context, userID uuid.UUID) ([]domain.ReviewReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReviewReminder
	for key, at := range r.reminders {
		if key.userID == userID {
			out = append(out, domain.ReviewReminder{UserID: key.userID, RequestID: key.requestID, CreatedAt: at})
		}
	}
	return out, nil
}

// fakeScheduler hands out sequential task names and records every
// schedule and cancel.
type fakeScheduler struct {
	mu        sync.Mutex
	n         int
	scheduled map[string]time.Time
	kinds     map[string]TaskKind
	canceled  []string
	failNext  bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		scheduled: make(map[string]time.Time),
		kinds:     make(map[string]TaskKind),
	}
}

func (f *fakeScheduler) Schedule(_ context.Context, runAt time.Time, _ uuid.UUID, kind TaskKind) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return "", errors.New("task service unavailable")
	}
	f.n++
	name := fmt.Sprintf("task-%d", f.n)
	f.scheduled[name] = runAt
	f.kinds[name] = kind
	return name, nil
}

func (f *fakeScheduler) Cancel(_ context.Context, taskName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, taskName)
	delete(f.kinds, taskName)
	f.canceled = append(f.canceled, taskName)
	return nil
}

type pushCall struct {
	UserID uuid.UUID
	Kind   string
	RefID  uuid.UUID
}

type unreadCall struct {
	UserID uuid.UUID
	RoomID uuid.UUID
	Count  int
}

// recordingNotifier captures every notification for assertions.
type recordingNotifier struct {
	mu          sync.Mutex
	messages    []domain.ChatMessage
	closedRooms []uuid.UUID
	unreads     []unreadCall
	requests    []domain.SwipeRequest
	proposals   []domain.ChangeProposal
	resolved    []domain.ChangeProposal
	pushes      []pushCall
}

func (n *recordingNotifier) NotifyNewMessage(msg *domain.ChatMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, *msg)
}

func (n *recordingNotifier) NotifyRoomClosed(roomID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closedRooms = append(n.closedRooms, roomID)
}

func (n *recordingNotifier) NotifyUnread(userID, roomID uuid.UUID, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unreads = append(n.unreads, unreadCall{userID, roomID, count})
}

func (n *recordingNotifier) NotifyRequestUpdated(req *domain.SwipeRequest) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, *req)
}

func (n *recordingNotifier) NotifyProposalCreated(p *domain.ChangeProposal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.proposals = append(n.proposals, *p)
}

func (n *recordingNotifier) NotifyProposalResolved(p *domain.ChangeProposal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolved = append(n.resolved, *p)
}

func (n *recordingNotifier) NotifyPush(userID uuid.UUID, kind string, refID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, pushCall{userID, kind, refID})
}

// fakeActive is an in-memory ActiveChats.
type fakeActive struct {
	mu     sync.Mutex
	active map[uuid.UUID]uuid.UUID
}

func newFakeActive() *fakeActive {
	return &fakeActive{active: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeActive) SetActive(_ context.Context, userID, roomID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[userID] = roomID
	return nil
}

func (f *fakeActive) ClearActive(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, userID)
	return nil
}

func (f *fakeActive) Active(_ context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if roomID, ok := f.active[userID]; ok {
		return &roomID, nil
	}
	return nil, nil
}

// env bundles wired services over the in-memory fakes.
type env struct {
	users     *memUserRepo
	requests  *memRequestRepo
	chats     *memChatRepo
	unreads   *memUnreadRepo
	proposals *memProposalRepo
	reviews   *memReviewRepo
	scheduler *fakeScheduler
	notifier  *recordingNotifier
	active    *fakeActive

	chatSvc     *ChatService
	requestSvc  *RequestService
	proposalSvc *ProposalService
	reviewSvc   *ReviewService
}

func newEnv() *env {
	e := &env{
		users:     newMemUserRepo(),
		requests:  newMemRequestRepo(),
		chats:     newMemChatRepo(),
		unreads:   newMemUnreadRepo(),
		scheduler: newFakeScheduler(),
		notifier:  &recordingNotifier{},
		active:    newFakeActive(),
	}
	e.proposals = newMemProposalRepo(e.requests)
	e.reviews = newMemReviewRepo(e.requests)

	e.chatSvc = NewChatService(e.chats, e.unreads, e.users, e.active)
	e.requestSvc = NewRequestService(e.requests, e.reviews, e.chatSvc, e.scheduler)
	e.proposalSvc = NewProposalService(e.proposals, e.requests, e.chatSvc, e.scheduler)
	e.reviewSvc = NewReviewService(e.reviews, e.requests)

	e.chatSvc.SetNotifier(e.notifier)
	e.requestSvc.SetNotifier(e.notifier)
	e.proposalSvc.SetNotifier(e.notifier)
	e.reviewSvc.SetNotifier(e.notifier)
	return e
}
