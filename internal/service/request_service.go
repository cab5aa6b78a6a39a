package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jwall29/swiply/internal/domain"
	"github.com/jwall29/swiply/internal/lifecycle"
	"github.com/jwall29/swiply/internal/repository"
)

var (
	ErrRequestNotFound    = errors.New("swipe request not found")
	ErrInvalidLocation    = errors.New("unknown campus location")
	ErrMeetingTimeInPast  = errors.New("meeting time must be in the future")
	ErrOwnRequest         = errors.New("cannot accept your own request")
	ErrIllegalTransition  = errors.New("request status does not allow this action")
	ErrProposalRequired   = errors.New("scheduled requests can only be edited through a change proposal")
	ErrRequestNotEditable = errors.New("request can no longer be edited")
	ErrNothingToEdit      = errors.New("no fields to edit")
)

// How long before the meeting the reminder task fires.
const reminderLead = 15 * time.Minute

// RequestService is the request lifecycle engine: it owns every
// SwipeRequest status transition and triggers the paired side effects
// (chat creation/closure, scheduled-task creation/cancellation).
type RequestService struct {
	requestRepo repository.RequestRepository
	reviewRepo  repository.ReviewRepository
	chat        *ChatService
	scheduler   TaskScheduler
	notifier    Notifier
}

func NewRequestService(requestRepo repository.RequestRepository, reviewRepo repository.ReviewRepository, chat *ChatService, scheduler TaskScheduler) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		reviewRepo:  reviewRepo,
		chat:        chat,
		scheduler:   scheduler,
	}
}

func (s *RequestService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Create persists an open request and its paired chat room.
func (s *RequestService) Create(ctx context.Context, requesterID uuid.UUID, location domain.Location, meetingTime time.Time) (*domain.SwipeRequest, error) {
	if !domain.ValidLocation(location) {
		return nil, ErrInvalidLocation
	}
	if !meetingTime.After(time.Now()) {
		return nil, ErrMeetingTimeInPast
	}

	req := &domain.SwipeRequest{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Location:    location,
		MeetingTime: meetingTime,
		Status:      domain.StatusOpen,
		CreatedAt:   time.Now(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// A missing room is healed lazily on the next chat access.
	if _, err := s.chat.EnsureRoom(ctx, req); err != nil {
		log.Printf("request: chat room for %s failed: %v", req.ID, err)
	}

	return req, nil
}

// Accept is the open→scheduled transition: a swiper takes the request.
// Side effects: the external start/reminder tasks are scheduled and the
// chat room learns its swiper.
func (s *RequestService) Accept(ctx context.Context, requestID, swiperID uuid.UUID) (*domain.SwipeRequest, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID == swiperID {
		return nil, ErrOwnRequest
	}
	prev := req.Status
	next, ok := lifecycle.Next(prev, lifecycle.EventAccept)
	if !ok {
		return nil, ErrIllegalTransition
	}

	// Claim the status first so a concurrent accept loses cleanly
	// instead of overwriting this one and orphaning its tasks.
	claimed, err := s.requestRepo.CompareAndSetStatus(ctx, requestID, prev, next)
	if err != nil {
		return nil, fmt.Errorf("accepting request: %w", err)
	}
	if !claimed {
		return nil, ErrIllegalTransition
	}

	startTask, err := s.scheduler.Schedule(ctx, req.MeetingTime, req.ID, TaskStartMeeting)
	if err != nil {
		s.releaseClaim(ctx, requestID, next, prev)
		return nil, fmt.Errorf("scheduling start task: %w", err)
	}
	req.StartTaskName = &startTask

	if reminderAt := req.MeetingTime.Add(-reminderLead); reminderAt.After(time.Now()) {
		reminderTask, err := s.scheduler.Schedule(ctx, reminderAt, req.ID, TaskMeetingReminder)
		if err != nil {
			log.Printf("request: reminder task for %s failed: %v", req.ID, err)
		} else {
			req.ReminderTaskName = &reminderTask
		}
	}

	req.SwiperID = &swiperID
	req.Status = next
	if err := s.requestRepo.Update(ctx, req); err != nil {
		s.cancelTasks(ctx, req)
		s.releaseClaim(ctx, requestID, next, prev)
		return nil, fmt.Errorf("accepting request: %w", err)
	}

	if err := s.chat.AssignSwiper(ctx, req.ID, &swiperID); err != nil {
		log.Printf("request: chat swiper assignment for %s failed: %v", req.ID, err)
	}
	if s.notifier != nil {
		s.notifier.NotifyRequestUpdated(req)
	}

	return req, nil
}

// Cancel branches on who is acting. The assigned swiper backing out of
// a scheduled or in-progress request unassigns (the request reopens and
// the chat stays active); the requester, or anyone on an unassigned
// request, cancels outright and the chat closes for good.
func (s *RequestService) Cancel(ctx context.Context, requestID, actorID uuid.UUID) (*domain.SwipeRequest, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Participant(actorID) {
		return nil, ErrNotParticipant
	}

	if req.SwiperID != nil && *req.SwiperID == actorID {
		return s.unassign(ctx, req)
	}
	return s.cancel(ctx, req)
}

func (s *RequestService) unassign(ctx context.Context, req *domain.SwipeRequest) (*domain.SwipeRequest, error) {
	next, ok := lifecycle.Next(req.Status, lifecycle.EventUnassign)
	if !ok {
		return nil, ErrIllegalTransition
	}

	s.cancelTasks(ctx, req)
	req.SwiperID = nil
	req.Status = next
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("unassigning swiper: %w", err)
	}

	if err := s.chat.AssignSwiper(ctx, req.ID, nil); err != nil {
		log.Printf("request: chat swiper unassignment for %s failed: %v", req.ID, err)
	}
	if s.notifier != nil {
		s.notifier.NotifyRequestUpdated(req)
	}
	return req, nil
}

func (s *RequestService) cancel(ctx context.Context, req *domain.SwipeRequest) (*domain.SwipeRequest, error) {
	next, ok := lifecycle.Next(req.Status, lifecycle.EventCancel)
	if !ok {
		return nil, ErrIllegalTransition
	}

	s.cancelTasks(ctx, req)
	req.Status = next
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("canceling request: %w", err)
	}

	if err := s.chat.CloseRoom(ctx, req.ID); err != nil {
		log.Printf("request: chat close for %s failed: %v", req.ID, err)
	}
	if s.notifier != nil {
		s.notifier.NotifyRequestUpdated(req)
	}
	return req, nil
}

// MarkSwiped confirms the swipe happened: in_progress→awaiting_review.
// Both participants get review reminders.
func (s *RequestService) MarkSwiped(ctx context.Context, requestID, actorID uuid.UUID) (*domain.SwipeRequest, error) {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Participant(actorID) {
		return nil, ErrNotParticipant
	}
	next, ok := lifecycle.Next(req.Status, lifecycle.EventMarkSwiped)
	if !ok {
		return nil, ErrIllegalTransition
	}

	req.Status = next
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("marking swiped: %w", err)
	}

	if err := s.chat.PostSystemMessage(ctx, req.ID, "Swipe confirmed. Don't forget to review each other!"); err != nil {
		log.Printf("request: swiped message for %s failed: %v", req.ID, err)
	}
	s.addReviewReminder(ctx, req.RequesterID, req.ID)
	if req.SwiperID != nil {
		s.addReviewReminder(ctx, *req.SwiperID, req.ID)
	}
	if s.notifier != nil {
		s.notifier.NotifyRequestUpdated(req)
	}
	return req, nil
}

// Edit writes location/meeting time directly. Only legal while the
// request is still open; scheduled and in-progress requests negotiate
// through change proposals instead.
func (s *RequestService) Edit(ctx context.Context, requestID, actorID uuid.UUID, location *domain.Location, meetingTime *time.Time) (*domain.SwipeRequest, error) {
	if location == nil && meetingTime == nil {
		return nil, ErrNothingToEdit
	}

	req, err := s.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Participant(actorID) {
		return nil, ErrNotParticipant
	}
	if !lifecycle.CanEditDirectly(req.Status) {
		if req.Status.RequiresApprovalForChanges() {
			return nil, ErrProposalRequired
		}
		return nil, ErrRequestNotEditable
	}

	if location != nil {
		if !domain.ValidLocation(*location) {
			return nil, ErrInvalidLocation
		}
		req.Location = *location
	}
	if meetingTime != nil {
		if !meetingTime.After(time.Now()) {
			return nil, ErrMeetingTimeInPast
		}
		req.MeetingTime = *meetingTime
	}

	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("editing request: %w", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyRequestUpdated(req)
	}
	return req, nil
}

// StartMeeting is the task-webhook entry point for scheduled→
// in_progress at meeting time. Idempotent: a request no longer in
// scheduled is a benign no-op.
func (s *RequestService) StartMeeting(ctx context.Context, requestID uuid.UUID) error {
	moved, err := s.requestRepo.CompareAndSetStatus(ctx, requestID, domain.StatusScheduled, domain.StatusInProgress)
	if err != nil {
		return fmt.Errorf("starting meeting: %w", err)
	}
	if !moved {
		req, err := s.requestRepo.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrRequestNotFound
		}
		return nil
	}

	if err := s.chat.PostSystemMessage(ctx, requestID, "It's meeting time! Head to the dining hall."); err != nil {
		log.Printf("request: start message for %s failed: %v", requestID, err)
	}
	if s.notifier != nil {
		if req, err := s.requestRepo.GetByID(ctx, requestID); err == nil && req != nil {
			s.notifier.NotifyRequestUpdated(req)
		}
	}
	return nil
}

// RemindMeeting is the task-webhook entry point for the pre-meeting
// reminder. It never moves status; a request no longer scheduled means
// the reminder is stale and is dropped.
func (s *RequestService) RemindMeeting(ctx context.Context, requestID uuid.UUID) error {
	req, err := s.get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != domain.StatusScheduled {
		return nil
	}

	if err := s.chat.PostSystemMessage(ctx, req.ID, "Your meeting starts in 15 minutes."); err != nil {
		log.Printf("request: reminder message for %s failed: %v", req.ID, err)
	}
	if s.notifier != nil {
		s.notifier.NotifyPush(req.RequesterID, PushMeetingReminder, req.ID)
		if req.SwiperID != nil {
			s.notifier.NotifyPush(*req.SwiperID, PushMeetingReminder, req.ID)
		}
	}
	return nil
}

// Get returns a request visible to any authenticated user.
func (s *RequestService) Get(ctx context.Context, requestID uuid.UUID) (*domain.SwipeRequest, error) {
	return s.get(ctx, requestID)
}

// ListOpen returns open requests other users posted.
func (s *RequestService) ListOpen(ctx context.Context, userID uuid.UUID) ([]domain.SwipeRequest, error) {
	reqs, err := s.requestRepo.ListOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.SwipeRequest{}
	}
	return reqs, nil
}

// ListMine returns requests the user participates in, newest first.
func (s *RequestService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.SwipeRequest, error) {
	reqs, err := s.requestRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.SwipeRequest{}
	}
	return reqs, nil
}

func (s *RequestService) get(ctx context.Context, requestID uuid.UUID) (*domain.SwipeRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// cancelTasks best-effort cancels both scheduler handles and clears
// them from the request (in memory; the caller persists).
func (s *RequestService) cancelTasks(ctx context.Context, req *domain.SwipeRequest) {
	if req.StartTaskName != nil {
		if err := s.scheduler.Cancel(ctx, *req.StartTaskName); err != nil {
			log.Printf("request: cancel start task %s failed: %v", *req.StartTaskName, err)
		}
		req.StartTaskName = nil
	}
	if req.ReminderTaskName != nil {
		if err := s.scheduler.Cancel(ctx, *req.ReminderTaskName); err != nil {
			log.Printf("request: cancel reminder task %s failed: %v", *req.ReminderTaskName, err)
		}
		req.ReminderTaskName = nil
	}
}

// releaseClaim undoes a CompareAndSetStatus claim after a later step
// failed.
func (s *RequestService) releaseClaim(ctx context.Context, requestID uuid.UUID, from, to domain.RequestStatus) {
	if _, err := s.requestRepo.CompareAndSetStatus(ctx, requestID, from, to); err != nil {
		log.Printf("request: releasing claim on %s failed: %v", requestID, err)
	}
}

func (s *RequestService) addReviewReminder(ctx context.Context, userID, requestID uuid.UUID) {
	if err := s.reviewRepo.AddReminder(ctx, userID, requestID); err != nil {
		log.Printf("request: review reminder for %s on %s failed: %v", userID, requestID, err)
		return
	}
	if s.notifier != nil {
		s.notifier.NotifyPush(userID, PushReviewReminder, requestID)
	}
}
