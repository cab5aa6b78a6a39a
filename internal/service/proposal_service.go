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
	ErrProposalNotFound    = errors.New("change proposal not found")
	ErrProposalNotPending  = errors.New("change proposal is no longer pending")
	ErrOwnProposal         = errors.New("cannot respond to your own proposal")
	ErrNoApprovalNeeded    = errors.New("request status does not require change proposals")
	ErrEmptyProposal       = errors.New("proposal must change the location or the meeting time")
	ErrNoActualChange      = errors.New("proposed values match the current request")
	ErrPendingProposal     = errors.New("another proposal is still pending for this request")
)

// ProposalService negotiates in-chat edits to a scheduled request's
// location/time requiring both-party approval.
type ProposalService struct {
	proposalRepo repository.ProposalRepository
	requestRepo  repository.RequestRepository
	chat         *ChatService
	scheduler    TaskScheduler
	notifier     Notifier
}

func NewProposalService(proposalRepo repository.ProposalRepository, requestRepo repository.RequestRepository, chat *ChatService, scheduler TaskScheduler) *ProposalService {
	return &ProposalService{
		proposalRepo: proposalRepo,
		requestRepo:  requestRepo,
		chat:         chat,
		scheduler:    scheduler,
	}
}

func (s *ProposalService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Create opens a pending proposal. Only legal while the request status
// requires approval for changes, only for participants, and only when
// the proposal actually differs from the current request. A request
// carries at most one pending proposal at a time.
func (s *ProposalService) Create(ctx context.Context, requestID, proposerID uuid.UUID, location *domain.Location, meetingTime *time.Time) (*domain.ChangeProposal, error) {
	if location == nil && meetingTime == nil {
		return nil, ErrEmptyProposal
	}
	if location != nil && !domain.ValidLocation(*location) {
		return nil, ErrInvalidLocation
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if !req.Participant(proposerID) {
		return nil, ErrNotParticipant
	}
	if !req.Status.RequiresApprovalForChanges() {
		return nil, ErrNoApprovalNeeded
	}

	// Drop no-op fields; a proposal identical to the request is rejected
	// before anything is written.
	if location != nil && *location == req.Location {
		location = nil
	}
	if meetingTime != nil && meetingTime.Equal(req.MeetingTime) {
		meetingTime = nil
	}
	if location == nil && meetingTime == nil {
		return nil, ErrNoActualChange
	}

	pending, err := s.proposalRepo.GetPendingByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrPendingProposal
	}

	p := &domain.ChangeProposal{
		ID:                  uuid.New(),
		RequestID:           requestID,
		ProposedByID:        proposerID,
		ProposedLocation:    location,
		ProposedMeetingTime: meetingTime,
		Status:              domain.ProposalPending,
		CreatedAt:           time.Now(),
	}
	if err := s.proposalRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creating proposal: %w", err)
	}

	if err := s.chat.PostProposalMessage(ctx, requestID, p.ID, describeProposal(p)); err != nil {
		log.Printf("proposal: chat message for %s failed: %v", p.ID, err)
	}
	if s.notifier != nil {
		s.notifier.NotifyProposalCreated(p)
		if other := req.OtherParticipant(proposerID); other != nil {
			s.notifier.NotifyPush(*other, PushProposal, requestID)
		}
	}
	return p, nil
}

// Accept resolves a pending proposal in the proposer's favor: the
// proposal flips to accepted and the request's fields are overwritten
// in the same transaction. Only the counter-party may accept.
func (s *ProposalService) Accept(ctx context.Context, proposalID, responderID uuid.UUID) (*domain.ChangeProposal, error) {
	p, req, err := s.loadPending(ctx, proposalID, responderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.proposalRepo.AcceptAndApply(ctx, p, responderID, now); err != nil {
		return nil, fmt.Errorf("accepting proposal: %w", err)
	}
	p.Status = domain.ProposalAccepted
	p.RespondedAt = &now
	p.RespondedByID = &responderID

	// Bring the in-memory request up to date with what the transaction
	// wrote, so later full-row updates cannot revert accepted fields.
	if p.ProposedLocation != nil {
		req.Location = *p.ProposedLocation
	}
	if p.ProposedMeetingTime != nil {
		req.MeetingTime = *p.ProposedMeetingTime
	}

	// The meeting moved: the tasks scheduled for the old time must
	// follow. Task churn is best effort; the webhook is idempotent
	// against a stale task firing.
	if p.ProposedMeetingTime != nil {
		s.rescheduleTasks(ctx, req, *p.ProposedMeetingTime)
	}

	if err := s.chat.PostSystemMessage(ctx, req.ID, "The proposed change was accepted."); err != nil {
		log.Printf("proposal: accept message for %s failed: %v", p.ID, err)
	}
	s.notifyResolved(ctx, p, req.ID)
	return p, nil
}

// Decline resolves a pending proposal with no change to the request.
func (s *ProposalService) Decline(ctx context.Context, proposalID, responderID uuid.UUID) (*domain.ChangeProposal, error) {
	p, req, err := s.loadPending(ctx, proposalID, responderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.proposalRepo.Decline(ctx, p.ID, responderID, now); err != nil {
		return nil, fmt.Errorf("declining proposal: %w", err)
	}
	p.Status = domain.ProposalDeclined
	p.RespondedAt = &now
	p.RespondedByID = &responderID

	if err := s.chat.PostSystemMessage(ctx, req.ID, "The proposed change was declined."); err != nil {
		log.Printf("proposal: decline message for %s failed: %v", p.ID, err)
	}
	s.notifyResolved(ctx, p, req.ID)
	return p, nil
}

// Get returns a proposal by id for participants of its request.
func (s *ProposalService) Get(ctx context.Context, proposalID, userID uuid.UUID) (*domain.ChangeProposal, error) {
	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProposalNotFound
	}

	req, err := s.requestRepo.GetByID(ctx, p.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil || !req.Participant(userID) {
		return nil, ErrNotParticipant
	}
	return p, nil
}

// Pending returns the request's pending proposal, if any.
func (s *ProposalService) Pending(ctx context.Context, requestID, userID uuid.UUID) (*domain.ChangeProposal, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if !req.Participant(userID) {
		return nil, ErrNotParticipant
	}
	return s.proposalRepo.GetPendingByRequest(ctx, requestID)
}

func (s *ProposalService) loadPending(ctx context.Context, proposalID, responderID uuid.UUID) (*domain.ChangeProposal, *domain.SwipeRequest, error) {
	p, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, ErrProposalNotFound
	}
	if p.Status != domain.ProposalPending {
		return nil, nil, ErrProposalNotPending
	}
	if p.ProposedByID == responderID {
		return nil, nil, ErrOwnProposal
	}

	req, err := s.requestRepo.GetByID(ctx, p.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, ErrRequestNotFound
	}
	if !req.Participant(responderID) {
		return nil, nil, ErrNotParticipant
	}
	return p, req, nil
}

func (s *ProposalService) rescheduleTasks(ctx context.Context, req *domain.SwipeRequest, newTime time.Time) {
	if req.StartTaskName != nil {
		if err := s.scheduler.Cancel(ctx, *req.StartTaskName); err != nil {
			log.Printf("proposal: cancel task %s failed: %v", *req.StartTaskName, err)
		}
		req.StartTaskName = nil
	}
	if req.ReminderTaskName != nil {
		if err := s.scheduler.Cancel(ctx, *req.ReminderTaskName); err != nil {
			log.Printf("proposal: cancel task %s failed: %v", *req.ReminderTaskName, err)
		}
		req.ReminderTaskName = nil
	}

	taskName, err := s.scheduler.Schedule(ctx, newTime, req.ID, TaskStartMeeting)
	if err != nil {
		log.Printf("proposal: reschedule start task for %s failed: %v", req.ID, err)
	} else {
		req.StartTaskName = &taskName
	}

	if reminderAt := newTime.Add(-reminderLead); reminderAt.After(time.Now()) {
		reminderTask, err := s.scheduler.Schedule(ctx, reminderAt, req.ID, TaskMeetingReminder)
		if err != nil {
			log.Printf("proposal: reschedule reminder task for %s failed: %v", req.ID, err)
		} else {
			req.ReminderTaskName = &reminderTask
		}
	}

	if err := s.requestRepo.Update(ctx, req); err != nil {
		log.Printf("proposal: persisting task handles for %s failed: %v", req.ID, err)
	}
}

func (s *ProposalService) notifyResolved(ctx context.Context, p *domain.ChangeProposal, requestID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyProposalResolved(p)
	if req, err := s.requestRepo.GetByID(ctx, requestID); err == nil && req != nil {
		s.notifier.NotifyRequestUpdated(req)
	}
}

func describeProposal(p *domain.ChangeProposal) string {
	var parts []string
	if p.ProposedLocation != nil {
		parts = append(parts, fmt.Sprintf("location → %s", *p.ProposedLocation))
	}
	if p.ProposedMeetingTime != nil {
		parts = append(parts, fmt.Sprintf("time → %s", p.ProposedMeetingTime.Format("Mon 3:04 PM")))
	}
	return "Proposed change: " + strings.Join(parts, ", ")
}
