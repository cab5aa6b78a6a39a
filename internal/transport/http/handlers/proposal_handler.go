package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwall29/swiply/internal/domain"
	"github.com/jwall29/swiply/internal/service"
	"github.com/jwall29/swiply/internal/transport/http/middleware"
)

type ProposalHandler struct {
	proposalService *service.ProposalService
}

func NewProposalHandler(proposalService *service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

type createProposalInput struct {
	Location    *domain.Location `json:"location"`
	MeetingTime *time.Time       `json:"meeting_time"`
}

func (h *ProposalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var input createProposalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	proposal, err := h.proposalService.Create(r.Context(), requestID, userID, input.Location, input.MeetingTime)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		case errors.Is(err, service.ErrNoApprovalNeeded):
			writeError(w, http.StatusConflict, "NO_APPROVAL_NEEDED", "Request status does not require change proposals")
		case errors.Is(err, service.ErrEmptyProposal):
			writeError(w, http.StatusBadRequest, "EMPTY_PROPOSAL", "Proposal must change the location or the meeting time")
		case errors.Is(err, service.ErrNoActualChange):
			writeError(w, http.StatusBadRequest, "NO_ACTUAL_CHANGE", "Proposed values match the current request")
		case errors.Is(err, service.ErrInvalidLocation):
			writeError(w, http.StatusBadRequest, "INVALID_LOCATION", "Unknown campus location")
		case errors.Is(err, service.ErrMeetingTimeInPast):
			writeError(w, http.StatusBadRequest, "MEETING_TIME_IN_PAST", "Meeting time must be in the future")
		case errors.Is(err, service.ErrPendingProposal):
			writeError(w, http.StatusConflict, "PENDING_PROPOSAL", "Another proposal is still pending for this request")
		default:
			log.Printf("ERROR create proposal: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, proposal)
}

func (h *ProposalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	proposal, err := h.proposalService.Pending(r.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		default:
			log.Printf("ERROR pending proposal: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"proposal": proposal})
}

func (h *ProposalHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	proposalID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	proposal, err := h.proposalService.Get(r.Context(), proposalID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProposalNotFound):
			writeError(w, http.StatusNotFound, "PROPOSAL_NOT_FOUND", "Change proposal not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		default:
			log.Printf("ERROR get proposal: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}

func (h *ProposalHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.proposalService.Accept)
}

func (h *ProposalHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.proposalService.Decline)
}

func (h *ProposalHandler) respond(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, proposalID, responderID uuid.UUID) (*domain.ChangeProposal, error)) {
	userID := middleware.GetUserID(r.Context())
	proposalID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	proposal, err := fn(r.Context(), proposalID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProposalNotFound):
			writeError(w, http.StatusNotFound, "PROPOSAL_NOT_FOUND", "Change proposal not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		case errors.Is(err, service.ErrOwnProposal):
			writeError(w, http.StatusConflict, "OWN_PROPOSAL", "Cannot respond to your own proposal")
		case errors.Is(err, service.ErrProposalNotPending):
			writeError(w, http.StatusConflict, "NOT_PENDING", "Change proposal is no longer pending")
		default:
			log.Printf("ERROR respond to proposal: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, proposal)
}
