package handlers

import (
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

type RequestHandler struct {
	requestService *service.RequestService
}

func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

type createRequestInput struct {
	Location    domain.Location `json:"location"`
	MeetingTime time.Time       `json:"meeting_time"`
}

type editRequestInput struct {
	Location    *domain.Location `json:"location"`
	MeetingTime *time.Time       `json:"meeting_time"`
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input createRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	req, err := h.requestService.Create(r.Context(), userID, input.Location, input.MeetingTime)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLocation):
			writeError(w, http.StatusBadRequest, "INVALID_LOCATION", "Unknown campus location")
		case errors.Is(err, service.ErrMeetingTimeInPast):
			writeError(w, http.StatusBadRequest, "MEETING_TIME_IN_PAST", "Meeting time must be in the future")
		default:
			log.Printf("ERROR create request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reqs, err := h.requestService.ListOpen(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list open requests: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reqs, err := h.requestService.ListMine(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list my requests: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	req, err := h.requestService.Get(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		} else {
			log.Printf("ERROR get request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var input editRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	req, err := h.requestService.Edit(r.Context(), requestID, userID, input.Location, input.MeetingTime)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		case errors.Is(err, service.ErrNothingToEdit):
			writeError(w, http.StatusBadRequest, "NOTHING_TO_EDIT", "No fields to edit")
		case errors.Is(err, service.ErrInvalidLocation):
			writeError(w, http.StatusBadRequest, "INVALID_LOCATION", "Unknown campus location")
		case errors.Is(err, service.ErrMeetingTimeInPast):
			writeError(w, http.StatusBadRequest, "MEETING_TIME_IN_PAST", "Meeting time must be in the future")
		case errors.Is(err, service.ErrProposalRequired):
			writeError(w, http.StatusConflict, "PROPOSAL_REQUIRED", "Scheduled requests can only be edited through a change proposal")
		case errors.Is(err, service.ErrRequestNotEditable):
			writeError(w, http.StatusConflict, "NOT_EDITABLE", "Request can no longer be edited")
		default:
			log.Printf("ERROR edit request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	req, err := h.requestService.Accept(r.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		case errors.Is(err, service.ErrOwnRequest):
			writeError(w, http.StatusConflict, "OWN_REQUEST", "Cannot accept your own request")
		case errors.Is(err, service.ErrIllegalTransition):
			writeError(w, http.StatusConflict, "NOT_OPEN", "Request is no longer open")
		default:
			log.Printf("ERROR accept request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	req, err := h.requestService.Cancel(r.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		case errors.Is(err, service.ErrIllegalTransition):
			writeError(w, http.StatusConflict, "ALREADY_FINISHED", "Request is already in a terminal state")
		default:
			log.Printf("ERROR cancel request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) MarkSwiped(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	req, err := h.requestService.MarkSwiped(r.Context(), requestID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		case errors.Is(err, service.ErrIllegalTransition):
			writeError(w, http.StatusConflict, "NOT_IN_PROGRESS", "Meeting is not in progress")
		default:
			log.Printf("ERROR mark swiped: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid ID in URL")
		return uuid.Nil, false
	}
	return id, true
}
