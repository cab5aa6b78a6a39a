package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jwall29/swiply/internal/service"
	"github.com/jwall29/swiply/internal/transport/http/middleware"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

type submitReviewInput struct {
	Rating int `json:"rating"`
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	requestID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var input submitReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	review, err := h.reviewService.Submit(r.Context(), requestID, userID, input.Rating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "Swipe request not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this request")
		case errors.Is(err, service.ErrRatingOutOfRange):
			writeError(w, http.StatusBadRequest, "RATING_OUT_OF_RANGE", "Rating must be between 1 and 5")
		case errors.Is(err, service.ErrNotAwaitingReview):
			writeError(w, http.StatusConflict, "NOT_AWAITING_REVIEW", "Request is not awaiting review")
		case errors.Is(err, service.ErrAlreadyReviewed):
			writeError(w, http.StatusConflict, "ALREADY_REVIEWED", "You already reviewed this request")
		case errors.Is(err, service.ErrNoCounterparty):
			writeError(w, http.StatusConflict, "NO_COUNTERPARTY", "Request has no one to review")
		default:
			log.Printf("ERROR submit review: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.reviewService.Stats(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR rating stats: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ReviewHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	reminders, err := h.reviewService.Reminders(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list review reminders: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}
