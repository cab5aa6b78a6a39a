package scheduler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwall29/swiply/internal/service"
)

// WebhookHandler receives the task service's delayed callbacks and
// moves the named request from scheduled to in progress.
type WebhookHandler struct {
	requests *service.RequestService
	secret   string
}

func NewWebhookHandler(requests *service.RequestService, secret string) *WebhookHandler {
	return &WebhookHandler{requests: requests, secret: secret}
}

type webhookPayload struct {
	RequestID uuid.UUID        `json:"request_id"`
	Kind      service.TaskKind `json:"kind"`
}

// UpdateRequestStatus handles POST /api/v1/tasks/update-request-status.
// The task kind decides the action: start tasks advance the request,
// reminder tasks only notify. A request that was canceled or already
// advanced is acknowledged with 200 so the task service does not
// retry; store failures return 500 so it does.
func (h *WebhookHandler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" || r.Header.Get("X-Task-Secret") != h.secret {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RequestID == uuid.Nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var err error
	switch payload.Kind {
	case service.TaskStartMeeting:
		err = h.requests.StartMeeting(r.Context(), payload.RequestID)
	case service.TaskMeetingReminder:
		err = h.requests.RemindMeeting(r.Context(), payload.RequestID)
	default:
		http.Error(w, "unknown task kind", http.StatusBadRequest)
		return
	}

	switch {
	case err == nil, errors.Is(err, service.ErrRequestNotFound):
		w.WriteHeader(http.StatusOK)
	default:
		log.Printf("task webhook: %s for %s: %v", payload.Kind, payload.RequestID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
