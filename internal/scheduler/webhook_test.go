package scheduler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebhookRejectsBadSecret(t *testing.T) {
	h := NewWebhookHandler(nil, "task-secret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/update-request-status",
		strings.NewReader(`{"request_id":"4b1c8f4e-9a9f-4d2f-b8a4-0f6f1c2d3e4f"}`))
	req.Header.Set("X-Task-Secret", "wrong")
	rec := httptest.NewRecorder()

	h.UpdateRequestStatus(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsEmptySecretConfig(t *testing.T) {
	// An unset secret never authorizes, even an empty header match.
	h := NewWebhookHandler(nil, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/update-request-status",
		strings.NewReader(`{"request_id":"4b1c8f4e-9a9f-4d2f-b8a4-0f6f1c2d3e4f"}`))
	rec := httptest.NewRecorder()

	h.UpdateRequestStatus(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	h := NewWebhookHandler(nil, "task-secret")

	for _, body := range []string{`not json`, `{}`, `{"request_id":"nope"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/update-request-status",
			strings.NewReader(body))
		req.Header.Set("X-Task-Secret", "task-secret")
		rec := httptest.NewRecorder()

		h.UpdateRequestStatus(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestWebhookRejectsUnknownTaskKind(t *testing.T) {
	h := NewWebhookHandler(nil, "task-secret")

	// A payload without a recognized kind must never reach the request
	// service; the rejection happens before any lookup.
	for _, body := range []string{
		`{"request_id":"4b1c8f4e-9a9f-4d2f-b8a4-0f6f1c2d3e4f"}`,
		`{"request_id":"4b1c8f4e-9a9f-4d2f-b8a4-0f6f1c2d3e4f","kind":"resize_disk"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/update-request-status",
			strings.NewReader(body))
		req.Header.Set("X-Task-Secret", "task-secret")
		rec := httptest.NewRecorder()

		h.UpdateRequestStatus(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}
