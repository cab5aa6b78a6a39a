package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwall29/swiply/internal/service"
)

func TestSchedule(t *testing.T) {
	requestID := uuid.New()
	runAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tasks", r.URL.Path)

		var body struct {
			RunAt   time.Time `json:"run_at"`
			Payload struct {
				RequestID uuid.UUID `json:"request_id"`
				Kind      string    `json:"kind"`
			} `json:"payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.RunAt.Equal(runAt))
		assert.Equal(t, requestID, body.Payload.RequestID)
		assert.Equal(t, string(service.TaskStartMeeting), body.Payload.Kind)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"task_name": "tasks/abc123"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	name, err := c.Schedule(context.Background(), runAt, requestID, service.TaskStartMeeting)
	require.NoError(t, err)
	assert.Equal(t, "tasks/abc123", name)
}

func TestScheduleServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Schedule(context.Background(), time.Now().Add(time.Hour), uuid.New(), service.TaskStartMeeting)
	assert.Error(t, err)
}

func TestCancel(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Cancel(context.Background(), "tasks/abc123"))
	assert.Equal(t, "/tasks/tasks%2Fabc123", gotPath)
}

func TestCancelMissingTaskIsFine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	assert.NoError(t, c.Cancel(context.Background(), "tasks/gone"))
}
