// Package scheduler talks to the external task service that fires
// delayed status-transition callbacks.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/jwall29/swiply/internal/service"
)

// Client schedules and cancels delayed tasks over the task service's
// HTTP API. It implements service.TaskScheduler.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

type scheduleRequest struct {
	RunAt   time.Time       `json:"run_at"`
	Payload schedulePayload `json:"payload"`
}

// schedulePayload is echoed back verbatim on the callback webhook; the
// kind tells the webhook which action the task stands for.
type schedulePayload struct {
	RequestID uuid.UUID        `json:"request_id"`
	Kind      service.TaskKind `json:"kind"`
}

type scheduleResponse struct {
	TaskName string `json:"task_name"`
}

// Schedule registers a task that fires at runAt and returns its opaque
// name, used later to cancel it.
func (c *Client) Schedule(ctx context.Context, runAt time.Time, requestID uuid.UUID, kind service.TaskKind) (string, error) {
	body, err := json.Marshal(scheduleRequest{
		RunAt:   runAt,
		Payload: schedulePayload{RequestID: requestID, Kind: kind},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling task: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("scheduling task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("scheduling task: unexpected status %d", resp.StatusCode)
	}

	var out scheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding task response: %w", err)
	}
	if out.TaskName == "" {
		return "", fmt.Errorf("scheduling task: empty task name")
	}
	return out.TaskName, nil
}

// Cancel deletes a scheduled task. A task that already fired or was
// already deleted is not an error.
func (c *Client) Cancel(ctx context.Context, taskName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/tasks/"+url.PathEscape(taskName), nil)
	if err != nil {
		return fmt.Errorf("building cancel request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("canceling task: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("canceling task: unexpected status %d", resp.StatusCode)
	}
}
