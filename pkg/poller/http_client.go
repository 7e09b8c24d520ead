package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient is a StatusClient backed by the summarizer service's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates an HTTPClient for the service at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// statusResponse mirrors the task_status endpoint's JSON body.
type statusResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Progress struct {
		TotalItems         int    `json:"total_items"`
		CompletedItems     int    `json:"completed_items"`
		ProgressPercentage int    `json:"progress_percentage"`
		CurrentItemDetails string `json:"current_item_details"`
	} `json:"progress"`
	Errors []struct {
		Item  string `json:"item"`
		Error string `json:"error"`
	} `json:"errors"`
}

// TaskStatus fetches one status snapshot.
func (c *HTTPClient) TaskStatus(ctx context.Context, taskID string) (Status, error) {
	endpoint := fmt.Sprintf("%s/task_status/%s", c.baseURL, url.PathEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Status{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Status{}, fmt.Errorf("task %s not found", taskID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Status{}, fmt.Errorf("status endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Status{}, err
	}

	status := Status{
		TaskID:          sr.TaskID,
		State:           sr.Status,
		TotalItems:      sr.Progress.TotalItems,
		CompletedItems:  sr.Progress.CompletedItems,
		ProgressPercent: sr.Progress.ProgressPercentage,
		CurrentDetails:  sr.Progress.CurrentItemDetails,
	}
	for _, e := range sr.Errors {
		status.Errors = append(status.Errors, fmt.Sprintf("%s: %s", e.Item, e.Error))
	}
	return status, nil
}
