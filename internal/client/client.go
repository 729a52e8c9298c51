// Package client is a Go client for the transcription API. It submits recordings,
// polls task status and requests meeting minutes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codebuildervaibhav/meeting-assistant/internal/minutes"
	"github.com/codebuildervaibhav/meeting-assistant/internal/types"
)

// Polling defaults used by Wait when zero values are passed
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 600 * time.Second
)

var (
	// ErrPollTimeout is returned when a task is still running when the polling ceiling is reached
	ErrPollTimeout = errors.New("transcription timed out")
	// ErrTaskNotFound is returned when the server does not know the task id
	ErrTaskNotFound = errors.New("task not found")
)

// APIError is an error answer from the server
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// SubmitResponse is the answer to an accepted upload
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// StatusResponse is a task status snapshot
type StatusResponse struct {
	TaskID        string           `json:"task_id"`
	Status        types.TaskStatus `json:"status"`
	Transcription *string          `json:"transcription,omitempty"`
	Error         *string          `json:"error,omitempty"`
}

// Client talks to one server
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL, e.g. http://localhost:8401
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Submit uploads the audio file at path
func (c *Client) Submit(ctx context.Context, path string) (SubmitResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return SubmitResponse{}, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return SubmitResponse{}, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return SubmitResponse{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return SubmitResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/transcribe", &body)
	if err != nil {
		return SubmitResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out SubmitResponse
	if err := c.do(req, &out); err != nil {
		return SubmitResponse{}, fmt.Errorf("failed to submit transcription task: %w", err)
	}
	return out, nil
}

// Status fetches the current state of a task
func (c *Client) Status(ctx context.Context, taskID string) (StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/job/"+url.PathEscape(taskID), nil)
	if err != nil {
		return StatusResponse{}, err
	}

	var out StatusResponse
	if err := c.do(req, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return StatusResponse{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return StatusResponse{}, err
	}
	return out, nil
}

// Wait polls until the task reaches a terminal state or timeout elapses.
// Transient errors are retried until half of timeout has passed.
func (c *Client) Wait(ctx context.Context, taskID string, interval, timeout time.Duration) (StatusResponse, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	start := time.Now()

	for {
		status, err := c.Status(ctx, taskID)
		delay := interval
		switch {
		case err == nil:
			if status.Status.IsTerminal() {
				return status, nil
			}
		case errors.Is(err, ErrTaskNotFound), ctx.Err() != nil:
			return StatusResponse{}, err
		default:
			if time.Since(start) > timeout/2 {
				return StatusResponse{}, fmt.Errorf("error while querying status: %w", err)
			}
			delay = 2 * interval
		}

		if time.Since(start) > timeout {
			return status, ErrPollTimeout
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return StatusResponse{}, ctx.Err()
		}
	}
}

// Minutes asks the server to generate meeting minutes
func (c *Client) Minutes(ctx context.Context, in minutes.Request) (minutes.Result, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return minutes.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/minutes", bytes.NewReader(payload))
	if err != nil {
		return minutes.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out minutes.Result
	if err := c.do(req, &out); err != nil {
		return minutes.Result{}, fmt.Errorf("failed to generate minutes: %w", err)
	}
	return out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	return json.Unmarshal(raw, out)
}
