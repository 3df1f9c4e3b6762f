package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/task-platform/internal/api/dto"
)

// APIError is a structured error returned by the auth or task service. The
// message is safe to show to the user.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from a downstream service.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

type apiClient struct {
	baseURL string
	client  *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) apiClient {
	return apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c apiClient) do(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: "UPSTREAM_ERROR", Message: "request failed"}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// AuthClient calls the auth service.
type AuthClient struct {
	apiClient
}

// NewAuthClient constructs a client with a per-request timeout.
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{newAPIClient(baseURL, timeout)}
}

// Register creates a new account.
func (c *AuthClient) Register(ctx context.Context, username, email, password string) error {
	payload := dto.RegisterRequest{Username: username, Email: email, Password: password}
	return c.do(ctx, http.MethodPost, "/api/auth/register", "", payload, nil)
}

// Login exchanges credentials for a bearer token.
func (c *AuthClient) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	payload := dto.LoginRequest{Username: username, Password: password}
	var out dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify confirms token validity and returns the identity it carries.
func (c *AuthClient) Verify(ctx context.Context, token string) (*dto.VerifyResponse, error) {
	var out dto.VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/verify", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TaskClient calls the task service on behalf of a logged-in user.
type TaskClient struct {
	apiClient
}

// NewTaskClient constructs a client with a per-request timeout.
func NewTaskClient(baseURL string, timeout time.Duration) *TaskClient {
	return &TaskClient{newAPIClient(baseURL, timeout)}
}

// TaskListQuery narrows and orders the listing. Zero values mean no filter
// and the service's default ordering.
type TaskListQuery struct {
	Status   string
	Priority string
	Sort     string
	Order    string
}

func (q TaskListQuery) encode() string {
	values := url.Values{}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.Priority != "" {
		values.Set("priority", q.Priority)
	}
	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// List returns the user's tasks.
func (c *TaskClient) List(ctx context.Context, token string, query TaskListQuery) (*dto.TaskListResponse, error) {
	var out dto.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks"+query.encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a single task.
func (c *TaskClient) Get(ctx context.Context, token string, id int64) (*dto.TaskResponse, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+strconv.FormatInt(id, 10), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates a task.
func (c *TaskClient) Create(ctx context.Context, token string, req dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/tasks", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update.
func (c *TaskClient) Update(ctx context.Context, token string, id int64, req dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	var out dto.TaskResponse
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+strconv.FormatInt(id, 10), token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus transitions a task's status.
func (c *TaskClient) UpdateStatus(ctx context.Context, token string, id int64, status string) (*dto.TaskResponse, error) {
	var out dto.TaskResponse
	req := dto.UpdateStatusRequest{Status: &status}
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+strconv.FormatInt(id, 10)+"/status", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a task.
func (c *TaskClient) Delete(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+strconv.FormatInt(id, 10), token, nil, nil)
}
