package dto

import (
	"time"

	"github.com/spec-kit/task-platform/internal/domain"
)

// CreateTaskRequest payload. Status and priority default server-side when
// omitted; due_date is an RFC 3339 string.
type CreateTaskRequest struct {
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	Status           string  `json:"status"`
	Priority         string  `json:"priority"`
	DueDate          *string `json:"due_date"`
	EstimatedMinutes *int    `json:"estimated_minutes"`
}

// UpdateTaskRequest carries partial-update fields; absent fields stay
// unchanged.
type UpdateTaskRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	Status           *string `json:"status"`
	Priority         *string `json:"priority"`
	DueDate          *string `json:"due_date"`
	EstimatedMinutes *int    `json:"estimated_minutes"`
}

// UpdateStatusRequest payload for the status-only transition endpoint.
type UpdateStatusRequest struct {
	Status *string `json:"status"`
}

// TaskResponse is the wire form of a task. Timestamps are UTC RFC 3339.
type TaskResponse struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	DueDate          *time.Time `json:"due_date"`
	EstimatedMinutes *int       `json:"estimated_minutes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TaskListResponse wraps a listing with its count.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// NewTaskResponse converts a domain task to its wire form.
func NewTaskResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:               task.ID,
		UserID:           task.UserID,
		Title:            task.Title,
		Description:      task.Description,
		Status:           string(task.Status),
		Priority:         string(task.Priority),
		EstimatedMinutes: task.EstimatedMinutes,
		CreatedAt:        task.CreatedAt.UTC(),
		UpdatedAt:        task.UpdatedAt.UTC(),
	}
	if task.DueDate != nil {
		utc := task.DueDate.UTC()
		resp.DueDate = &utc
	}
	return resp
}

// NewTaskListResponse converts a slice of domain tasks.
func NewTaskListResponse(tasks []domain.Task) TaskListResponse {
	items := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, NewTaskResponse(&tasks[i]))
	}
	return TaskListResponse{Tasks: items, Count: len(items)}
}
