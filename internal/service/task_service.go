package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/task-platform/internal/domain"
	"github.com/spec-kit/task-platform/internal/events"
	"github.com/spec-kit/task-platform/internal/repository"
	apperrors "github.com/spec-kit/task-platform/pkg/util"
)

// TaskService coordinates task workflows. Every operation takes the caller's
// verified user id; ownership is enforced in the repository's WHERE clauses,
// so a task owned by someone else is indistinguishable from a missing one.
type TaskService struct {
	tasks      repository.TaskRepository
	dispatcher events.Dispatcher
}

// NewTaskService constructs the service. dispatcher may be nil, in which
// case lifecycle events are not emitted.
func NewTaskService(tasks repository.TaskRepository, dispatcher events.Dispatcher) *TaskService {
	return &TaskService{tasks: tasks, dispatcher: dispatcher}
}

// publish emits a lifecycle event after a successful mutation. Event
// delivery never fails the mutation itself.
func (s *TaskService) publish(ctx context.Context, eventType events.EventType, taskID, userID int64, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TaskID:    taskID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

// TaskCreateInput describes task creation payload. Status and priority are
// optional and default to pending/medium.
type TaskCreateInput struct {
	Title            string
	Description      *string
	Status           domain.TaskStatus
	Priority         domain.TaskPriority
	DueDate          *time.Time
	EstimatedMinutes *int
}

// TaskUpdateInput carries partial-update fields; nil means "leave as is".
type TaskUpdateInput struct {
	Title            *string
	Description      *string
	Status           *domain.TaskStatus
	Priority         *domain.TaskPriority
	DueDate          *time.Time
	DueDateSet       bool
	EstimatedMinutes *int
}

// TaskListFilter narrows and orders a listing.
type TaskListFilter struct {
	Status    *domain.TaskStatus
	Priority  *domain.TaskPriority
	SortField string
	SortAsc   bool
}

// Create validates and persists a new task owned by userID.
func (s *TaskService) Create(ctx context.Context, userID int64, input TaskCreateInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("'title' is required", nil)
	}
	if err := validateTaskFields(title, input.Status, input.Priority, input.EstimatedMinutes); err != nil {
		return nil, err
	}

	task := &domain.Task{
		UserID:           userID,
		Title:            title,
		Description:      input.Description,
		Status:           input.Status,
		Priority:         input.Priority,
		DueDate:          input.DueDate,
		EstimatedMinutes: input.EstimatedMinutes,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTaskCreated, task.ID, userID, events.TaskCreatedPayload{
		Title:    task.Title,
		Status:   task.Status,
		Priority: task.Priority,
	})
	return task, nil
}

// List returns the caller's tasks, optionally filtered and sorted.
func (s *TaskService) List(ctx context.Context, userID int64, filter TaskListFilter) ([]domain.Task, error) {
	if filter.Status != nil && !domain.ValidStatus(*filter.Status) {
		return nil, invalidStatusError()
	}
	if filter.Priority != nil && !domain.ValidPriority(*filter.Priority) {
		return nil, invalidPriorityError()
	}
	return s.tasks.List(ctx, userID, repository.TaskFilter{
		Status:    filter.Status,
		Priority:  filter.Priority,
		SortField: filter.SortField,
		SortAsc:   filter.SortAsc,
	})
}

// Get fetches one of the caller's tasks by id.
func (s *TaskService) Get(ctx context.Context, userID, taskID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, mapTaskError(err)
	}
	return task, nil
}

// Update applies a partial update to one of the caller's tasks.
func (s *TaskService) Update(ctx context.Context, userID, taskID int64, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, mapTaskError(err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("'title' is required", nil)
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, invalidStatusError()
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, invalidPriorityError()
		}
		task.Priority = *input.Priority
	}
	if input.DueDateSet {
		task.DueDate = input.DueDate
	}
	if input.EstimatedMinutes != nil {
		task.EstimatedMinutes = input.EstimatedMinutes
	}

	if err := validateTaskFields(task.Title, task.Status, task.Priority, task.EstimatedMinutes); err != nil {
		return nil, err
	}

	if err := s.tasks.Update(ctx, userID, task); err != nil {
		return nil, mapTaskError(err)
	}
	s.publish(ctx, events.EventTaskUpdated, task.ID, userID, events.TaskUpdatedPayload{
		Title:    task.Title,
		Status:   task.Status,
		Priority: task.Priority,
	})
	return task, nil
}

// UpdateStatus transitions only the status of one of the caller's tasks.
func (s *TaskService) UpdateStatus(ctx context.Context, userID, taskID int64, status domain.TaskStatus) (*domain.Task, error) {
	if !domain.ValidStatus(status) {
		return nil, invalidStatusError()
	}
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, mapTaskError(err)
	}
	oldStatus := task.Status
	task.Status = status
	if err := s.tasks.Update(ctx, userID, task); err != nil {
		return nil, mapTaskError(err)
	}
	s.publish(ctx, events.EventTaskStatusChanged, task.ID, userID, events.TaskStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: status,
	})
	return task, nil
}

// Delete removes one of the caller's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) error {
	if err := s.tasks.Delete(ctx, userID, taskID); err != nil {
		return mapTaskError(err)
	}
	s.publish(ctx, events.EventTaskDeleted, taskID, userID, nil)
	return nil
}

// validateTaskFields checks the shared field rules: title bound, enum
// membership (case-sensitive), and estimate positivity. An empty status or
// priority is allowed here so Create can default it; an explicit value in a
// partial update is validated where it is assigned.
func validateTaskFields(title string, status domain.TaskStatus, priority domain.TaskPriority, estimatedMinutes *int) error {
	if utf8.RuneCountInString(title) > domain.TitleMaxLen {
		return apperrors.NewValidationError("title must be 200 characters or less", nil)
	}
	if status != "" && !domain.ValidStatus(status) {
		return invalidStatusError()
	}
	if priority != "" && !domain.ValidPriority(priority) {
		return invalidPriorityError()
	}
	if estimatedMinutes != nil && *estimatedMinutes < 1 {
		return apperrors.NewValidationError("estimated_minutes must be a positive integer", nil)
	}
	return nil
}

func invalidStatusError() error {
	return apperrors.NewValidationError(
		fmt.Sprintf("invalid status, must be one of: %v", domain.Statuses()), nil)
}

func invalidPriorityError() error {
	return apperrors.NewValidationError(
		fmt.Sprintf("invalid priority, must be one of: %v", domain.Priorities()), nil)
}

// mapTaskError collapses repository row absence into the uniform not-found
// signal. An id owned by another user never matches the owner-scoped query,
// so cross-user access lands here as well.
func mapTaskError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("task")
	}
	return err
}
