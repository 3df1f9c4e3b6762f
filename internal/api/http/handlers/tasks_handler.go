package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/task-platform/internal/api/dto"
	"github.com/spec-kit/task-platform/internal/auth"
	"github.com/spec-kit/task-platform/internal/domain"
	"github.com/spec-kit/task-platform/internal/service"
	apperrors "github.com/spec-kit/task-platform/pkg/util"
)

// TasksHandler exposes the owner-scoped task CRUD endpoints. The caller's
// identity always comes from the verified token, never from the payload.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: taskService}
}

// List handles GET /api/tasks with optional status, priority, sort, and
// order query parameters.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	filter := service.TaskListFilter{SortField: c.Query("sort", "created_at")}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.TaskStatus(raw)
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("priority")); raw != "" {
		priority := domain.TaskPriority(raw)
		filter.Priority = &priority
	}
	filter.SortAsc = strings.EqualFold(c.Query("order", "desc"), "asc")

	tasks, err := h.tasks.List(c.Context(), principal.UserID, filter)
	if err != nil {
		return err
	}

	return c.JSON(dto.NewTaskListResponse(tasks))
}

// Get handles GET /api/tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.Get(c.Context(), principal.UserID, taskID)
	if err != nil {
		return err
	}

	return c.JSON(dto.NewTaskResponse(task))
}

// Create handles POST /api/tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TaskCreateInput{
		Title:            req.Title,
		Description:      req.Description,
		Status:           domain.TaskStatus(req.Status),
		Priority:         domain.TaskPriority(req.Priority),
		EstimatedMinutes: req.EstimatedMinutes,
	}
	input.DueDate, err = parseDueDate(req.DueDate)
	if err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Context(), principal.UserID, input)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.NewTaskResponse(task))
}

// Update handles PUT /api/tasks/:id with partial semantics: absent fields
// stay as they are.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TaskUpdateInput{
		Title:            req.Title,
		Description:      req.Description,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.DueDate != nil {
		input.DueDate, err = parseDueDate(req.DueDate)
		if err != nil {
			return err
		}
		input.DueDateSet = true
	}

	task, err := h.tasks.Update(c.Context(), principal.UserID, taskID, input)
	if err != nil {
		return err
	}

	return c.JSON(dto.NewTaskResponse(task))
}

// UpdateStatus handles PATCH /api/tasks/:id/status.
func (h *TasksHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == nil {
		return apperrors.NewValidationError("status is required", nil)
	}

	task, err := h.tasks.UpdateStatus(c.Context(), principal.UserID, taskID, domain.TaskStatus(*req.Status))
	if err != nil {
		return err
	}

	return c.JSON(dto.NewTaskResponse(task))
}

// Delete handles DELETE /api/tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	if err := h.tasks.Delete(c.Context(), principal.UserID, taskID); err != nil {
		return err
	}

	return c.SendStatus(http.StatusNoContent)
}

// requirePrincipal fetches the authenticated caller placed in the request
// context by the auth middleware.
func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("missing or invalid authorization header")
	}
	return principal, nil
}

// parseTaskID treats a non-numeric id the same as an unknown one so the
// route leaks nothing about what ids exist.
func parseTaskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("task")
	}
	return id, nil
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, apperrors.NewValidationError("due_date must be RFC 3339 formatted", nil)
	}
	return &parsed, nil
}
