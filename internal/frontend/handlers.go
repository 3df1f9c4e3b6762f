package frontend

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/task-platform/internal/api/dto"
	"github.com/spec-kit/task-platform/internal/domain"
)

const dateInputLayout = "2006-01-02"

// Handlers serve the server-rendered pages. All state lives in the session
// store; the handlers themselves only translate forms to API calls.
type Handlers struct {
	renderer *Renderer
	sessions *SessionManager
	auth     *AuthClient
	tasks    *TaskClient
	logger   *zap.Logger
}

// NewHandlers constructs the page handlers.
func NewHandlers(renderer *Renderer, sessions *SessionManager, auth *AuthClient, tasks *TaskClient, logger *zap.Logger) *Handlers {
	return &Handlers{renderer: renderer, sessions: sessions, auth: auth, tasks: tasks, logger: logger}
}

type credentialsForm struct {
	Username string
	Email    string
}

type taskView struct {
	ID               int64
	Title            string
	Description      *string
	Status           string
	Priority         string
	DueDate          *time.Time
	DueDateValue     string
	EstimatedMinutes *int
}

type pageData struct {
	Title      string
	LoggedIn   bool
	Error      string
	Notice     string
	Form       credentialsForm
	Query      TaskListQuery
	Tasks      []taskView
	Task       taskView
	Statuses   []string
	Priorities []string
}

func newPageData(title string, loggedIn bool) pageData {
	return pageData{
		Title:      title,
		LoggedIn:   loggedIn,
		Statuses:   enumStrings(domain.Statuses()),
		Priorities: enumStrings(domain.Priorities()),
	}
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func viewFromResponse(task *dto.TaskResponse) taskView {
	view := taskView{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		Status:           task.Status,
		Priority:         task.Priority,
		DueDate:          task.DueDate,
		EstimatedMinutes: task.EstimatedMinutes,
	}
	if task.DueDate != nil {
		view.DueDateValue = task.DueDate.Format(dateInputLayout)
	}
	return view
}

// LoginPage renders the login form. An active session skips straight to
// the task list.
func (h *Handlers) LoginPage(c *fiber.Ctx) error {
	if _, err := h.sessions.Token(c); err == nil {
		return c.Redirect("/", fiber.StatusFound)
	}
	data := newPageData("Log in", false)
	if c.Query("registered") == "1" {
		data.Notice = "Account created. Log in to continue."
	}
	if c.Query("expired") == "1" {
		data.Notice = "Your session expired. Log in again."
	}
	return h.renderer.Render(c, "login", data)
}

// Login handles the login form post.
func (h *Handlers) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	result, err := h.auth.Login(c.UserContext(), username, password)
	if err != nil {
		data := newPageData("Log in", false)
		data.Form.Username = username
		data.Error = userMessage(err)
		return h.renderer.Render(c, "login", data)
	}

	if err := h.sessions.Begin(c, result.Token); err != nil {
		h.logger.Error("creating session", zap.Error(err))
		data := newPageData("Log in", false)
		data.Form.Username = username
		data.Error = "Something went wrong. Try again."
		return h.renderer.Render(c, "login", data)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// RegisterPage renders the registration form.
func (h *Handlers) RegisterPage(c *fiber.Ctx) error {
	return h.renderer.Render(c, "register", newPageData("Register", false))
}

// Register handles the registration form post.
func (h *Handlers) Register(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	if err := h.auth.Register(c.UserContext(), username, email, password); err != nil {
		data := newPageData("Register", false)
		data.Form = credentialsForm{Username: username, Email: email}
		data.Error = userMessage(err)
		return h.renderer.Render(c, "register", data)
	}
	return c.Redirect("/login?registered=1", fiber.StatusFound)
}

// Logout ends the session.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := h.sessions.End(c); err != nil {
		h.logger.Warn("ending session", zap.Error(err))
	}
	return c.Redirect("/login", fiber.StatusFound)
}

// TaskList renders the task list with optional filters.
func (h *Handlers) TaskList(c *fiber.Ctx) error {
	token, redirect := h.requireToken(c)
	if redirect != nil {
		return redirect(c)
	}

	query := TaskListQuery{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
	}
	list, err := h.tasks.List(c.UserContext(), token, query)
	if err != nil {
		return h.taskError(c, err)
	}

	data := newPageData("Tasks", true)
	data.Query = query
	data.Tasks = make([]taskView, 0, len(list.Tasks))
	for i := range list.Tasks {
		data.Tasks = append(data.Tasks, viewFromResponse(&list.Tasks[i]))
	}
	return h.renderer.Render(c, "tasks", data)
}

// NewTaskPage renders an empty task form.
func (h *Handlers) NewTaskPage(c *fiber.Ctx) error {
	if _, redirect := h.requireToken(c); redirect != nil {
		return redirect(c)
	}
	data := newPageData("New task", true)
	data.Task = taskView{Status: string(domain.TaskStatusPending), Priority: string(domain.TaskPriorityMedium)}
	return h.renderer.Render(c, "task_form", data)
}

// CreateTask handles the new-task form post.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	token, redirect := h.requireToken(c)
	if redirect != nil {
		return redirect(c)
	}

	req := taskRequestFromForm(c)
	created, err := h.tasks.Create(c.UserContext(), token, req)
	if err != nil {
		data := newPageData("New task", true)
		data.Task = formView(0, req)
		data.Error = userMessage(err)
		return h.renderer.Render(c, "task_form", data)
	}
	return c.Redirect("/tasks/"+strconv.FormatInt(created.ID, 10), fiber.StatusFound)
}

// TaskDetail renders a single task.
func (h *Handlers) TaskDetail(c *fiber.Ctx) error {
	token, redirect := h.requireToken(c)
	if redirect != nil {
		return redirect(c)
	}
	id, err := parsePathID(c)
	if err != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	task, err := h.tasks.Get(c.UserContext(), token, id)
	if err != nil {
		return h.taskError(c, err)
	}

	data := newPageData(task.Title, true)
	data.Task = viewFromResponse(task)
	return h.renderer.Render(c, "task_detail", data)
}

// EditTaskPage renders the edit form prefilled with the task.
func (h *Handlers) EditTaskPage(c *fiber.Ctx) error {
	token, redirect := h.requireToken(c)
	if redirect != nil {
		return redirect(c)
	}
	id, err := parsePathID(c)
	if err != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	task, err := h.tasks.Get(c.UserContext(), token, id)
	if err != nil {
		return h.taskError(c, err)
	}

	data := newPageData("Edit task", true)
	data.Task = viewFromResponse(task)
	return h.renderer.Render(c, "task_form", data)
}

// UpdateTask handles the edit form post.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	token, redirect := h.requireToken(c)
	if redirect != nil {
		return redirect(c)
	}
	id, err := parsePathID(c)
	if err != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	createReq := taskRequestFromForm(c)
	updateReq := dto.UpdateTaskRequest{
		Title:            &createReq.Title,
		Description:      createReq.Description,
		Status:           &createReq.Status,
		Priority:         &createReq.Priority,
		DueDate:          createReq.DueDate,
		EstimatedMinutes: createReq.EstimatedMinutes,
	}
	if _, err := h.tasks.Update(c.UserContext(), token, id, updateReq); err != nil {
		data := newPageData("Edit task", true)
		data.Task = formView(id, createReq)
		data.Error = userMessage(err)
		return h.renderer.Render(c, "task_form", data)
	}
	return c.Redirect("/tasks/"+strconv.FormatInt(id, 10), fiber.StatusFound)
}

// UpdateTaskStatus handles the status-only transition post.
func (h *Handlers) UpdateTaskStatus(c *fiber.Ctx) error {
	token, redirect := h.requireToken(c)
	if redirect != nil {
		return redirect(c)
	}
	id, err := parsePathID(c)
	if err != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	if _, err := h.tasks.UpdateStatus(c.UserContext(), token, id, c.FormValue("status")); err != nil {
		return h.taskError(c, err)
	}
	return c.Redirect("/tasks/"+strconv.FormatInt(id, 10), fiber.StatusFound)
}

// DeleteTask handles the delete post.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	token, redirect := h.requireToken(c)
	if redirect != nil {
		return redirect(c)
	}
	id, err := parsePathID(c)
	if err != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	if err := h.tasks.Delete(c.UserContext(), token, id); err != nil {
		return h.taskError(c, err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// requireToken resolves the session token or produces a login redirect.
func (h *Handlers) requireToken(c *fiber.Ctx) (string, fiber.Handler) {
	token, err := h.sessions.Token(c)
	if err != nil {
		return "", func(c *fiber.Ctx) error {
			return c.Redirect("/login", fiber.StatusFound)
		}
	}
	return token, nil
}

// taskError sends expired sessions back to login; anything else renders
// the list page with a flash message.
func (h *Handlers) taskError(c *fiber.Ctx, err error) error {
	if IsUnauthorized(err) {
		if endErr := h.sessions.End(c); endErr != nil {
			h.logger.Warn("ending session", zap.Error(endErr))
		}
		return c.Redirect("/login?expired=1", fiber.StatusFound)
	}
	h.logger.Warn("task request failed", zap.Error(err))
	data := newPageData("Tasks", true)
	data.Error = userMessage(err)
	return h.renderer.Render(c, "tasks", data)
}

func parsePathID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func taskRequestFromForm(c *fiber.Ctx) dto.CreateTaskRequest {
	req := dto.CreateTaskRequest{
		Title:    strings.TrimSpace(c.FormValue("title")),
		Status:   c.FormValue("status"),
		Priority: c.FormValue("priority"),
	}
	if desc := strings.TrimSpace(c.FormValue("description")); desc != "" {
		req.Description = &desc
	}
	if raw := strings.TrimSpace(c.FormValue("due_date")); raw != "" {
		if day, err := time.Parse(dateInputLayout, raw); err == nil {
			iso := day.UTC().Format(time.RFC3339)
			req.DueDate = &iso
		}
	}
	if raw := strings.TrimSpace(c.FormValue("estimated_minutes")); raw != "" {
		if minutes, err := strconv.Atoi(raw); err == nil {
			req.EstimatedMinutes = &minutes
		}
	}
	return req
}

func formView(id int64, req dto.CreateTaskRequest) taskView {
	view := taskView{
		ID:               id,
		Title:            req.Title,
		Description:      req.Description,
		Status:           req.Status,
		Priority:         req.Priority,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	if req.DueDate != nil {
		if parsed, err := time.Parse(time.RFC3339, *req.DueDate); err == nil {
			view.DueDateValue = parsed.Format(dateInputLayout)
		}
	}
	return view
}

// userMessage keeps internal failures vague while passing through the
// structured messages downstream services already phrase for users.
func userMessage(err error) string {
	if apiErr, ok := err.(*APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Try again."
}
