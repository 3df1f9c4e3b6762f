package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/task-platform/internal/domain"
)

// TaskFilter narrows and orders a task listing. Sort fields outside the
// whitelist silently fall back to created_at.
type TaskFilter struct {
	Status    *domain.TaskStatus
	Priority  *domain.TaskPriority
	SortField string
	SortAsc   bool
}

// sortColumns whitelists client-facing sort fields. Interpolating anything
// else into ORDER BY would be an injection vector.
var sortColumns = map[string]string{
	"created_at":        "created_at",
	"updated_at":        "updated_at",
	"due_date":          "due_date",
	"title":             "title",
	"status":            "status",
	"priority":          "priority",
	"estimated_minutes": "estimated_minutes",
	"id":                "id",
}

// TaskRepository encapsulates task persistence. Every method takes the
// owning userID and folds it into the WHERE clause, so a row owned by
// another user behaves exactly like a row that does not exist.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, userID int64, task *domain.Task) error
	GetByID(ctx context.Context, userID, id int64) (*domain.Task, error)
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, userID int64, filter TaskFilter) ([]domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (user_id, title, description, status, priority, due_date, estimated_minutes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.EstimatedMinutes,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, userID int64, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, description=$2, status=$3, priority=$4,
            due_date=$5, estimated_minutes=$6, updated_at=NOW()
        WHERE id=$7 AND user_id=$8
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.EstimatedMinutes,
		task.ID,
		userID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, userID, id int64) (*domain.Task, error) {
	const query = `
        SELECT id, user_id, title, description, status, priority, due_date, estimated_minutes, created_at, updated_at
        FROM tasks WHERE id=$1 AND user_id=$2`

	var task domain.Task
	if err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.EstimatedMinutes,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) Delete(ctx context.Context, userID, id int64) error {
	const query = `DELETE FROM tasks WHERE id=$1 AND user_id=$2`
	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) List(ctx context.Context, userID int64, filter TaskFilter) ([]domain.Task, error) {
	var sb strings.Builder
	sb.WriteString(`
        SELECT id, user_id, title, description, status, priority, due_date, estimated_minutes, created_at, updated_at
        FROM tasks WHERE user_id=$1`)

	args := []any{userID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		fmt.Fprintf(&sb, " AND status=$%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		fmt.Fprintf(&sb, " AND priority=$%d", len(args))
	}

	column, ok := sortColumns[filter.SortField]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s", column, direction)

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.DueDate,
			&task.EstimatedMinutes,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
