package domain

import "time"

// TaskStatus enumerates lifecycle states for tasks. Values are
// case-sensitive on the wire.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskPriority enumerates urgency levels.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// TitleMaxLen is the upper bound for task titles.
const TitleMaxLen = 200

// ValidStatus reports whether s is a member of the status enumeration.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is a member of the priority enumeration.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Statuses returns the allowed status values in declaration order.
func Statuses() []TaskStatus {
	return []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}
}

// Priorities returns the allowed priority values in declaration order.
func Priorities() []TaskPriority {
	return []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}
}

// Task is the aggregate for user-owned work items. UserID enforces tenant
// isolation: every repository query filters on it.
type Task struct {
	ID               int64
	UserID           int64
	Title            string
	Description      *string
	Status           TaskStatus
	Priority         TaskPriority
	DueDate          *time.Time
	EstimatedMinutes *int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
