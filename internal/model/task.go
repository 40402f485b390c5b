package model

import "time"

// Task is a unit of operational work assigned to a user.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *string    `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Task statuses.
const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusDone       = "DONE"
	TaskStatusCancelled  = "CANCELLED"
)

// TaskStatuses lists every task status.
var TaskStatuses = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled}

// Task priorities.
const (
	TaskPriorityLow      = "LOW"
	TaskPriorityMedium   = "MEDIUM"
	TaskPriorityHigh     = "HIGH"
	TaskPriorityCritical = "CRITICAL"
)

// TaskPriorities lists every task priority, lowest first.
var TaskPriorities = []string{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical}
