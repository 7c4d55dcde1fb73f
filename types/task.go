package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Task represents a unit of work assigned to a faculty member by the
// quality-assurance office or a department head.
type Task struct {
	// ID is the unique identifier of the task.
	ID string `json:"id" db:"id"`

	// Title is the short human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description holds the full task details, if any.
	Description string `json:"description,omitempty" db:"description"`

	// AssignedTo is the id of the user the task is assigned to.
	// It is not validated against the user collection.
	AssignedTo string `json:"assigned_to,omitempty" db:"assigned_to"`

	// CreatedBy is the id of the user who created the task.
	CreatedBy string `json:"created_by,omitempty" db:"created_by"`

	// Department is the academic department the task belongs to.
	Department string `json:"department,omitempty" db:"department"`

	// DueDate is the day the task is due. The zero value means no due date.
	DueDate Date `json:"due_date,omitzero" db:"due_date"`

	// Priority is the relative urgency of the task.
	Priority Priority `json:"priority" db:"priority"`

	// Status is the current progress state of the task.
	Status TaskStatus `json:"status" db:"status"`

	// CreatedAt is the timestamp at which the task was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the task.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RecordID returns the task's identifier.
func (t Task) RecordID() string { return t.ID }

// TaskPatch carries the fields of a partial task update.
// Nil fields are left untouched; set fields replace the stored value.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	AssignedTo  *string     `json:"assigned_to,omitempty"`
	Department  *string     `json:"department,omitempty"`
	DueDate     *Date       `json:"due_date,omitempty"`
	Priority    *Priority   `json:"priority,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
}

// Apply shallow-merges the patch into t and returns the result.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Department != nil {
		t.Department = *p.Department
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

// Empty reports whether the patch sets no field.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.AssignedTo == nil &&
		p.Department == nil && p.DueDate == nil && p.Priority == nil && p.Status == nil
}

// TaskView is a task with its user references resolved.
type TaskView struct {
	Task

	// AssignedUser is the user named by AssignedTo, when it exists.
	AssignedUser Ref[User] `json:"assigned_user,omitzero"`

	// CreatedUser is the user named by CreatedBy, when it exists.
	CreatedUser Ref[User] `json:"created_user,omitzero"`
}

// Priority is the relative urgency of a task.
type Priority string

// Supported priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the supported priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// TaskStatus is the progress state of a task.
type TaskStatus string

// Supported task statuses.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the supported statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// UnmarshalJSON accepts the hyphenated spelling used by older views.
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = TaskStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	return nil
}

// TaskQuery narrows a task listing. Zero fields match everything.
type TaskQuery struct {
	Status     TaskStatus
	AssignedTo string
	Department string

	// Search matches case-insensitively against the title, the assignee's
	// name and the department.
	Search string
}
