package types

import "time"

// EventType names a task or file lifecycle change.
type EventType string

// Lifecycle events published after a successful write.
const (
	EventTaskCreated  EventType = "task.created"
	EventTaskUpdated  EventType = "task.updated"
	EventTaskDeleted  EventType = "task.deleted"
	EventFileUploaded EventType = "file.uploaded"
	EventFileDeleted  EventType = "file.deleted"
)

// Event is the message body published for lifecycle changes.
type Event struct {
	Type       EventType `json:"type"`
	TaskID     string    `json:"task_id,omitempty"`
	FileID     string    `json:"file_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	AssigneeID string    `json:"assignee_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	At         time.Time `json:"at"`
}
