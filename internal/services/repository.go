package services

import (
	"context"

	"github.com/iqac-smarttrack/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	ListUsers(ctx context.Context, role types.Role) ([]types.User, error)
	GetUser(ctx context.Context, id string) (types.User, error)
	FindUserByEmail(ctx context.Context, email string, role types.Role) (types.User, error)
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	ListTasks(ctx context.Context) ([]types.Task, error)
	GetTask(ctx context.Context, id string) (types.Task, error)
	CreateTask(ctx context.Context, task types.Task) (types.Task, error)
	UpdateTask(ctx context.Context, id string, patch types.TaskPatch) (types.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// FileRepository defines persistence operations for uploaded file records.
type FileRepository interface {
	ListFiles(ctx context.Context, filter types.FileFilter) ([]types.UploadedFile, error)
	GetFile(ctx context.Context, id string) (types.UploadedFile, error)
	CreateFile(ctx context.Context, file types.UploadedFile) (types.UploadedFile, error)
	DeleteFile(ctx context.Context, id string) error
}

// SessionRepository persists the single current session.
type SessionRepository interface {
	SaveSession(ctx context.Context, session types.Session) error
	CurrentSession(ctx context.Context) (types.Session, error)
	ClearSession(ctx context.Context) error
}

// Repository is everything the API needs from a backend. Both the local
// key-value store and the remote table store implement it.
type Repository interface {
	UserRepository
	TaskRepository
	FileRepository
	SessionRepository

	Initialize(ctx context.Context) error
	Reload(ctx context.Context) error
	Reset(ctx context.Context) error
	Close() error
}

// EventPublisher receives lifecycle events after successful writes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event types.Event) error
}
