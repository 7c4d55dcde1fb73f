package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iqac-smarttrack/apiserver/internal/store"
	"github.com/iqac-smarttrack/apiserver/types"
	"github.com/sirupsen/logrus"
)

// TaskService encapsulates task use-cases: validation at the call site,
// user joins and lifecycle events.
type TaskService struct {
	tasks  TaskRepository
	users  UserRepository
	events EventPublisher
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewTaskService constructs a TaskService. events may be nil.
func NewTaskService(tasks TaskRepository, users UserRepository, events EventPublisher, logger logrus.FieldLogger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		users:  users,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// List returns tasks matching q, newest first, with users joined.
func (s *TaskService) List(ctx context.Context, q types.TaskQuery) ([]types.TaskView, error) {
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	j, err := loadUserJoiner(ctx, s.users)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	views := make([]types.TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := j.task(task)
		if !matchTask(view, q, search) {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

func matchTask(view types.TaskView, q types.TaskQuery, search string) bool {
	if q.Status != "" && view.Status != q.Status {
		return false
	}
	if q.AssignedTo != "" && view.AssignedTo != q.AssignedTo {
		return false
	}
	if q.Department != "" && !strings.EqualFold(view.Department, q.Department) {
		return false
	}
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(view.Title), search) ||
		strings.Contains(strings.ToLower(view.Department), search) {
		return true
	}
	if assignee, ok := view.AssignedUser.Get(); ok {
		return strings.Contains(strings.ToLower(assignee.Name), search)
	}
	return false
}

func (s *TaskService) Get(ctx context.Context, id string) (types.TaskView, error) {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return types.TaskView{}, err
	}
	return s.view(ctx, task)
}

// Create validates task, fills in the default priority and status, and
// stores it.
func (s *TaskService) Create(ctx context.Context, task types.Task) (types.TaskView, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return types.TaskView{}, invalid("title", "is required")
	}
	if task.Priority == "" {
		task.Priority = types.PriorityMedium
	}
	if !task.Priority.Valid() {
		return types.TaskView{}, invalid("priority", "must be low, medium or high")
	}
	if task.Status == "" {
		task.Status = types.TaskStatusPending
	}
	if !task.Status.Valid() {
		return types.TaskView{}, invalid("status", "must be pending, in_progress or completed")
	}

	created, err := s.tasks.CreateTask(ctx, task)
	if err != nil {
		return types.TaskView{}, err
	}
	s.publish(ctx, types.Event{
		Type:       types.EventTaskCreated,
		TaskID:     created.ID,
		ActorID:    created.CreatedBy,
		AssigneeID: created.AssignedTo,
		Title:      created.Title,
	})
	return s.view(ctx, created)
}

// Update applies patch to the task with id on behalf of actorID.
func (s *TaskService) Update(ctx context.Context, id string, patch types.TaskPatch, actorID string) (types.TaskView, error) {
	if patch.Empty() {
		return types.TaskView{}, invalid("patch", "must set at least one field")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return types.TaskView{}, invalid("title", "must not be empty")
		}
		patch.Title = &title
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return types.TaskView{}, invalid("priority", "must be low, medium or high")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return types.TaskView{}, invalid("status", "must be pending, in_progress or completed")
	}

	updated, err := s.tasks.UpdateTask(ctx, id, patch)
	if err != nil {
		return types.TaskView{}, err
	}
	s.publish(ctx, types.Event{
		Type:       types.EventTaskUpdated,
		TaskID:     updated.ID,
		ActorID:    actorID,
		AssigneeID: updated.AssignedTo,
		Title:      updated.Title,
	})
	return s.view(ctx, updated)
}

// Delete removes the task with id. Deleting a missing task succeeds and
// publishes nothing.
func (s *TaskService) Delete(ctx context.Context, id string, actorID string) error {
	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, types.Event{
		Type:       types.EventTaskDeleted,
		TaskID:     task.ID,
		ActorID:    actorID,
		AssigneeID: task.AssignedTo,
		Title:      task.Title,
	})
	return nil
}

func (s *TaskService) view(ctx context.Context, task types.Task) (types.TaskView, error) {
	j, err := loadUserJoiner(ctx, s.users)
	if err != nil {
		return types.TaskView{}, err
	}
	return j.task(task), nil
}

// publish sends event if a publisher is configured. Failures are logged
// and never fail the write that triggered them.
func (s *TaskService) publish(ctx context.Context, event types.Event) {
	publishEvent(ctx, s.events, s.logger, s.now, event)
}

func publishEvent(ctx context.Context, events EventPublisher, logger logrus.FieldLogger, now func() time.Time, event types.Event) {
	if events == nil {
		return
	}
	event.At = now().UTC()
	if err := events.PublishEvent(ctx, event); err != nil {
		logger.WithError(err).WithField("event", event.Type).Warn("failed to publish event")
	}
}
