package store

import (
	"context"

	"github.com/iqac-smarttrack/apiserver/types"
)

// ListTasks returns every task, most recently created first.
func (s *Store) ListTasks(ctx context.Context) ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyTasks(ctx); err != nil {
		return nil, err
	}
	return s.tasks.all(), nil
}

func (s *Store) GetTask(ctx context.Context, id string) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyTasks(ctx); err != nil {
		return types.Task{}, err
	}
	task, ok := s.tasks.get(id)
	if !ok {
		return types.Task{}, ErrNotFound
	}
	return task, nil
}

// CreateTask assigns a new id and timestamps to task and prepends it to the
// collection. The title is not checked here.
func (s *Store) CreateTask(ctx context.Context, task types.Task) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyTasks(ctx); err != nil {
		return types.Task{}, err
	}
	id, err := s.nextID()
	if err != nil {
		return types.Task{}, err
	}

	now := s.stamp(task.CreatedAt)
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.tasks.commit(ctx, s.backend, s.tasks.prepended(task)); err != nil {
		return types.Task{}, err
	}
	return task, nil
}

// UpdateTask merges patch into the task with id and bumps its updated_at.
// It returns ErrNotFound when no such task exists.
func (s *Store) UpdateTask(ctx context.Context, id string, patch types.TaskPatch) (types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyTasks(ctx); err != nil {
		return types.Task{}, err
	}
	current, ok := s.tasks.get(id)
	if !ok {
		return types.Task{}, ErrNotFound
	}

	updated := patch.Apply(current)
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.stamp(current.UpdatedAt)

	if err := s.tasks.commit(ctx, s.backend, s.tasks.replaced(id, updated)); err != nil {
		return types.Task{}, err
	}
	return updated, nil
}

// DeleteTask removes the task with id. Removing a missing task succeeds
// without touching the backend.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyTasks(ctx); err != nil {
		return err
	}
	if _, ok := s.tasks.get(id); !ok {
		return nil
	}
	return s.tasks.commit(ctx, s.backend, s.tasks.without(id))
}
