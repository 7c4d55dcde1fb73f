package services

import (
	"context"
	"strings"

	"github.com/iqac-smarttrack/apiserver/types"
)

// FacultyQuery narrows the faculty directory.
type FacultyQuery struct {
	Role types.Role

	// Search matches case-insensitively against name, email and department.
	Search string
}

// FacultyService builds the faculty directory.
type FacultyService struct {
	users UserRepository
	tasks TaskRepository
}

func NewFacultyService(users UserRepository, tasks TaskRepository) *FacultyService {
	return &FacultyService{users: users, tasks: tasks}
}

// Directory lists users matching q with their active and completed task
// counts.
func (s *FacultyService) Directory(ctx context.Context, q FacultyQuery) ([]types.FacultyMember, error) {
	users, err := s.users.ListUsers(ctx, q.Role)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	active := map[string]int{}
	completed := map[string]int{}
	for _, task := range tasks {
		if task.AssignedTo == "" {
			continue
		}
		if task.Status == types.TaskStatusCompleted {
			completed[task.AssignedTo]++
		} else {
			active[task.AssignedTo]++
		}
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	members := make([]types.FacultyMember, 0, len(users))
	for _, user := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(user.Name), search) &&
			!strings.Contains(strings.ToLower(user.Email), search) &&
			!strings.Contains(strings.ToLower(user.Department), search) {
			continue
		}
		members = append(members, types.FacultyMember{
			User:           user,
			ActiveTasks:    active[user.ID],
			CompletedTasks: completed[user.ID],
		})
	}
	return members, nil
}
