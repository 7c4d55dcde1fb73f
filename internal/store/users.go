package store

import (
	"context"

	"github.com/iqac-smarttrack/apiserver/types"
)

// ListUsers returns every user in insertion order, optionally restricted to
// an exact role.
func (s *Store) ListUsers(ctx context.Context, role types.Role) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyUsers(ctx); err != nil {
		return nil, err
	}
	users := s.users.all()
	if role == "" {
		return users, nil
	}
	filtered := users[:0]
	for _, user := range users {
		if user.Role == role {
			filtered = append(filtered, user)
		}
	}
	return filtered, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyUsers(ctx); err != nil {
		return types.User{}, err
	}
	user, ok := s.users.get(id)
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// FindUserByEmail looks a user up by exact email and, when role is set,
// exact role.
func (s *Store) FindUserByEmail(ctx context.Context, email string, role types.Role) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyUsers(ctx); err != nil {
		return types.User{}, err
	}
	for _, user := range s.users.items {
		if user.Email == email && (role == "" || user.Role == role) {
			return user, nil
		}
	}
	return types.User{}, ErrNotFound
}
