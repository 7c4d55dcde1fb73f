package services

import (
	"context"

	"github.com/iqac-smarttrack/apiserver/types"
)

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) List(ctx context.Context, role types.Role) ([]types.User, error) {
	return s.repo.ListUsers(ctx, role)
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetUser(ctx, id)
}
