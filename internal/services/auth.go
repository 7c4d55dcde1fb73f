package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iqac-smarttrack/apiserver/config"
	"github.com/iqac-smarttrack/apiserver/internal/store"
	"github.com/iqac-smarttrack/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is a login attempt. Email is required together with a role,
// a password or both.
type Credentials struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// AuthService checks demo credentials and tracks the current session.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	hashes   map[types.Role][]byte
	now      func() time.Time
}

// NewAuthService hashes the per-role demo passwords from cfg with the given
// bcrypt cost. A zero cost means bcrypt.DefaultCost.
func NewAuthService(users UserRepository, sessions SessionRepository, cfg config.AuthConfig, cost int) (*AuthService, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	passwords := map[types.Role]string{
		types.RoleQAOffice:       cfg.QAOfficePassword,
		types.RoleDepartmentHead: cfg.DepartmentHeadPassword,
		types.RoleStaff:          cfg.StaffPassword,
	}
	hashes := make(map[types.Role][]byte, len(passwords))
	for role, password := range passwords {
		if password == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash %s password: %w", role, err)
		}
		hashes[role] = hash
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		hashes:   hashes,
		now:      time.Now,
	}, nil
}

// Authenticate returns the user matching creds or ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, creds Credentials) (types.User, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" {
		return types.User{}, invalid("email", "is required")
	}
	rawRole := strings.TrimSpace(creds.Role)
	if rawRole == "" && creds.Password == "" {
		return types.User{}, invalid("role", "role or password is required")
	}

	var role types.Role
	if rawRole != "" {
		parsed, ok := types.ParseRole(rawRole)
		if !ok {
			return types.User{}, ErrInvalidCredentials
		}
		role = parsed
	}

	user, err := s.users.FindUserByEmail(ctx, email, role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if creds.Password != "" {
		hash, ok := s.hashes[user.Role]
		if !ok || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
			return types.User{}, ErrInvalidCredentials
		}
	}
	return user, nil
}

// StartSession records user as logged in with the issued token.
func (s *AuthService) StartSession(ctx context.Context, user types.User, token string) (types.Session, error) {
	session := types.Session{
		User:      user,
		Token:     token,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return types.Session{}, err
	}
	return session, nil
}

func (s *AuthService) Current(ctx context.Context) (types.Session, error) {
	return s.sessions.CurrentSession(ctx)
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessions.ClearSession(ctx)
}
