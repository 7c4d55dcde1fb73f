package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iqac-smarttrack/apiserver/internal/kv"
	"github.com/iqac-smarttrack/apiserver/types"
)

// Sessions persists the single current session under one key.
type Sessions struct {
	backend kv.Backend
	key     string
}

func NewSessions(backend kv.Backend, key string) *Sessions {
	return &Sessions{backend: backend, key: key}
}

// Save replaces the current session.
func (s *Sessions) Save(ctx context.Context, session types.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

// Current returns the current session or ErrNoSession.
func (s *Sessions) Current(ctx context.Context) (types.Session, error) {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return types.Session{}, ErrNoSession
		}
		return types.Session{}, fmt.Errorf("read %s: %w", s.key, err)
	}
	var session types.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return types.Session{}, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return session, nil
}

// Clear removes the current session, if any.
func (s *Sessions) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete %s: %w", s.key, err)
	}
	return nil
}

// SaveSession records session as the current login.
func (s *Store) SaveSession(ctx context.Context, session types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Save(ctx, session)
}

func (s *Store) CurrentSession(ctx context.Context) (types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Current(ctx)
}

func (s *Store) ClearSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Clear(ctx)
}
