// Package store is the local data-access layer. It persists each of the
// user, task and file collections as one JSON array in a key-value backend.
// Every operation re-reads the collection it uses into an id-indexed image,
// and every write replaces the whole collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iqac-smarttrack/apiserver/internal/kv"
	"github.com/iqac-smarttrack/apiserver/types"
)

const (
	usersKey   = "users"
	tasksKey   = "tasks"
	filesKey   = "files"
	sessionKey = "user"
)

// Store owns the persisted collections and the current session.
type Store struct {
	mu sync.Mutex

	backend  kv.Backend
	sessions *Sessions
	seed     Seed
	now      func() time.Time
	newID    func() (string, error)

	initialized bool
	users       collection[types.User]
	tasks       collection[types.Task]
	files       collection[types.UploadedFile]
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the record id generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Store) { s.newID = newID }
}

// WithSeed replaces the dataset used to seed absent collections.
func WithSeed(seed Seed) Option {
	return func(s *Store) { s.seed = seed }
}

// New returns a store over backend with collection keys prefixed by
// keyPrefix. Initialize must be called before any collection operation.
func New(backend kv.Backend, keyPrefix string, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		sessions: NewSessions(backend, keyPrefix+sessionKey),
		seed:     DefaultSeed(),
		now:      time.Now,
		newID:    NewID,
		users:    newCollection[types.User](keyPrefix + usersKey),
		tasks:    newCollection[types.Task](keyPrefix + tasksKey),
		files:    newCollection[types.UploadedFile](keyPrefix + filesKey),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a time-ordered UUID string.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// PlaceholderURL is the image URL shown for uploads whose bytes were not
// stored anywhere.
func PlaceholderURL(text string) string {
	return "/placeholder.svg?height=400&width=600&text=" + url.QueryEscape(text)
}

// Initialize loads every collection, seeding the ones that were never
// written. It is idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Reload re-reads every collection from the backend, seeding any that
// another process removed.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Reset drops the task and file collections and the session, then seeds
// the defaults again. Users are left untouched.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{s.tasks.key, s.files.key} {
		if err := s.backend.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) loadLocked(ctx context.Context) error {
	if err := loadOrSeed(ctx, s.backend, &s.users, s.seed.Users); err != nil {
		return err
	}
	if err := loadOrSeed(ctx, s.backend, &s.tasks, s.seed.Tasks); err != nil {
		return err
	}
	return loadOrSeed(ctx, s.backend, &s.files, s.seed.Files)
}

func loadOrSeed[T record](ctx context.Context, backend kv.Backend, c *collection[T], seed []T) error {
	found, err := c.load(ctx, backend)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	items := make([]T, len(seed))
	copy(items, seed)
	if err := c.commit(ctx, backend, items); err != nil {
		return fmt.Errorf("seed %s: %w", c.key, err)
	}
	return nil
}

func (s *Store) ready() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

// readyUsers, readyTasks and readyFiles check initialization and re-read
// the collection an operation is about to use. Callers hold s.mu.
func (s *Store) readyUsers(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.users.refresh(ctx, s.backend)
}

func (s *Store) readyTasks(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.tasks.refresh(ctx, s.backend)
}

func (s *Store) readyFiles(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.files.refresh(ctx, s.backend)
}

// stamp returns the current time, forced past prev so that successive
// updates always move forward.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *Store) nextID() (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	if id == "" {
		return "", errors.New("generate id: empty id")
	}
	return id, nil
}
