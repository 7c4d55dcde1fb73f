package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iqac-smarttrack/apiserver/internal/kv"
	"github.com/iqac-smarttrack/apiserver/internal/store"
	"github.com/iqac-smarttrack/apiserver/types"
)

const (
	usersTable = "users"
	tasksTable = "tasks"
	filesTable = "uploaded_files"
)

// Store serves users, tasks and files from remote tables. It keeps no
// cache: every call is one round trip. The session lives in a key-value
// backend like the local store's.
type Store struct {
	client   Client
	backend  kv.Backend
	sessions *store.Sessions
	seed     store.Seed
	now      func() time.Time
	newID    func() (string, error)

	mu          sync.Mutex
	initialized bool
}

func NewStore(client Client, sessions kv.Backend, keyPrefix string) *Store {
	return &Store{
		client:   client,
		backend:  sessions,
		sessions: store.NewSessions(sessions, keyPrefix+"user"),
		seed:     store.DefaultSeed(),
		now:      time.Now,
		newID:    store.NewID,
	}
}

// Initialize seeds every empty table with the default dataset when the
// client reaches a real backend.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if s.client.Configured() {
		if err := s.seedTables(ctx, true); err != nil {
			return err
		}
	}
	s.initialized = true
	return nil
}

// Reload is a no-op readiness check; remote reads are never cached.
func (s *Store) Reload(ctx context.Context) error {
	return s.ready()
}

// Reset empties the task and file tables, clears the session and seeds the
// defaults again.
func (s *Store) Reset(ctx context.Context) error {
	if !s.client.Configured() {
		return ErrNotConfigured
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{tasksTable, filesTable} {
		if _, err := s.client.From(table).Delete(ctx); err != nil {
			return err
		}
	}
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	if err := s.seedTables(ctx, false); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

func (s *Store) Close() error {
	return errors.Join(s.client.Close(), s.backend.Close())
}

func (s *Store) seedTables(ctx context.Context, withUsers bool) error {
	if withUsers {
		if err := seedTable(ctx, s.client.From(usersTable), s.seed.Users, userValues); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}
	if err := seedTable(ctx, s.client.From(tasksTable), s.seed.Tasks, taskValues); err != nil {
		return fmt.Errorf("seed tasks: %w", err)
	}
	if err := seedTable(ctx, s.client.From(filesTable), s.seed.Files, fileValues); err != nil {
		return fmt.Errorf("seed files: %w", err)
	}
	return nil
}

func seedTable[T any](ctx context.Context, table Table, items []T, values func(T) map[string]any) error {
	existing, err := table.Select(ctx, Query{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, item := range items {
		if _, err := table.Insert(ctx, values(item)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return store.ErrNotInitialized
	}
	return nil
}

func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func selectAll[T any](ctx context.Context, table Table, q Query) ([]T, error) {
	rows, err := table.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeRows[T](rows)
}

func selectOne[T any](ctx context.Context, table Table, id string) (T, error) {
	var zero T
	items, err := selectAll[T](ctx, table, Query{Filters: []Filter{Eq("id", id)}})
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, store.ErrNotFound
	}
	return items[0], nil
}

func decodeOne[T any](row json.RawMessage) (T, error) {
	var item T
	err := json.Unmarshal(row, &item)
	return item, err
}

// ListUsers returns users ordered by name, optionally restricted to role.
func (s *Store) ListUsers(ctx context.Context, role types.Role) ([]types.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	users, err := selectAll[types.User](ctx, s.client.From(usersTable), Query{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	if role == "" {
		return users, nil
	}
	filtered := make([]types.User, 0, len(users))
	for _, user := range users {
		// Mock rows carry legacy role names; compare after decoding.
		if user.Role == role {
			filtered = append(filtered, user)
		}
	}
	return filtered, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (types.User, error) {
	if err := s.ready(); err != nil {
		return types.User{}, err
	}
	return selectOne[types.User](ctx, s.client.From(usersTable), id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string, role types.Role) (types.User, error) {
	if err := s.ready(); err != nil {
		return types.User{}, err
	}
	users, err := selectAll[types.User](ctx, s.client.From(usersTable), Query{Filters: []Filter{Eq("email", email)}})
	if err != nil {
		return types.User{}, err
	}
	for _, user := range users {
		if role == "" || user.Role == role {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (s *Store) ListTasks(ctx context.Context) ([]types.Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return selectAll[types.Task](ctx, s.client.From(tasksTable), Query{OrderBy: "created_at", Desc: true})
}

func (s *Store) GetTask(ctx context.Context, id string) (types.Task, error) {
	if err := s.ready(); err != nil {
		return types.Task{}, err
	}
	return selectOne[types.Task](ctx, s.client.From(tasksTable), id)
}

func (s *Store) CreateTask(ctx context.Context, task types.Task) (types.Task, error) {
	if err := s.ready(); err != nil {
		return types.Task{}, err
	}
	id, err := s.newID()
	if err != nil {
		return types.Task{}, fmt.Errorf("generate id: %w", err)
	}
	now := s.stamp(time.Time{})
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now

	row, err := s.client.From(tasksTable).Insert(ctx, taskValues(task))
	if err != nil {
		return types.Task{}, err
	}
	return decodeOne[types.Task](row)
}

func (s *Store) UpdateTask(ctx context.Context, id string, patch types.TaskPatch) (types.Task, error) {
	if err := s.ready(); err != nil {
		return types.Task{}, err
	}
	current, err := selectOne[types.Task](ctx, s.client.From(tasksTable), id)
	if err != nil {
		return types.Task{}, err
	}

	values := patchValues(patch)
	values["updated_at"] = s.stamp(current.UpdatedAt)
	rows, err := s.client.From(tasksTable).Update(ctx, values, Eq("id", id))
	if err != nil {
		return types.Task{}, err
	}
	if len(rows) == 0 {
		return types.Task{}, store.ErrNotFound
	}
	return decodeOne[types.Task](rows[0])
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.client.From(tasksTable).Delete(ctx, Eq("id", id))
	return err
}

func (s *Store) ListFiles(ctx context.Context, filter types.FileFilter) ([]types.UploadedFile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	q := Query{OrderBy: "created_at", Desc: true}
	if filter.TaskID != "" {
		q.Filters = append(q.Filters, Eq("task_id", filter.TaskID))
	}
	if filter.UploadedBy != "" {
		q.Filters = append(q.Filters, Eq("uploaded_by", filter.UploadedBy))
	}
	return selectAll[types.UploadedFile](ctx, s.client.From(filesTable), q)
}

func (s *Store) GetFile(ctx context.Context, id string) (types.UploadedFile, error) {
	if err := s.ready(); err != nil {
		return types.UploadedFile{}, err
	}
	return selectOne[types.UploadedFile](ctx, s.client.From(filesTable), id)
}

func (s *Store) CreateFile(ctx context.Context, file types.UploadedFile) (types.UploadedFile, error) {
	if err := s.ready(); err != nil {
		return types.UploadedFile{}, err
	}
	if file.ID == "" {
		id, err := s.newID()
		if err != nil {
			return types.UploadedFile{}, fmt.Errorf("generate id: %w", err)
		}
		file.ID = id
	}
	file.CreatedAt = s.stamp(file.CreatedAt)
	if file.Status == "" {
		file.Status = types.FileStatusUploaded
	}
	if !s.client.Configured() && file.ObjectKey == "" {
		file.FileURL = MockURL
	}

	row, err := s.client.From(filesTable).Insert(ctx, fileValues(file))
	if err != nil {
		return types.UploadedFile{}, err
	}
	return decodeOne[types.UploadedFile](row)
}

func (s *Store) DeleteFile(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.client.From(filesTable).Delete(ctx, Eq("id", id))
	return err
}

func (s *Store) SaveSession(ctx context.Context, session types.Session) error {
	return s.sessions.Save(ctx, session)
}

func (s *Store) CurrentSession(ctx context.Context) (types.Session, error) {
	return s.sessions.Current(ctx)
}

func (s *Store) ClearSession(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func userValues(u types.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       string(u.Role),
		"department": u.Department,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func dateValue(d types.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func taskValues(t types.Task) map[string]any {
	return map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"assigned_to": t.AssignedTo,
		"created_by":  t.CreatedBy,
		"department":  t.Department,
		"due_date":    dateValue(t.DueDate),
		"priority":    string(t.Priority),
		"status":      string(t.Status),
		"created_at":  t.CreatedAt,
		"updated_at":  t.UpdatedAt,
	}
}

func patchValues(p types.TaskPatch) map[string]any {
	values := map[string]any{}
	if p.Title != nil {
		values["title"] = *p.Title
	}
	if p.Description != nil {
		values["description"] = *p.Description
	}
	if p.AssignedTo != nil {
		values["assigned_to"] = *p.AssignedTo
	}
	if p.Department != nil {
		values["department"] = *p.Department
	}
	if p.DueDate != nil {
		values["due_date"] = dateValue(*p.DueDate)
	}
	if p.Priority != nil {
		values["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		values["status"] = string(*p.Status)
	}
	return values
}

func fileValues(f types.UploadedFile) map[string]any {
	return map[string]any{
		"id":           f.ID,
		"task_id":      f.TaskID,
		"uploaded_by":  f.UploadedBy,
		"file_name":    f.FileName,
		"file_size":    f.FileSize,
		"file_type":    f.FileType,
		"file_url":     f.FileURL,
		"upload_title": f.UploadTitle,
		"description":  f.Description,
		"category":     f.Category,
		"status":       string(f.Status),
		"object_key":   f.ObjectKey,
		"created_at":   f.CreatedAt,
	}
}
