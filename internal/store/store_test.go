package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iqac-smarttrack/apiserver/internal/kv"
	"github.com/iqac-smarttrack/apiserver/types"
)

// flakyBackend fails every Put while failPuts is set.
type flakyBackend struct {
	*kv.Memory
	failPuts bool
}

var errDiskFull = errors.New("disk full")

func (b *flakyBackend) Put(ctx context.Context, key string, value []byte) error {
	if b.failPuts {
		return errDiskFull
	}
	return b.Memory.Put(ctx, key, value)
}

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func newTestStore(t *testing.T, backend kv.Backend, opts ...Option) *Store {
	t.Helper()
	s := New(backend, "iqac_", opts...)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func TestOperationsRequireInitialize(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), "iqac_")

	if _, err := s.ListTasks(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("ListTasks: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.ListUsers(ctx, ""); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("ListUsers: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.CreateTask(ctx, types.Task{Title: "x"}); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("CreateTask: expected ErrNotInitialized, got %v", err)
	}
	if err := s.DeleteFile(ctx, "1"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("DeleteFile: expected ErrNotInitialized, got %v", err)
	}
}

func TestInitializeSeedsOnceAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newTestStore(t, backend, WithIDGenerator(sequentialIDs()))

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 seeded tasks, got %d", len(tasks))
	}
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}

	if err := s.DeleteTask(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// A second store over the same backend must load, not reseed.
	other := newTestStore(t, backend)
	tasks, err = other.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 persisted tasks, got %d", len(tasks))
	}
}

func TestInitializeRejectsCorruptCollection(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	if err := backend.Put(ctx, "iqac_tasks", []byte("{not json")); err != nil {
		t.Fatalf("put: %v", err)
	}
	s := New(backend, "iqac_")
	if err := s.Initialize(ctx); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := s.ListTasks(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected store to stay uninitialized, got %v", err)
	}
}

func TestCreateTaskAssignsUniqueIDsAndPrepends(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())

	seen := map[string]bool{}
	tasks, _ := s.ListTasks(ctx)
	for _, task := range tasks {
		seen[task.ID] = true
	}

	for i := 0; i < 20; i++ {
		created, err := s.CreateTask(ctx, types.Task{
			Title:      fmt.Sprintf("task %d", i),
			AssignedTo: "3",
			Priority:   types.PriorityHigh,
			Status:     types.TaskStatusPending,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[created.ID] {
			t.Fatalf("duplicate id %q", created.ID)
		}
		seen[created.ID] = true
		if !created.CreatedAt.Equal(created.UpdatedAt) {
			t.Fatalf("expected created_at == updated_at, got %v and %v", created.CreatedAt, created.UpdatedAt)
		}

		tasks, err := s.ListTasks(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if tasks[0].ID != created.ID || tasks[0].Title != created.Title {
			t.Fatalf("expected new task first, got %+v", tasks[0])
		}
	}
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, kv.NewMemory(), WithClock(func() time.Time { return fixed }))

	created, err := s.CreateTask(ctx, types.Task{Title: "Draft SSR", Priority: types.PriorityLow, Status: types.TaskStatusPending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	status := types.TaskStatusInProgress
	first, err := s.UpdateTask(ctx, created.ID, types.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if first.Status != types.TaskStatusInProgress || first.Title != "Draft SSR" || first.Priority != types.PriorityLow {
		t.Fatalf("unexpected merge result %+v", first)
	}
	if !first.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to move past %v, got %v", created.UpdatedAt, first.UpdatedAt)
	}
	if !first.CreatedAt.Equal(created.CreatedAt) {
		t.Fatal("created_at must not change on update")
	}

	// The clock is frozen; the second update must still move forward.
	second, err := s.UpdateTask(ctx, created.ID, types.TaskPatch{})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("expected strictly increasing updated_at, got %v then %v", first.UpdatedAt, second.UpdatedAt)
	}

	got, err := s.GetTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != types.TaskStatusInProgress {
		t.Fatalf("expected persisted status, got %q", got.Status)
	}

	if _, err := s.UpdateTask(ctx, "missing", types.TaskPatch{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())

	if err := s.DeleteTask(ctx, "2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTask(ctx, "2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted task to be gone, got %v", err)
	}
	tasks, _ := s.ListTasks(ctx)
	if len(tasks) != 2 || tasks[0].ID != "1" || tasks[1].ID != "3" {
		t.Fatalf("expected remaining order [1 3], got %+v", tasks)
	}

	if err := s.DeleteTask(ctx, "2"); err != nil {
		t.Fatalf("deleting a missing task should succeed, got %v", err)
	}
}

func TestFailedFlushLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{Memory: kv.NewMemory()}
	s := newTestStore(t, backend)

	before, _ := s.ListTasks(ctx)
	backend.failPuts = true

	if _, err := s.CreateTask(ctx, types.Task{Title: "lost"}); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	status := types.TaskStatusCompleted
	if _, err := s.UpdateTask(ctx, "1", types.TaskPatch{Status: &status}); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
	if err := s.DeleteTask(ctx, "1"); !errors.Is(err, errDiskFull) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}

	after, _ := s.ListTasks(ctx)
	if len(after) != len(before) {
		t.Fatalf("expected %d tasks after failed writes, got %d", len(before), len(after))
	}
	task, err := s.GetTask(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if task.Status != types.TaskStatusInProgress {
		t.Fatalf("failed update leaked into memory: %q", task.Status)
	}
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())

	all, err := s.ListUsers(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 || all[0].ID != "1" || all[4].ID != "5" {
		t.Fatalf("expected 5 users in insertion order, got %+v", all)
	}

	staff, err := s.ListUsers(ctx, types.RoleStaff)
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	if len(staff) != 3 {
		t.Fatalf("expected 3 staff, got %d", len(staff))
	}
	for _, user := range staff {
		if user.Role != types.RoleStaff {
			t.Fatalf("unexpected role %q", user.Role)
		}
	}

	// Filtering must not disturb the full listing.
	again, _ := s.ListUsers(ctx, "")
	if again[1].ID != "2" {
		t.Fatalf("filter mutated collection: %+v", again)
	}
}

func TestFindUserByEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())

	user, err := s.FindUserByEmail(ctx, "staff@university.edu", "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.Name != "Dr. Smith" {
		t.Fatalf("expected Dr. Smith, got %q", user.Name)
	}
	if _, err := s.FindUserByEmail(ctx, "staff@university.edu", types.RoleQAOffice); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected role mismatch to be ErrNotFound, got %v", err)
	}
	if _, err := s.FindUserByEmail(ctx, "nobody@university.edu", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory(), WithIDGenerator(sequentialIDs()))

	created, err := s.CreateFile(ctx, types.UploadedFile{
		TaskID:     "1",
		UploadedBy: "3",
		FileName:   "evidence.pdf",
		FileSize:   1024,
		FileType:   "application/pdf",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "id-1" || created.Status != types.FileStatusUploaded {
		t.Fatalf("unexpected created file %+v", created)
	}

	byTask, err := s.ListFiles(ctx, types.FileFilter{TaskID: "1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byTask) != 2 || byTask[0].ID != created.ID {
		t.Fatalf("expected new file first among 2 for task 1, got %+v", byTask)
	}

	byUser, _ := s.ListFiles(ctx, types.FileFilter{UploadedBy: "4"})
	if len(byUser) != 1 || byUser[0].ID != "2" {
		t.Fatalf("expected seeded file 2 for user 4, got %+v", byUser)
	}

	if _, err := s.CreateFile(ctx, types.UploadedFile{ID: created.ID, FileName: "dup"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	if err := s.DeleteFile(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteFile(ctx, created.ID); err != nil {
		t.Fatalf("deleting a missing file should succeed, got %v", err)
	}
	if _, err := s.GetFile(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())

	if _, err := s.CurrentSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	user, _ := s.GetUser(ctx, "2")
	session := types.Session{User: user, Token: "tok", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := s.SaveSession(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got.User.ID != "2" || got.Token != "tok" {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.CurrentSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}

func TestResetRestoresSeedAndKeepsUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kv.NewMemory())

	if _, err := s.CreateTask(ctx, types.Task{Title: "extra"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.DeleteFile(ctx, "1"); err != nil {
		t.Fatalf("delete file: %v", err)
	}
	if err := s.SaveSession(ctx, types.Session{Token: "tok"}); err != nil {
		t.Fatalf("save session: %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	tasks, _ := s.ListTasks(ctx)
	if len(tasks) != 3 {
		t.Fatalf("expected seeded tasks after reset, got %d", len(tasks))
	}
	files, _ := s.ListFiles(ctx, types.FileFilter{})
	if len(files) != 2 {
		t.Fatalf("expected seeded files after reset, got %d", len(files))
	}
	if _, err := s.CurrentSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected session cleared, got %v", err)
	}
	users, _ := s.ListUsers(ctx, "")
	if len(users) != 5 {
		t.Fatalf("expected users kept, got %d", len(users))
	}
}

func TestStoresSharingBackendSeeEachOtherWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	open := func() *Store {
		backend, err := kv.NewFile(dir)
		if err != nil {
			t.Fatalf("new file backend: %v", err)
		}
		return newTestStore(t, backend)
	}
	a := open()
	b := open()

	fromB, err := b.CreateTask(ctx, types.Task{Title: "from b"})
	if err != nil {
		t.Fatalf("create in b: %v", err)
	}
	if _, err := a.GetTask(ctx, fromB.ID); err != nil {
		t.Fatalf("a should read b's task, got %v", err)
	}

	fromA, err := a.CreateTask(ctx, types.Task{Title: "from a"})
	if err != nil {
		t.Fatalf("create in a: %v", err)
	}

	fresh := open()
	tasks, err := fresh.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 5 || tasks[0].ID != fromA.ID || tasks[1].ID != fromB.ID {
		t.Fatalf("expected both writes persisted newest first, got %+v", tasks)
	}

	if err := b.DeleteTask(ctx, fromA.ID); err != nil {
		t.Fatalf("delete in b: %v", err)
	}
	if _, err := a.GetTask(ctx, fromA.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("a should see b's delete, got %v", err)
	}
}

func TestResetByAnotherStoreIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	server := newTestStore(t, backend)
	admin := newTestStore(t, backend)

	stale, err := server.CreateTask(ctx, types.Task{Title: "before reset"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := admin.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := server.CreateTask(ctx, types.Task{Title: "after reset"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, err := admin.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("expected seed plus one task, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.ID == stale.ID {
			t.Fatalf("task removed by reset was written back")
		}
	}
}

func TestReloadReseedsRemovedCollections(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	s := newTestStore(t, backend)

	if err := backend.Delete(ctx, "iqac_files"); err != nil {
		t.Fatalf("delete key: %v", err)
	}
	files, err := s.ListFiles(ctx, types.FileFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected removed collection to read as empty, got %d", len(files))
	}

	if err := s.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	files, _ = s.ListFiles(ctx, types.FileFilter{})
	if len(files) != 2 {
		t.Fatalf("expected reload to reseed files, got %d", len(files))
	}
}
