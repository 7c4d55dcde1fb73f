package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/iqac-smarttrack/apiserver/internal/kv"
	"github.com/iqac-smarttrack/apiserver/internal/store"
	"github.com/iqac-smarttrack/apiserver/types"
)

func newMockStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(NewMock(), kv.NewMemory(), "iqac_")
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s
}

func TestMockStoreRequiresInitialize(t *testing.T) {
	s := NewStore(NewMock(), kv.NewMemory(), "iqac_")
	if _, err := s.ListTasks(context.Background()); !errors.Is(err, store.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestMockUsers(t *testing.T) {
	ctx := context.Background()
	s := newMockStore(t)

	users, err := s.ListUsers(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Dr. Brown", "Dr. Smith", "IQAC Admin", "Prof. Johnson"}
	if len(users) != len(want) {
		t.Fatalf("expected %d users, got %d", len(want), len(users))
	}
	for i, name := range want {
		if users[i].Name != name {
			t.Fatalf("user %d: expected %q, got %q", i, name, users[i].Name)
		}
	}

	admins, err := s.ListUsers(ctx, types.RoleQAOffice)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 1 || admins[0].ID != "1" {
		t.Fatalf("expected legacy iqac role to decode as qa-office, got %+v", admins)
	}

	user, err := s.FindUserByEmail(ctx, "johnson@university.edu", types.RoleDepartmentHead)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if user.ID != "2" {
		t.Fatalf("expected user 2, got %q", user.ID)
	}
	if _, err := s.GetUser(ctx, "9"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockTasks(t *testing.T) {
	ctx := context.Background()
	s := newMockStore(t)

	tasks, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "1" || tasks[1].ID != "2" {
		t.Fatalf("expected fixed tasks newest first, got %+v", tasks)
	}
	if tasks[0].DueDate.String() != "2024-02-15" {
		t.Fatalf("unexpected due date %q", tasks[0].DueDate.String())
	}

	created, err := s.CreateTask(ctx, types.Task{Title: "Echo", Priority: types.PriorityLow, Status: types.TaskStatusPending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Title != "Echo" || created.CreatedAt.IsZero() {
		t.Fatalf("expected echoed task, got %+v", created)
	}
	tasks, _ = s.ListTasks(ctx)
	if len(tasks) != 2 {
		t.Fatalf("mock must not remember writes, got %d tasks", len(tasks))
	}

	status := types.TaskStatusCompleted
	updated, err := s.UpdateTask(ctx, "2", types.TaskPatch{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != types.TaskStatusCompleted || updated.Title != "Update Curriculum" {
		t.Fatalf("expected merged task, got %+v", updated)
	}
	if !updated.UpdatedAt.After(tasks[1].UpdatedAt) {
		t.Fatalf("expected updated_at to move forward, got %v", updated.UpdatedAt)
	}

	if _, err := s.UpdateTask(ctx, "missing", types.TaskPatch{Status: &status}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteTask(ctx, "missing"); err != nil {
		t.Fatalf("delete of missing task should succeed, got %v", err)
	}
}

func TestMockFiles(t *testing.T) {
	ctx := context.Background()
	s := newMockStore(t)

	files, err := s.ListFiles(ctx, types.FileFilter{TaskID: "1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 1 || files[0].FileURL != MockURL {
		t.Fatalf("unexpected files %+v", files)
	}
	none, _ := s.ListFiles(ctx, types.FileFilter{TaskID: "2"})
	if len(none) != 0 {
		t.Fatalf("expected no files for task 2, got %d", len(none))
	}

	created, err := s.CreateFile(ctx, types.UploadedFile{FileName: "a.pdf", FileURL: "/somewhere"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.FileURL != MockURL || created.Status != types.FileStatusUploaded {
		t.Fatalf("expected mock upload, got %+v", created)
	}
}

func TestMockResetIsNotConfigured(t *testing.T) {
	s := newMockStore(t)
	if err := s.Reset(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestWhereClause(t *testing.T) {
	clause, args, err := where([]Filter{Eq("task_id", "1"), Eq("uploaded_by", "3")}, 2)
	if err != nil {
		t.Fatalf("where: %v", err)
	}
	if clause != ` WHERE "task_id" = $3 AND "uploaded_by" = $4` {
		t.Fatalf("unexpected clause %q", clause)
	}
	if len(args) != 2 || args[0] != "1" || args[1] != "3" {
		t.Fatalf("unexpected args %v", args)
	}

	if _, _, err := where([]Filter{Eq("id; DROP TABLE users", 1)}, 0); err == nil {
		t.Fatal("expected invalid identifier to be rejected")
	}
}
