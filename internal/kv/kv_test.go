package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iqac-smarttrack/apiserver/config"
	"github.com/iqac-smarttrack/apiserver/internal/db"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fileBackend, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}

	conn, err := db.OpenSQLite(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqliteBackend, err := NewSQLite(context.Background(), conn)
	if err != nil {
		t.Fatalf("new sqlite backend: %v", err)
	}

	all := map[string]Backend{
		"memory": NewMemory(),
		"file":   fileBackend,
		"sqlite": sqliteBackend,
	}
	t.Cleanup(func() {
		for _, backend := range all {
			_ = backend.Close()
		}
	})
	return all
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := backend.Get(ctx, "iqac_tasks"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for missing key, got %v", err)
			}

			if err := backend.Put(ctx, "iqac_tasks", []byte(`[{"id":"1"}]`)); err != nil {
				t.Fatalf("put: %v", err)
			}
			got, err := backend.Get(ctx, "iqac_tasks")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got) != `[{"id":"1"}]` {
				t.Fatalf("unexpected value %q", got)
			}

			if err := backend.Put(ctx, "iqac_tasks", []byte(`[]`)); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err = backend.Get(ctx, "iqac_tasks")
			if err != nil {
				t.Fatalf("get after overwrite: %v", err)
			}
			if string(got) != `[]` {
				t.Fatalf("expected overwritten value, got %q", got)
			}

			if err := backend.Delete(ctx, "iqac_tasks"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := backend.Delete(ctx, "iqac_tasks"); err != nil {
				t.Fatalf("second delete should be a no-op, got %v", err)
			}
			if _, err := backend.Get(ctx, "iqac_tasks"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()

	value := []byte("abc")
	if err := backend.Put(ctx, "k", value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'z'

	got, err := backend.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored value was aliased: %q", got)
	}
}

func TestFileRejectsPathKeys(t *testing.T) {
	backend, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	if err := backend.Put(context.Background(), "../escape", []byte("x")); err == nil {
		t.Fatal("expected error for key with path separators")
	}
}

func TestFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	if err := backend.Put(context.Background(), "iqac_files", []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "iqac_files.json" {
		t.Fatalf("unexpected dir contents: %v", entries)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{Store: config.StoreConfig{Driver: DriverFile, Dir: dir}}

	backend, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer backend.Close()

	if _, ok := backend.(*File); !ok {
		t.Fatalf("expected *File backend, got %T", backend)
	}
	if err := backend.Put(context.Background(), "iqac_users", []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "iqac_users.json")); err != nil {
		t.Fatalf("expected collection file: %v", err)
	}

	cfg.Store.Driver = "cassandra"
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}

	cfg.Store.Driver = DriverPostgres
	if _, err := Open(context.Background(), cfg); !errors.Is(err, db.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for postgres without host, got %v", err)
	}
}
