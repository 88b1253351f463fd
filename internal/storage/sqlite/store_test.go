package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Yonela986/kanban-board/internal/notify"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("", nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestSaveListMarkRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t, MemoryPath)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	first, err := s.Save(ctx, notify.Warning("Sprint1", "t1", "Fix bug", now))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Notify(ctx, notify.Expired("Sprint1", "t1", "Fix bug", now.Add(5*time.Minute))); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	all, err := s.List(ctx, 0, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Kind != notify.KindExpired || all[1].ID != first.ID {
		t.Fatalf("unexpected listing %+v", all)
	}
	if !all[1].CreatedAt.Equal(now) {
		t.Errorf("created_at round trip: %v", all[1].CreatedAt)
	}

	read, err := s.MarkRead(ctx, first.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if read.ReadAt == nil {
		t.Error("read_at not set")
	}

	unread, err := s.List(ctx, 10, true)
	if err != nil {
		t.Fatalf("List unread: %v", err)
	}
	if len(unread) != 1 || unread[0].Kind != notify.KindExpired {
		t.Errorf("unexpected unread listing %+v", unread)
	}

	limited, _ := s.List(ctx, 1, false)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestMarkReadMissing(t *testing.T) {
	t.Parallel()

	s := openTestStore(t, MemoryPath)
	if _, err := s.MarkRead(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBoard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "nested", "inbox.db"))
	now := time.Now()
	s.Notify(ctx, notify.Expired("A", "t1", "one", now))
	s.Notify(ctx, notify.Expired("B", "t2", "two", now))

	if err := s.DeleteBoard(ctx, "A"); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	left, _ := s.List(ctx, 0, false)
	if len(left) != 1 || left[0].Board != "B" {
		t.Errorf("unexpected notifications left %+v", left)
	}
}
