package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Yonela986/kanban-board/internal/notify"
)

// MemoryPath keeps the inbox in process memory.
const MemoryPath = ":memory:"

// ErrNotFound reports a missing notification.
var ErrNotFound = errors.New("notification not found")

// Store is the notification inbox. The presentation layer lists it to
// render alerts it missed while disconnected.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open initializes the inbox and runs the required migrations.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	if dbPath != MemoryPath {
		if err := ensureDir(dbPath); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps an in-memory database alive and shared.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Info("notification inbox ready", zap.String("path", dbPath))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notifications (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT NOT NULL DEFAULT '',
            board TEXT NOT NULL,
            task_id TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            read_at DATETIME
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(read_at, id);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_board ON notifications(board);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Notify stores n in the inbox.
func (s *Store) Notify(ctx context.Context, n notify.Notification) error {
	_, err := s.Save(ctx, n)
	return err
}

// Save inserts a notification and returns it with its id.
func (s *Store) Save(ctx context.Context, n notify.Notification) (notify.Notification, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO notifications(kind, title, body, board, task_id, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		string(n.Kind), n.Title, n.Body, n.Board, n.TaskID, n.CreatedAt.UTC())
	if err != nil {
		return notify.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return notify.Notification{}, fmt.Errorf("notification id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a notification by id.
func (s *Store) Get(ctx context.Context, id int64) (notify.Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, kind, title, body, board, task_id, created_at, read_at FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return notify.Notification{}, ErrNotFound
	}
	if err != nil {
		return notify.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// List returns the newest notifications first. A non-positive limit means
// no limit.
func (s *Store) List(ctx context.Context, limit int, unreadOnly bool) ([]notify.Notification, error) {
	query := `SELECT id, kind, title, body, board, task_id, created_at, read_at FROM notifications`
	if unreadOnly {
		query += ` WHERE read_at IS NULL`
	}
	query += ` ORDER BY id DESC`
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []notify.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead stamps a notification as read.
func (s *Store) MarkRead(ctx context.Context, id int64) (notify.Notification, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read_at = ? WHERE id = ? AND read_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return notify.Notification{}, fmt.Errorf("mark notification read: %w", err)
	}
	if _, err := res.RowsAffected(); err != nil {
		return notify.Notification{}, err
	}
	return s.Get(ctx, id)
}

// DeleteBoard removes the notifications of a deleted board.
func (s *Store) DeleteBoard(ctx context.Context, board string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE board = ?`, board); err != nil {
		return fmt.Errorf("delete board notifications: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotification(row scanner) (notify.Notification, error) {
	var (
		n      notify.Notification
		kind   string
		readAt sql.NullTime
	)
	if err := row.Scan(&n.ID, &kind, &n.Title, &n.Body, &n.Board, &n.TaskID, &n.CreatedAt, &readAt); err != nil {
		return notify.Notification{}, err
	}
	n.Kind = notify.Kind(kind)
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return n, nil
}
