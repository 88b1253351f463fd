package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Kind classifies a timer notification.
type Kind string

const (
	KindWarning Kind = "warning"
	KindExpired Kind = "expired"
)

// Notification is a user-visible alert about a task timer.
type Notification struct {
	ID        int64      `json:"id,omitempty"`
	Kind      Kind       `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Board     string     `json:"board"`
	TaskID    string     `json:"task_id"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// Warning builds the five-minute notice for a task.
func Warning(board, taskID, title string, now time.Time) Notification {
	return Notification{
		Kind:      KindWarning,
		Title:     "Task Timer Warning",
		Body:      fmt.Sprintf("\"%s\" will end in 5 minutes!", title),
		Board:     board,
		TaskID:    taskID,
		CreatedAt: now,
	}
}

// Expired builds the time-is-up notice for a task.
func Expired(board, taskID, title string, now time.Time) Notification {
	return Notification{
		Kind:      KindExpired,
		Title:     "Task Timer Complete",
		Body:      fmt.Sprintf("Time is up for \"%s\"!", title),
		Board:     board,
		TaskID:    taskID,
		CreatedAt: now,
	}
}

// Sink receives notifications.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Multi fans a notification out to every sink. A failing sink is logged and
// does not stop the others.
type Multi struct {
	sinks  []Sink
	logger *zap.Logger
}

func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sinks: sinks, logger: logger}
}

// Add appends a sink.
func (m *Multi) Add(s Sink) {
	m.sinks = append(m.sinks, s)
}

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Notify(ctx, n); err != nil {
			m.logger.Warn("notification sink failed",
				zap.String("kind", string(n.Kind)),
				zap.String("task_id", n.TaskID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// LogSink writes notifications to the application log.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, n Notification) error {
	s.logger.Info(n.Title,
		zap.String("kind", string(n.Kind)),
		zap.String("board", n.Board),
		zap.String("task_id", n.TaskID),
		zap.String("body", n.Body),
	)
	return nil
}
