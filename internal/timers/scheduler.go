package timers

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Yonela986/kanban-board/internal/clock"
	"github.com/Yonela986/kanban-board/internal/events"
	"github.com/Yonela986/kanban-board/internal/kanban"
	"github.com/Yonela986/kanban-board/internal/models"
	"github.com/Yonela986/kanban-board/internal/notify"
)

// Registry is the part of the board registry the scheduler needs.
type Registry interface {
	FindTask(board, taskID string) (models.Task, models.ColumnID, error)
	ExpireTimer(board, taskID string, endsAt time.Time) (models.Task, error)
	ActiveTimers() []kanban.TimerRef
}

type key struct {
	board  string
	taskID string
}

type entry struct {
	startedAt time.Time
	endsAt    time.Time
	warn      clock.Timer
	expire    clock.Timer
}

func (e *entry) stop() {
	if e.warn != nil {
		e.warn.Stop()
	}
	if e.expire != nil {
		e.expire.Stop()
	}
}

// Scheduler arms one-shot deadline timers per task: a warning five minutes
// before the end and an expiry at the end.
type Scheduler struct {
	clock    clock.Clock
	registry Registry
	sink     notify.Sink
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[key]*entry
	closed  bool
}

func NewScheduler(c clock.Clock, registry Registry, sink notify.Sink, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:    c,
		registry: registry,
		sink:     sink,
		logger:   logger,
		pending:  make(map[key]*entry),
	}
}

// Attach subscribes the scheduler to registry events. Events are delivered
// after the registry releases its lock, so they may arrive out of order;
// stop and expiry events only cancel the deadline they describe.
func (s *Scheduler) Attach(bus *events.Bus) {
	bus.Subscribe(events.TimerStarted, func(e events.Event) {
		if e.Timer != nil {
			s.Schedule(e.Board, e.TaskID, *e.Timer)
		}
	})
	cancelTimer := func(e events.Event) {
		if e.Timer != nil {
			s.Cancel(e.Board, e.TaskID, e.Timer.EndsAt)
		}
	}
	bus.Subscribe(events.TimerStopped, cancelTimer)
	bus.Subscribe(events.TimerExpired, cancelTimer)
	bus.Subscribe(events.TaskDeleted, func(e events.Event) { s.Cancel(e.Board, e.TaskID, time.Time{}) })
	bus.Subscribe(events.BoardDeleted, func(e events.Event) { s.CancelBoard(e.Board) })
}

// Resync arms timers for every active timer already in the registry.
func (s *Scheduler) Resync() {
	for _, ref := range s.registry.ActiveTimers() {
		s.Schedule(ref.Board, ref.TaskID, ref.Timer)
	}
}

// Schedule replaces any pending deadlines for the task with ones for t. A
// timer started before the pending one is ignored.
func (s *Scheduler) Schedule(board, taskID string, t models.Timer) {
	if !t.Active {
		s.Cancel(board, taskID, t.EndsAt)
		return
	}
	k := key{board: board, taskID: taskID}
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if old, ok := s.pending[k]; ok {
		if t.StartedAt.Before(old.startedAt) {
			return
		}
		old.stop()
	}

	e := &entry{startedAt: t.StartedAt, endsAt: t.EndsAt}
	if at, ok := kanban.WarningAt(t); ok && kanban.Remaining(t, now) > kanban.WarningFloor {
		e.warn = s.clock.AfterFunc(nonNegative(at.Sub(now)), func() { s.fireWarning(k, t.EndsAt) })
	}
	e.expire = s.clock.AfterFunc(nonNegative(t.EndsAt.Sub(now)), func() { s.fireExpiry(k, t.EndsAt) })
	s.pending[k] = e

	s.logger.Debug("timer scheduled",
		zap.String("board", board),
		zap.String("task_id", taskID),
		zap.Time("ends_at", t.EndsAt),
		zap.Bool("warning", e.warn != nil),
	)
}

// Cancel drops the pending deadlines of a task. A non-zero endsAt limits the
// cancel to the timer ending then, leaving a newer restart armed.
func (s *Scheduler) Cancel(board, taskID string, endsAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{board: board, taskID: taskID}
	e, ok := s.pending[k]
	if !ok || (!endsAt.IsZero() && !e.endsAt.Equal(endsAt)) {
		return
	}
	e.stop()
	delete(s.pending, k)
}

// CancelBoard drops pending deadlines for every task of a board.
func (s *Scheduler) CancelBoard(board string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.pending {
		if k.board == board {
			e.stop()
			delete(s.pending, k)
		}
	}
}

// Pending reports how many tasks have armed deadlines.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops every pending timer. Later Schedule calls are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.pending {
		e.stop()
		delete(s.pending, k)
	}
	s.closed = true
}

// current reports whether k is still armed for the deadline endsAt.
func (s *Scheduler) current(k key, endsAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[k]
	return ok && e.endsAt.Equal(endsAt)
}

func (s *Scheduler) fireWarning(k key, endsAt time.Time) {
	if !s.current(k, endsAt) {
		return
	}
	task, _, err := s.registry.FindTask(k.board, k.taskID)
	if err != nil || task.Timer == nil || !task.Timer.Active || !task.Timer.EndsAt.Equal(endsAt) {
		return
	}
	n := notify.Warning(k.board, k.taskID, task.Title, s.clock.Now())
	if err := s.sink.Notify(context.Background(), n); err != nil {
		s.logger.Warn("warning notification failed", zap.String("task_id", k.taskID), zap.Error(err))
	}
}

func (s *Scheduler) fireExpiry(k key, endsAt time.Time) {
	s.mu.Lock()
	e, ok := s.pending[k]
	if !ok || !e.endsAt.Equal(endsAt) {
		s.mu.Unlock()
		return
	}
	delete(s.pending, k)
	s.mu.Unlock()

	task, err := s.registry.ExpireTimer(k.board, k.taskID, endsAt)
	if err != nil {
		if !errors.Is(err, kanban.ErrStaleTimer) && !errors.Is(err, kanban.ErrNotFound) {
			s.logger.Warn("timer expiry failed", zap.String("task_id", k.taskID), zap.Error(err))
		}
		return
	}
	n := notify.Expired(k.board, k.taskID, task.Title, s.clock.Now())
	if err := s.sink.Notify(context.Background(), n); err != nil {
		s.logger.Warn("expiry notification failed", zap.String("task_id", k.taskID), zap.Error(err))
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
