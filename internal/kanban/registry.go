package kanban

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Yonela986/kanban-board/internal/clock"
	"github.com/Yonela986/kanban-board/internal/events"
	"github.com/Yonela986/kanban-board/internal/models"
)

// MaxBoards bounds the number of boards a registry holds.
const MaxBoards = 5

// Registry owns every board and the active-board pointer. All mutations are
// serialized; each one builds a new board value and swaps it in, so a
// rejected operation leaves prior state untouched.
type Registry struct {
	mu     sync.Mutex
	boards map[string]models.Board
	order  []string
	active string

	clock clock.Clock
	newID func() string
	bus   *events.Bus
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithIDGenerator sets the task and comment identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) { r.newID = fn }
}

// WithBus publishes committed changes to bus.
func WithBus(bus *events.Bus) Option {
	return func(r *Registry) { r.bus = bus }
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		boards: make(map[string]models.Board),
		clock:  clock.Real(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TimerRef identifies an active task timer.
type TimerRef struct {
	Board  string
	TaskID string
	Title  string
	Timer  models.Timer
}

func (r *Registry) publish(evs ...events.Event) {
	if r.bus == nil {
		return
	}
	for _, e := range evs {
		r.bus.Publish(e)
	}
}

// CreateBoard registers a new board and makes it active.
func (r *Registry) CreateBoard(name string, duration int, unit models.Unit) (models.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Board{}, fmt.Errorf("%w: board name must not be empty", ErrValidation)
	}
	now := r.clock.Now()
	end, err := BoardEnd(now, duration, unit)
	if err != nil {
		return models.Board{}, err
	}

	r.mu.Lock()
	if len(r.boards) >= MaxBoards {
		r.mu.Unlock()
		return models.Board{}, fmt.Errorf("%w: max %d boards allowed", ErrCapacityExceeded, MaxBoards)
	}
	if _, exists := r.boards[name]; exists {
		r.mu.Unlock()
		return models.Board{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	b := models.Board{
		Name:       name,
		CreatedAt:  now,
		Duration:   duration,
		Unit:       unit,
		EndDate:    end,
		Todo:       []models.Task{},
		InProgress: []models.Task{},
		Done:       []models.Task{},
	}
	r.boards[name] = b
	r.order = append(r.order, name)
	r.active = name
	out := cloneBoard(b)
	r.mu.Unlock()

	r.publish(events.Event{Event: events.BoardCreated, Board: name})
	return out, nil
}

// DeleteBoard removes a board and its tasks. When the active board is
// deleted, the oldest remaining board becomes active.
func (r *Registry) DeleteBoard(name string) error {
	r.mu.Lock()
	if _, ok := r.boards[name]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: board %q", ErrNotFound, name)
	}
	delete(r.boards, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	if r.active == name {
		r.active = ""
		if len(r.order) > 0 {
			r.active = r.order[0]
		}
	}
	r.mu.Unlock()

	r.publish(events.Event{Event: events.BoardDeleted, Board: name})
	return nil
}

// SelectBoard moves the active pointer. An unknown name changes nothing.
func (r *Registry) SelectBoard(name string) error {
	r.mu.Lock()
	if _, ok := r.boards[name]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: board %q", ErrNotFound, name)
	}
	r.active = name
	r.mu.Unlock()

	r.publish(events.Event{Event: events.BoardSelected, Board: name})
	return nil
}

// Active returns the selected board name, or false when none is selected.
func (r *Registry) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}

// Now reports the registry's current time.
func (r *Registry) Now() time.Time {
	return r.clock.Now()
}

// Len returns the number of registered boards.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Board returns a copy of the named board.
func (r *Registry) Board(name string) (models.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.lookup(name)
	if err != nil {
		return models.Board{}, err
	}
	return cloneBoard(b), nil
}

// Boards returns copies of all boards in creation order.
func (r *Registry) Boards() []models.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Board, 0, len(r.order))
	for _, name := range r.order {
		b, _ := r.lookup(name)
		out = append(out, cloneBoard(b))
	}
	return out
}

// Snapshot returns the full state with derived days remaining.
func (r *Registry) Snapshot() models.Snapshot {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := models.Snapshot{Active: r.active, Boards: make([]models.BoardView, 0, len(r.order))}
	for _, name := range r.order {
		b, _ := r.lookup(name)
		snap.Boards = append(snap.Boards, models.BoardView{
			Board:         cloneBoard(b),
			DaysRemaining: DaysRemaining(b.EndDate, now),
		})
	}
	return snap
}

// lookup fetches a board and repairs missing columns in place.
func (r *Registry) lookup(name string) (models.Board, error) {
	b, ok := r.boards[name]
	if !ok {
		return models.Board{}, fmt.Errorf("%w: board %q", ErrNotFound, name)
	}
	if b.Todo == nil || b.InProgress == nil || b.Done == nil {
		repairColumns(&b)
		r.boards[name] = b
	}
	return b, nil
}

// update applies fn to a copy of the named board and commits it only when fn
// succeeds.
func (r *Registry) update(name string, fn func(b *models.Board) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.lookup(name)
	if err != nil {
		return err
	}
	next := cloneBoard(b)
	if err := fn(&next); err != nil {
		return err
	}
	r.boards[name] = next
	return nil
}

// Reorder moves a task within one column.
func (r *Registry) Reorder(board string, col models.ColumnID, from, to int) error {
	err := r.update(board, func(b *models.Board) error {
		return reorder(b, col, from, to)
	})
	if err != nil {
		return err
	}
	r.publish(events.Event{Event: events.BoardUpdated, Board: board, Column: col})
	return nil
}

// Move transfers a task from one column slot to another.
func (r *Registry) Move(board string, src, dst Position) error {
	err := r.update(board, func(b *models.Board) error {
		return move(b, src, dst)
	})
	if err != nil {
		return err
	}
	r.publish(events.Event{Event: events.BoardUpdated, Board: board, Column: dst.Column})
	return nil
}

// Drag applies a drag gesture: a reorder when both ends share a column,
// otherwise a move.
func (r *Registry) Drag(board string, src, dst Position) error {
	if src.Column == dst.Column {
		return r.Reorder(board, src.Column, src.Index, dst.Index)
	}
	return r.Move(board, src, dst)
}

// CreateTask appends a new task to the todo column.
func (r *Registry) CreateTask(board string, fields models.TaskFields) (models.Task, error) {
	task, err := NewTask(r.newID(), fields, r.clock.Now())
	if err != nil {
		return models.Task{}, err
	}
	err = r.update(board, func(b *models.Board) error {
		if _, _, exists := locate(b, task.ID); exists {
			return fmt.Errorf("%w: duplicate task id %s", ErrValidation, task.ID)
		}
		b.Todo = append(b.Todo, task)
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	r.publish(events.Event{Event: events.BoardUpdated, Board: board, TaskID: task.ID, Column: models.ColumnTodo})
	return cloneTask(task), nil
}

// UpdateTask replaces the editable fields of a task in place.
func (r *Registry) UpdateTask(board, taskID string, col models.ColumnID, fields models.TaskFields) (models.Task, error) {
	var out models.Task
	err := r.update(board, func(b *models.Board) error {
		var err error
		out, err = replaceTask(b, col, taskID, func(t models.Task) (models.Task, error) {
			return ApplyFields(t, fields)
		})
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	r.publish(events.Event{Event: events.BoardUpdated, Board: board, TaskID: taskID, Column: col})
	return cloneTask(out), nil
}

// DeleteTask removes a task from one column.
func (r *Registry) DeleteTask(board, taskID string, col models.ColumnID) error {
	err := r.update(board, func(b *models.Board) error {
		return removeTask(b, col, taskID)
	})
	if err != nil {
		return err
	}
	r.publish(events.Event{Event: events.TaskDeleted, Board: board, TaskID: taskID, Column: col})
	return nil
}

// AddComment appends a comment to a task.
func (r *Registry) AddComment(board, taskID string, col models.ColumnID, text string) (models.Comment, error) {
	id, now := r.newID(), r.clock.Now()
	var comment models.Comment
	err := r.update(board, func(b *models.Board) error {
		_, err := replaceTask(b, col, taskID, func(t models.Task) (models.Task, error) {
			next, c, err := AppendComment(t, id, text, now)
			comment = c
			return next, err
		})
		return err
	})
	if err != nil {
		return models.Comment{}, err
	}
	r.publish(events.Event{Event: events.BoardUpdated, Board: board, TaskID: taskID, Column: col})
	return comment, nil
}

// StartTimer arms a countdown on a task, replacing any earlier timer.
func (r *Registry) StartTimer(board, taskID string, col models.ColumnID, minutes int) (models.Task, error) {
	now := r.clock.Now()
	var out models.Task
	err := r.update(board, func(b *models.Board) error {
		var err error
		out, err = replaceTask(b, col, taskID, func(t models.Task) (models.Task, error) {
			return StartTimer(t, minutes, now)
		})
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	timer := *out.Timer
	r.publish(events.Event{Event: events.TimerStarted, Board: board, TaskID: taskID, Column: col, Timer: &timer})
	return cloneTask(out), nil
}

// StopTimer deactivates a task's countdown, keeping its recorded fields.
func (r *Registry) StopTimer(board, taskID string, col models.ColumnID) (models.Task, error) {
	var out models.Task
	err := r.update(board, func(b *models.Board) error {
		var err error
		out, err = replaceTask(b, col, taskID, StopTimer)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	timer := *out.Timer
	r.publish(events.Event{Event: events.TimerStopped, Board: board, TaskID: taskID, Column: col, Timer: &timer})
	return cloneTask(out), nil
}

// ExpireTimer ends the timer of a task wherever it currently sits, provided
// it is still the active timer ending at endsAt.
func (r *Registry) ExpireTimer(board, taskID string, endsAt time.Time) (models.Task, error) {
	var (
		out models.Task
		col models.ColumnID
	)
	err := r.update(board, func(b *models.Board) error {
		var ok bool
		col, _, ok = locate(b, taskID)
		if !ok {
			return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
		}
		var err error
		out, err = replaceTask(b, col, taskID, func(t models.Task) (models.Task, error) {
			return ExpireTimer(t, endsAt)
		})
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	timer := *out.Timer
	r.publish(events.Event{Event: events.TimerExpired, Board: board, TaskID: taskID, Column: col, Timer: &timer})
	return cloneTask(out), nil
}

// FindTask returns a task and the column holding it.
func (r *Registry) FindTask(board, taskID string) (models.Task, models.ColumnID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.lookup(board)
	if err != nil {
		return models.Task{}, "", err
	}
	col, i, ok := locate(&b, taskID)
	if !ok {
		return models.Task{}, "", fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}
	return cloneTask((*b.Column(col))[i]), col, nil
}

// ActiveTimers lists every running timer across all boards.
func (r *Registry) ActiveTimers() []TimerRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	var refs []TimerRef
	for _, name := range r.order {
		b, _ := r.lookup(name)
		for _, id := range models.Columns {
			for _, t := range *b.Column(id) {
				if t.Timer != nil && t.Timer.Active {
					refs = append(refs, TimerRef{Board: name, TaskID: t.ID, Title: t.Title, Timer: *t.Timer})
				}
			}
		}
	}
	return refs
}
