package models

import "time"

// ColumnID names one of the three fixed board stages.
type ColumnID string

const (
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "inprogress"
	ColumnDone       ColumnID = "done"
)

// Columns lists the board stages in display order.
var Columns = []ColumnID{ColumnTodo, ColumnInProgress, ColumnDone}

// ColumnTitles maps stage identifiers to their display names.
var ColumnTitles = map[ColumnID]string{
	ColumnTodo:       "To Do",
	ColumnInProgress: "In Progress",
	ColumnDone:       "Done",
}

// Valid reports whether c is one of the fixed stages.
func (c ColumnID) Valid() bool {
	_, ok := ColumnTitles[c]
	return ok
}

// Unit is the sprint length unit of a board.
type Unit string

const (
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
)

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities enumerates the accepted task priorities.
var ValidPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// TimerOutcome tells a running timer apart from the two ways it can end.
type TimerOutcome string

const (
	TimerRunning TimerOutcome = "running"
	TimerExpired TimerOutcome = "expired"
	TimerStopped TimerOutcome = "stopped"
)

// Board is a sprint workspace with a deadline and three task columns.
type Board struct {
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	Duration   int       `json:"duration"`
	Unit       Unit      `json:"unit"`
	EndDate    time.Time `json:"end_date"`
	Todo       []Task    `json:"todo"`
	InProgress []Task    `json:"inprogress"`
	Done       []Task    `json:"done"`
}

// Column returns a pointer to the sequence for id, or nil for an unknown id.
func (b *Board) Column(id ColumnID) *[]Task {
	switch id {
	case ColumnTodo:
		return &b.Todo
	case ColumnInProgress:
		return &b.InProgress
	case ColumnDone:
		return &b.Done
	}
	return nil
}

// Task represents a single card on a board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Comments    []Comment  `json:"comments"`
	Timer       *Timer     `json:"timer,omitempty"`
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Timer is a countdown attached to a task. Its fields are kept after the
// timer stops or expires.
type Timer struct {
	StartedAt       time.Time    `json:"started_at"`
	EndsAt          time.Time    `json:"ends_at"`
	DurationMinutes int          `json:"duration_minutes"`
	Active          bool         `json:"active"`
	Outcome         TimerOutcome `json:"outcome"`
}

// TaskFields carries the user-editable part of a task.
type TaskFields struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// BoardView is a board plus fields derived at read time.
type BoardView struct {
	Board
	DaysRemaining int `json:"days_remaining"`
}

// Snapshot is the full registry state handed to the presentation layer.
type Snapshot struct {
	Active string      `json:"active"`
	Boards []BoardView `json:"boards"`
}
