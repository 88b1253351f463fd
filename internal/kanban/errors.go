package kanban

import "errors"

var (
	// ErrValidation rejects empty titles or comments and non-positive durations.
	ErrValidation = errors.New("invalid input")
	// ErrDuplicateName rejects a board whose name is already registered.
	ErrDuplicateName = errors.New("board name already exists")
	// ErrCapacityExceeded rejects a board beyond MaxBoards.
	ErrCapacityExceeded = errors.New("board limit reached")
	// ErrNotFound reports a missing board, column or task. Callers that
	// only care about state may treat it as a no-op.
	ErrNotFound = errors.New("not found")
	// ErrStaleTimer reports that a deadline no longer matches the task's
	// active timer.
	ErrStaleTimer = errors.New("timer no longer active")
)
