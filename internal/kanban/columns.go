package kanban

import (
	"fmt"

	"github.com/Yonela986/kanban-board/internal/models"
)

// Position addresses a slot in one column, as reported by a drag gesture.
type Position struct {
	Column models.ColumnID `json:"column"`
	Index  int             `json:"index"`
}

// repairColumns replaces missing sequences with empty ones.
func repairColumns(b *models.Board) {
	for _, id := range models.Columns {
		col := b.Column(id)
		if *col == nil {
			*col = []models.Task{}
		}
	}
}

func cloneBoard(b models.Board) models.Board {
	out := b
	for _, id := range models.Columns {
		src := *b.Column(id)
		dst := make([]models.Task, len(src))
		for i, t := range src {
			dst[i] = cloneTask(t)
		}
		*out.Column(id) = dst
	}
	return out
}

func column(b *models.Board, id models.ColumnID) (*[]models.Task, error) {
	col := b.Column(id)
	if col == nil {
		return nil, fmt.Errorf("%w: column %q", ErrNotFound, id)
	}
	return col, nil
}

func indexOf(tasks []models.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// reorder moves the task at from to position to within one column.
func reorder(b *models.Board, id models.ColumnID, from, to int) error {
	col, err := column(b, id)
	if err != nil {
		return err
	}
	n := len(*col)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: index out of range for column %q (len %d)", ErrValidation, id, n)
	}
	tasks := *col
	moved := tasks[from]
	tasks = append(tasks[:from:from], tasks[from+1:]...)
	tasks = insertAt(tasks, to, moved)
	*col = tasks
	return nil
}

// move transfers a task between two different columns. Both columns are
// validated before either is touched.
func move(b *models.Board, src Position, dst Position) error {
	srcCol, err := column(b, src.Column)
	if err != nil {
		return err
	}
	dstCol, err := column(b, dst.Column)
	if err != nil {
		return err
	}
	if src.Column == dst.Column {
		return reorder(b, src.Column, src.Index, dst.Index)
	}
	if src.Index < 0 || src.Index >= len(*srcCol) {
		return fmt.Errorf("%w: source index %d out of range for column %q", ErrValidation, src.Index, src.Column)
	}
	if dst.Index < 0 || dst.Index > len(*dstCol) {
		return fmt.Errorf("%w: destination index %d out of range for column %q", ErrValidation, dst.Index, dst.Column)
	}

	moved := (*srcCol)[src.Index]
	*srcCol = append((*srcCol)[:src.Index:src.Index], (*srcCol)[src.Index+1:]...)
	*dstCol = insertAt(*dstCol, dst.Index, moved)
	return nil
}

func insertAt(tasks []models.Task, i int, t models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks)+1)
	out = append(out, tasks[:i]...)
	out = append(out, t)
	return append(out, tasks[i:]...)
}

// replaceTask swaps the task with the given id in one column, keeping its
// position. Other columns are never searched.
func replaceTask(b *models.Board, id models.ColumnID, taskID string, fn func(models.Task) (models.Task, error)) (models.Task, error) {
	col, err := column(b, id)
	if err != nil {
		return models.Task{}, err
	}
	i := indexOf(*col, taskID)
	if i < 0 {
		return models.Task{}, fmt.Errorf("%w: task %s in column %q", ErrNotFound, taskID, id)
	}
	updated, err := fn((*col)[i])
	if err != nil {
		return models.Task{}, err
	}
	(*col)[i] = updated
	return updated, nil
}

func removeTask(b *models.Board, id models.ColumnID, taskID string) error {
	col, err := column(b, id)
	if err != nil {
		return err
	}
	i := indexOf(*col, taskID)
	if i < 0 {
		return fmt.Errorf("%w: task %s in column %q", ErrNotFound, taskID, id)
	}
	*col = append((*col)[:i:i], (*col)[i+1:]...)
	return nil
}

// locate finds a task in any column.
func locate(b *models.Board, taskID string) (models.ColumnID, int, bool) {
	for _, id := range models.Columns {
		if i := indexOf(*b.Column(id), taskID); i >= 0 {
			return id, i, true
		}
	}
	return "", -1, false
}
