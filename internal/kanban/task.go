package kanban

import (
	"fmt"
	"strings"
	"time"

	"github.com/Yonela986/kanban-board/internal/models"
)

// NewTask builds a task from user fields.
func NewTask(id string, fields models.TaskFields, now time.Time) (models.Task, error) {
	t := models.Task{
		ID:        id,
		CreatedAt: now,
		Comments:  []models.Comment{},
	}
	return ApplyFields(t, fields)
}

// ApplyFields replaces the editable fields of t. Identity, creation time,
// comments and timer are kept.
func ApplyFields(t models.Task, fields models.TaskFields) (models.Task, error) {
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return models.Task{}, fmt.Errorf("%w: task title must not be empty", ErrValidation)
	}

	priority := fields.Priority
	if _, ok := models.ValidPriorities[priority]; !ok {
		priority = models.PriorityMedium
	}

	out := cloneTask(t)
	out.Title = title
	out.Description = strings.TrimSpace(fields.Description)
	out.Priority = priority
	out.Category = strings.TrimSpace(fields.Category)
	out.DueDate = nil
	if fields.DueDate != nil {
		due := *fields.DueDate
		out.DueDate = &due
	}
	return out, nil
}

// AppendComment returns t with a new comment at the end.
func AppendComment(t models.Task, id, text string, now time.Time) (models.Task, models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Task{}, models.Comment{}, fmt.Errorf("%w: comment must not be empty", ErrValidation)
	}
	c := models.Comment{ID: id, Text: text, CreatedAt: now}
	out := cloneTask(t)
	out.Comments = append(out.Comments, c)
	return out, c, nil
}

// StartTimer returns t with a fresh active timer, replacing any prior one.
func StartTimer(t models.Task, minutes int, now time.Time) (models.Task, error) {
	if minutes <= 0 {
		return models.Task{}, fmt.Errorf("%w: timer minutes must be positive", ErrValidation)
	}
	out := cloneTask(t)
	out.Timer = &models.Timer{
		StartedAt:       now,
		EndsAt:          TimerEnd(now, minutes),
		DurationMinutes: minutes,
		Active:          true,
		Outcome:         models.TimerRunning,
	}
	return out, nil
}

// StopTimer deactivates the timer of t and keeps its other fields.
func StopTimer(t models.Task) (models.Task, error) {
	if t.Timer == nil {
		return models.Task{}, fmt.Errorf("%w: task %s has no timer", ErrNotFound, t.ID)
	}
	out := cloneTask(t)
	if out.Timer.Active {
		out.Timer.Active = false
		out.Timer.Outcome = models.TimerStopped
	}
	return out, nil
}

// ExpireTimer deactivates the timer of t if it is the active timer ending at
// endsAt.
func ExpireTimer(t models.Task, endsAt time.Time) (models.Task, error) {
	if t.Timer == nil || !t.Timer.Active || !t.Timer.EndsAt.Equal(endsAt) {
		return models.Task{}, ErrStaleTimer
	}
	out := cloneTask(t)
	out.Timer.Active = false
	out.Timer.Outcome = models.TimerExpired
	return out, nil
}

func cloneTask(t models.Task) models.Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	out.Comments = make([]models.Comment, len(t.Comments))
	copy(out.Comments, t.Comments)
	if t.Timer != nil {
		timer := *t.Timer
		out.Timer = &timer
	}
	return out
}
