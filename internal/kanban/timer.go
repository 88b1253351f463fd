package kanban

import (
	"fmt"
	"math"
	"time"

	"github.com/Yonela986/kanban-board/internal/models"
)

const (
	// WarningLead is how long before the end a warning is due.
	WarningLead = 5 * time.Minute
	// WarningFloor closes the warning window: once less than this remains,
	// a missed warning is no longer sent.
	WarningFloor = 4 * time.Minute

	day = 24 * time.Hour
)

// TimerEnd returns the deadline of a timer of the given length.
func TimerEnd(start time.Time, minutes int) time.Time {
	return start.Add(time.Duration(minutes) * time.Minute)
}

// Remaining returns how long until the timer ends. It may be negative.
func Remaining(t models.Timer, now time.Time) time.Duration {
	return t.EndsAt.Sub(now)
}

// InWarningWindow reports whether remaining falls in (WarningFloor, WarningLead].
func InWarningWindow(remaining time.Duration) bool {
	return remaining > WarningFloor && remaining <= WarningLead
}

// Expired reports whether an active timer has reached its end.
func Expired(t models.Timer, now time.Time) bool {
	return t.Active && Remaining(t, now) <= 0
}

// WarningAt returns when the warning for t should fire and whether t gets
// a warning at all. Timers no longer than WarningLead never warn.
func WarningAt(t models.Timer) (time.Time, bool) {
	at := t.EndsAt.Add(-WarningLead)
	return at, at.After(t.StartedAt)
}

// FormatRemaining renders a countdown as m:ss.
func FormatRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return "Time's up!"
	}
	secs := int(remaining / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// DaysRemaining returns the whole days left until end, rounded up. Zero
// means due today and negative values are overdue.
func DaysRemaining(end, now time.Time) int {
	return int(math.Ceil(float64(end.Sub(now)) / float64(day)))
}

// BoardEnd computes a sprint deadline from its creation time.
func BoardEnd(created time.Time, duration int, unit models.Unit) (time.Time, error) {
	if duration <= 0 {
		return time.Time{}, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	switch unit {
	case models.UnitWeek:
		return created.AddDate(0, 0, 7*duration), nil
	case models.UnitMonth:
		return created.AddDate(0, duration, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown unit %q", ErrValidation, unit)
}
