package kanban

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/Yonela986/kanban-board/internal/clock"
	"github.com/Yonela986/kanban-board/internal/events"
	"github.com/Yonela986/kanban-board/internal/models"
)

var registryStart = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestRegistry(t *testing.T) (*Registry, *clock.Fake, *[]events.Event) {
	t.Helper()
	fake := clock.NewFake(registryStart)
	bus := events.NewBus()
	var seen []events.Event
	bus.SubscribeAll(func(e events.Event) { seen = append(seen, e) })
	r := NewRegistry(WithClock(fake), WithIDGenerator(sequentialIDs()), WithBus(bus))
	return r, fake, &seen
}

func columnIDs(b models.Board, col models.ColumnID) []string {
	var ids []string
	for _, task := range *b.Column(col) {
		ids = append(ids, task.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// assertPartition checks that every board task sits in exactly one column.
func assertPartition(t *testing.T, b models.Board, want []string) {
	t.Helper()
	seen := map[string]int{}
	for _, col := range models.Columns {
		for _, id := range columnIDs(b, col) {
			seen[id]++
		}
	}
	var got []string
	for id, n := range seen {
		if n != 1 {
			t.Errorf("task %s appears %d times", id, n)
		}
		got = append(got, id)
	}
	sort.Strings(got)
	sorted := append([]string(nil), want...)
	sort.Strings(sorted)
	if !equalIDs(got, sorted) {
		t.Errorf("board tasks = %v, want %v", got, sorted)
	}
}

func TestCreateBoard(t *testing.T) {
	t.Parallel()

	r, _, seen := newTestRegistry(t)

	b, err := r.CreateBoard(" Sprint1 ", 2, models.UnitWeek)
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if b.Name != "Sprint1" {
		t.Errorf("name not trimmed: %q", b.Name)
	}
	if !b.EndDate.Equal(registryStart.AddDate(0, 0, 14)) {
		t.Errorf("expected end date now+14d, got %v", b.EndDate)
	}
	for _, col := range models.Columns {
		if tasks := *b.Column(col); tasks == nil || len(tasks) != 0 {
			t.Errorf("column %s not empty: %v", col, tasks)
		}
	}
	if active, ok := r.Active(); !ok || active != "Sprint1" {
		t.Errorf("expected Sprint1 active, got %q", active)
	}
	if len(*seen) != 1 || (*seen)[0].Event != events.BoardCreated {
		t.Errorf("unexpected events %+v", *seen)
	}
}

func TestCreateBoardValidation(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	cases := []struct {
		name     string
		duration int
		unit     models.Unit
	}{
		{"", 1, models.UnitWeek},
		{"A", 0, models.UnitWeek},
		{"A", -3, models.UnitMonth},
		{"A", 1, "day"},
	}
	for _, c := range cases {
		if _, err := r.CreateBoard(c.name, c.duration, c.unit); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateBoard(%q, %d, %q): expected ErrValidation, got %v", c.name, c.duration, c.unit, err)
		}
	}
	if r.Len() != 0 {
		t.Errorf("rejected boards were registered: %d", r.Len())
	}
}

func TestCreateBoardDuplicateName(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	original, _ := r.CreateBoard("Sprint1", 2, models.UnitWeek)
	if _, err := r.CreateTask("Sprint1", models.TaskFields{Title: "keep me"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if _, err := r.CreateBoard("Sprint1", 1, models.UnitMonth); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("registry size changed: %d", r.Len())
	}
	b, _ := r.Board("Sprint1")
	if b.Unit != original.Unit || !b.EndDate.Equal(original.EndDate) || len(b.Todo) != 1 {
		t.Errorf("original board changed: %+v", b)
	}
}

func TestCreateBoardCapacity(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	for i := 1; i <= MaxBoards; i++ {
		if _, err := r.CreateBoard(fmt.Sprintf("B%d", i), 1, models.UnitWeek); err != nil {
			t.Fatalf("CreateBoard %d: %v", i, err)
		}
	}

	if _, err := r.CreateBoard("B6", 1, models.UnitWeek); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	boards := r.Boards()
	if len(boards) != MaxBoards {
		t.Fatalf("expected %d boards, got %d", MaxBoards, len(boards))
	}
	for i, b := range boards {
		if b.Name != fmt.Sprintf("B%d", i+1) {
			t.Errorf("membership changed at %d: %s", i, b.Name)
		}
	}
	if active, _ := r.Active(); active != "B5" {
		t.Errorf("active board changed to %q", active)
	}
}

func TestCreateBoardCapacityCheckedBeforeDuplicate(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	for i := 1; i <= MaxBoards; i++ {
		r.CreateBoard(fmt.Sprintf("B%d", i), 1, models.UnitWeek)
	}

	_, err := r.CreateBoard("B1", 1, models.UnitWeek)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded for duplicate at capacity, got %v", err)
	}
	if errors.Is(err, ErrDuplicateName) {
		t.Errorf("capacity error should not also report a duplicate: %v", err)
	}
}

func TestDeleteBoardMovesActiveSelection(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("B", 1, models.UnitWeek)
	r.CreateBoard("A", 1, models.UnitWeek)
	r.CreateTask("A", models.TaskFields{Title: "one"})

	if err := r.DeleteBoard("A"); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if active, ok := r.Active(); !ok || active != "B" {
		t.Errorf("expected B active, got %q", active)
	}
	if _, err := r.Board("A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted board still present: %v", err)
	}

	if err := r.DeleteBoard("B"); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if _, ok := r.Active(); ok {
		t.Error("expected no active board after deleting all")
	}
	if err := r.DeleteBoard("B"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteInactiveBoardKeepsSelection(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	r.CreateBoard("B", 1, models.UnitWeek)

	if err := r.DeleteBoard("A"); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if active, _ := r.Active(); active != "B" {
		t.Errorf("expected B to stay active, got %q", active)
	}
}

func TestSelectBoard(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	r.CreateBoard("B", 1, models.UnitWeek)

	if err := r.SelectBoard("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if active, _ := r.Active(); active != "B" {
		t.Errorf("failed select changed active board to %q", active)
	}
	if err := r.SelectBoard("A"); err != nil {
		t.Fatalf("SelectBoard: %v", err)
	}
	if active, _ := r.Active(); active != "A" {
		t.Errorf("expected A active, got %q", active)
	}
}

func TestSnapshotDaysRemaining(t *testing.T) {
	t.Parallel()

	r, fake, _ := newTestRegistry(t)
	r.CreateBoard("Sprint1", 2, models.UnitWeek)
	fake.Advance(36 * time.Hour)

	snap := r.Snapshot()
	if snap.Active != "Sprint1" || len(snap.Boards) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Boards[0].DaysRemaining != 13 {
		t.Errorf("expected 13 days remaining, got %d", snap.Boards[0].DaysRemaining)
	}
}

func TestColumnsRepairedOnAccess(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)

	r.mu.Lock()
	b := r.boards["A"]
	b.InProgress = nil
	b.Done = nil
	r.boards["A"] = b
	r.mu.Unlock()

	got, err := r.Board("A")
	if err != nil {
		t.Fatalf("Board: %v", err)
	}
	if got.InProgress == nil || got.Done == nil {
		t.Error("columns not repaired")
	}
}

func seedTasks(t *testing.T, r *Registry, board string, titles ...string) []string {
	t.Helper()
	var ids []string
	for _, title := range titles {
		task, err := r.CreateTask(board, models.TaskFields{Title: title})
		if err != nil {
			t.Fatalf("CreateTask(%q): %v", title, err)
		}
		ids = append(ids, task.ID)
	}
	return ids
}

func TestCreateTaskAppendsToTodo(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "one", "two")

	b, _ := r.Board("A")
	if !equalIDs(columnIDs(b, models.ColumnTodo), ids) {
		t.Errorf("todo = %v, want %v", columnIDs(b, models.ColumnTodo), ids)
	}
	if _, err := r.CreateTask("A", models.TaskFields{Title: ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := r.CreateTask("missing", models.TaskFields{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReorderRoundTrip(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a", "b", "c", "d")

	if err := r.Reorder("A", models.ColumnTodo, 0, 2); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	b, _ := r.Board("A")
	want := []string{ids[1], ids[2], ids[0], ids[3]}
	if got := columnIDs(b, models.ColumnTodo); !equalIDs(got, want) {
		t.Errorf("after reorder: %v, want %v", got, want)
	}

	if err := r.Reorder("A", models.ColumnTodo, 2, 0); err != nil {
		t.Fatalf("Reorder back: %v", err)
	}
	b, _ = r.Board("A")
	if got := columnIDs(b, models.ColumnTodo); !equalIDs(got, ids) {
		t.Errorf("round trip: %v, want %v", got, ids)
	}
}

func TestReorderRejectsBadIndices(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a", "b")

	for _, idx := range [][2]int{{-1, 0}, {0, 2}, {2, 0}, {0, -1}} {
		if err := r.Reorder("A", models.ColumnTodo, idx[0], idx[1]); !errors.Is(err, ErrValidation) {
			t.Errorf("Reorder(%d, %d): expected ErrValidation, got %v", idx[0], idx[1], err)
		}
	}
	if err := r.Reorder("A", "backlog", 0, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown column: expected ErrNotFound, got %v", err)
	}
	b, _ := r.Board("A")
	if !equalIDs(columnIDs(b, models.ColumnTodo), ids) {
		t.Error("rejected reorder changed state")
	}
}

func TestMoveRoundTrip(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a", "b", "c")
	if err := r.Move("A", Position{models.ColumnTodo, 2}, Position{models.ColumnDone, 0}); err != nil {
		t.Fatalf("seed move: %v", err)
	}
	before, _ := r.Board("A")

	src := Position{Column: models.ColumnTodo, Index: 0}
	dst := Position{Column: models.ColumnDone, Index: 1}
	if err := r.Move("A", src, dst); err != nil {
		t.Fatalf("Move: %v", err)
	}
	mid, _ := r.Board("A")
	if got := columnIDs(mid, models.ColumnDone); !equalIDs(got, []string{ids[2], ids[0]}) {
		t.Errorf("done after move = %v", got)
	}
	assertPartition(t, mid, ids)

	if err := r.Move("A", dst, src); err != nil {
		t.Fatalf("Move back: %v", err)
	}
	after, _ := r.Board("A")
	for _, col := range models.Columns {
		if !equalIDs(columnIDs(after, col), columnIDs(before, col)) {
			t.Errorf("column %s: %v, want %v", col, columnIDs(after, col), columnIDs(before, col))
		}
	}
}

func TestMoveIsAtomic(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a")

	cases := []struct {
		src, dst Position
		want     error
	}{
		{Position{models.ColumnTodo, 0}, Position{models.ColumnDone, 1}, ErrValidation},
		{Position{models.ColumnTodo, 1}, Position{models.ColumnDone, 0}, ErrValidation},
		{Position{models.ColumnTodo, 0}, Position{"archive", 0}, ErrNotFound},
		{Position{"archive", 0}, Position{models.ColumnDone, 0}, ErrNotFound},
	}
	for _, c := range cases {
		if err := r.Move("A", c.src, c.dst); !errors.Is(err, c.want) {
			t.Errorf("Move(%v, %v): expected %v, got %v", c.src, c.dst, c.want, err)
		}
	}
	b, _ := r.Board("A")
	if !equalIDs(columnIDs(b, models.ColumnTodo), ids) || len(b.Done) != 0 {
		t.Errorf("rejected moves changed state: %+v", b)
	}
}

func TestDragDispatch(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a", "b")

	if err := r.Drag("A", Position{models.ColumnTodo, 1}, Position{models.ColumnTodo, 0}); err != nil {
		t.Fatalf("Drag reorder: %v", err)
	}
	if err := r.Drag("A", Position{models.ColumnTodo, 0}, Position{models.ColumnInProgress, 0}); err != nil {
		t.Fatalf("Drag move: %v", err)
	}
	b, _ := r.Board("A")
	if !equalIDs(columnIDs(b, models.ColumnInProgress), []string{ids[1]}) || !equalIDs(columnIDs(b, models.ColumnTodo), []string{ids[0]}) {
		t.Errorf("unexpected board %v / %v", columnIDs(b, models.ColumnTodo), columnIDs(b, models.ColumnInProgress))
	}
}

func TestUpdateTaskOnlySearchesGivenColumn(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a", "b", "c")

	if _, err := r.UpdateTask("A", ids[1], models.ColumnDone, models.TaskFields{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong column: expected ErrNotFound, got %v", err)
	}

	updated, err := r.UpdateTask("A", ids[1], models.ColumnTodo, models.TaskFields{Title: "B!", Priority: models.PriorityLow})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.ID != ids[1] || updated.Title != "B!" {
		t.Errorf("unexpected task %+v", updated)
	}
	b, _ := r.Board("A")
	if !equalIDs(columnIDs(b, models.ColumnTodo), ids) || b.Todo[1].Title != "B!" {
		t.Errorf("position not preserved: %v", columnIDs(b, models.ColumnTodo))
	}

	if _, err := r.UpdateTask("A", ids[1], models.ColumnTodo, models.TaskFields{Title: " "}); !errors.Is(err, ErrValidation) {
		t.Errorf("blank title: expected ErrValidation, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	r, _, seen := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a", "b")

	if err := r.DeleteTask("A", ids[0], models.ColumnDone); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong column: expected ErrNotFound, got %v", err)
	}
	if err := r.DeleteTask("A", ids[0], models.ColumnTodo); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	b, _ := r.Board("A")
	assertPartition(t, b, ids[1:])

	last := (*seen)[len(*seen)-1]
	if last.Event != events.TaskDeleted || last.TaskID != ids[0] {
		t.Errorf("unexpected last event %+v", last)
	}
}

func TestAddComment(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a")

	if _, err := r.AddComment("A", ids[0], models.ColumnTodo, "   "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank comment: expected ErrValidation, got %v", err)
	}
	if _, err := r.AddComment("A", "nope", models.ColumnTodo, "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task: expected ErrNotFound, got %v", err)
	}
	c, err := r.AddComment("A", ids[0], models.ColumnTodo, "first")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	r.AddComment("A", ids[0], models.ColumnTodo, "second")

	b, _ := r.Board("A")
	comments := b.Todo[0].Comments
	if len(comments) != 2 || comments[0].ID != c.ID || comments[1].Text != "second" {
		t.Errorf("unexpected comments %+v", comments)
	}
}

func TestRegistryTimerStartStop(t *testing.T) {
	t.Parallel()

	r, fake, seen := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a")

	if _, err := r.StartTimer("A", ids[0], models.ColumnTodo, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("zero minutes: expected ErrValidation, got %v", err)
	}

	task, err := r.StartTimer("A", ids[0], models.ColumnTodo, 45)
	if err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	if task.Timer.EndsAt.Sub(task.Timer.StartedAt) != 45*time.Minute {
		t.Errorf("end - start = %v", task.Timer.EndsAt.Sub(task.Timer.StartedAt))
	}
	if last := (*seen)[len(*seen)-1]; last.Event != events.TimerStarted || last.Timer == nil {
		t.Errorf("unexpected event %+v", last)
	}
	if refs := r.ActiveTimers(); len(refs) != 1 || refs[0].TaskID != ids[0] {
		t.Errorf("ActiveTimers = %+v", refs)
	}

	fake.Advance(10 * time.Minute)
	stopped, err := r.StopTimer("A", ids[0], models.ColumnTodo)
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if stopped.Timer.Active || stopped.Timer.Outcome != models.TimerStopped {
		t.Errorf("timer not stopped: %+v", stopped.Timer)
	}
	if !stopped.Timer.StartedAt.Equal(task.Timer.StartedAt) || !stopped.Timer.EndsAt.Equal(task.Timer.EndsAt) || stopped.Timer.DurationMinutes != 45 {
		t.Errorf("stop changed timer fields: %+v", stopped.Timer)
	}
	if refs := r.ActiveTimers(); len(refs) != 0 {
		t.Errorf("expected no active timers, got %+v", refs)
	}
}

func TestExpireTimerFollowsTaskAcrossColumns(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	ids := seedTasks(t, r, "A", "a")
	task, _ := r.StartTimer("A", ids[0], models.ColumnTodo, 5)
	r.Move("A", Position{models.ColumnTodo, 0}, Position{models.ColumnInProgress, 0})

	expired, err := r.ExpireTimer("A", ids[0], task.Timer.EndsAt)
	if err != nil {
		t.Fatalf("ExpireTimer: %v", err)
	}
	if expired.Timer.Outcome != models.TimerExpired {
		t.Errorf("unexpected outcome %q", expired.Timer.Outcome)
	}
	if _, err := r.ExpireTimer("A", ids[0], task.Timer.EndsAt); !errors.Is(err, ErrStaleTimer) {
		t.Errorf("second expiry: expected ErrStaleTimer, got %v", err)
	}
	_, col, err := r.FindTask("A", ids[0])
	if err != nil || col != models.ColumnInProgress {
		t.Errorf("FindTask = %q, %v", col, err)
	}
}

func TestReturnedBoardsAreCopies(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	r.CreateBoard("A", 1, models.UnitWeek)
	seedTasks(t, r, "A", "a")

	b, _ := r.Board("A")
	b.Todo[0].Title = "mutated"
	b.Todo = append(b.Todo, models.Task{ID: "ghost"})

	fresh, _ := r.Board("A")
	if len(fresh.Todo) != 1 || fresh.Todo[0].Title != "a" {
		t.Errorf("registry state leaked through copy: %+v", fresh.Todo)
	}
}

func TestSprintScenario(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRegistry(t)
	b, err := r.CreateBoard("Sprint1", 2, models.UnitWeek)
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	if !b.EndDate.Equal(registryStart.Add(14 * 24 * time.Hour)) {
		t.Errorf("end date = %v", b.EndDate)
	}

	task, err := r.CreateTask("Sprint1", models.TaskFields{Title: "Fix bug"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" || len(task.Comments) != 0 {
		t.Errorf("unexpected task %+v", task)
	}

	if err := r.Move("Sprint1", Position{models.ColumnTodo, 0}, Position{models.ColumnInProgress, 0}); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := r.AddComment("Sprint1", task.ID, models.ColumnInProgress, "looks good"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	b, _ = r.Board("Sprint1")
	if len(b.InProgress) != 1 || len(b.InProgress[0].Comments) != 1 || b.InProgress[0].Comments[0].Text != "looks good" {
		t.Errorf("unexpected in-progress column %+v", b.InProgress)
	}
	assertPartition(t, b, []string{task.ID})
}
