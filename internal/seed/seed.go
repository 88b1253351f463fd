package seed

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Yonela986/kanban-board/internal/kanban"
	"github.com/Yonela986/kanban-board/internal/models"
)

// File is the YAML layout of a seed document.
type File struct {
	Boards []Board `yaml:"boards"`
}

type Board struct {
	Name     string      `yaml:"name"`
	Duration int         `yaml:"duration"`
	Unit     models.Unit `yaml:"unit"`
	Tasks    []Task      `yaml:"tasks"`
}

type Task struct {
	Title        string          `yaml:"title"`
	Description  string          `yaml:"description"`
	Priority     models.Priority `yaml:"priority"`
	Category     string          `yaml:"category"`
	DueDate      *time.Time      `yaml:"due_date"`
	Column       models.ColumnID `yaml:"column"`
	Comments     []string        `yaml:"comments"`
	TimerMinutes int             `yaml:"timer_minutes"`
}

// Seeder loads starter boards into a registry through its public operations.
type Seeder struct {
	registry *kanban.Registry
	logger   *zap.Logger
}

func NewSeeder(registry *kanban.Registry, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{registry: registry, logger: logger}
}

// Parse decodes a seed document.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// SeedFile reads and applies the document at path.
func (s *Seeder) SeedFile(path string) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return 0, err
	}
	return s.Seed(f), nil
}

// Seed creates every board of f, skipping boards the registry rejects, and
// returns how many boards were created.
func (s *Seeder) Seed(f *File) int {
	s.logger.Info("Running board seeders...", zap.Int("boards", len(f.Boards)))

	created := 0
	for _, b := range f.Boards {
		if err := s.seedBoard(b); err != nil {
			s.logger.Warn("Skipping seed board", zap.String("board", b.Name), zap.Error(err))
			continue
		}
		created++
	}

	s.logger.Info("Seeded boards", zap.Int("count", created))
	return created
}

func (s *Seeder) seedBoard(b Board) error {
	unit := b.Unit
	if unit == "" {
		unit = models.UnitWeek
	}
	board, err := s.registry.CreateBoard(b.Name, b.Duration, unit)
	if err != nil {
		return err
	}

	for _, t := range b.Tasks {
		if err := s.seedTask(board.Name, t); err != nil {
			s.logger.Warn("Skipping seed task",
				zap.String("board", board.Name),
				zap.String("title", t.Title),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Seeder) seedTask(board string, t Task) error {
	if t.Column != "" && !t.Column.Valid() {
		return fmt.Errorf("%w: column %q", kanban.ErrNotFound, t.Column)
	}
	task, err := s.registry.CreateTask(board, models.TaskFields{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.DueDate,
	})
	if err != nil {
		return err
	}

	col := models.ColumnTodo
	if t.Column != "" && t.Column != models.ColumnTodo {
		b, err := s.registry.Board(board)
		if err != nil {
			return err
		}
		src := kanban.Position{Column: models.ColumnTodo, Index: len(b.Todo) - 1}
		dst := kanban.Position{Column: t.Column, Index: len(*b.Column(t.Column))}
		if err := s.registry.Move(board, src, dst); err != nil {
			return err
		}
		col = t.Column
	}

	for _, text := range t.Comments {
		if _, err := s.registry.AddComment(board, task.ID, col, text); err != nil {
			return err
		}
	}
	if t.TimerMinutes > 0 {
		if _, err := s.registry.StartTimer(board, task.ID, col, t.TimerMinutes); err != nil {
			return err
		}
	}
	return nil
}
