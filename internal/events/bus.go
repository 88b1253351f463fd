package events

import (
	"sync"

	"github.com/Yonela986/kanban-board/internal/models"
)

const (
	BoardCreated  = "board_created"
	BoardDeleted  = "board_deleted"
	BoardSelected = "board_selected"
	BoardUpdated  = "board_updated"
	TaskDeleted   = "task_deleted"
	TimerStarted  = "timer_started"
	TimerStopped  = "timer_stopped"
	TimerExpired  = "timer_expired"
)

// Event describes a committed registry change.
type Event struct {
	Event  string          `json:"event"`
	Board  string          `json:"board"`
	TaskID string          `json:"task_id,omitempty"`
	Column models.ColumnID `json:"column,omitempty"`
	Timer  *models.Timer   `json:"timer,omitempty"`
}

type Handler func(event Event)

// Bus delivers events synchronously to subscribers in subscription order.
type Bus struct {
	subscribers map[string][]Handler
	all         []Handler
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
	}
}

func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[event] = append(b.subscribers[event], handler)
}

// SubscribeAll registers handler for every event.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[e.Event])+len(b.all))
	handlers = append(handlers, b.subscribers[e.Event]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
