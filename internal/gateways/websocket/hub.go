package websocket

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Yonela986/kanban-board/internal/events"
	"github.com/Yonela986/kanban-board/internal/kanban"
	"github.com/Yonela986/kanban-board/internal/models"
	"github.com/Yonela986/kanban-board/internal/notify"
)

const (
	EventSnapshot     = "snapshot"
	EventNotification = "notification"
	EventCountdown    = "countdown"

	sendBuffer = 16
)

// Message is a frame pushed to connected clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Countdown is the display state of one running timer.
type Countdown struct {
	Board     string `json:"board"`
	TaskID    string `json:"task_id"`
	Remaining int64  `json:"remaining_seconds"`
	Text      string `json:"text"`
}

// Source is the registry view the hub renders.
type Source interface {
	Snapshot() models.Snapshot
	ActiveTimers() []kanban.TimerRef
}

type Client struct {
	hub  *Hub
	conn ClientConn
	send chan []byte
	ID   string
}

type ClientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

func generateClientID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "xxxxx"
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// Hub tracks websocket clients and pushes snapshots, notifications and a
// once-per-second countdown to all of them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	source     Source
	now        func() time.Time
	tick       time.Duration
	logger     *zap.SugaredLogger
}

func NewHub(source Source, now func() time.Time, logger *zap.Logger) *Hub {
	if now == nil {
		now = time.Now
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		source:     source,
		now:        now,
		tick:       time.Second,
		logger:     logger.Sugar(),
	}
}

// Attach rebroadcasts the snapshot after every registry change.
func (h *Hub) Attach(bus *events.Bus) {
	bus.SubscribeAll(func(events.Event) {
		h.Publish(EventSnapshot, h.source.Snapshot())
	})
}

// Publish queues a frame for every client. Frames are dropped when the hub
// is saturated.
func (h *Hub) Publish(event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		h.logger.Errorw("Failed to encode websocket frame", "event", event, "error", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warnw("Websocket broadcast dropped", "event", event)
	}
}

// Notify pushes a notification to connected clients.
func (h *Hub) Notify(_ context.Context, n notify.Notification) error {
	h.Publish(EventNotification, n)
	return nil
}

// Countdowns renders the display state of every running timer.
func (h *Hub) Countdowns() []Countdown {
	now := h.now()
	refs := h.source.ActiveTimers()
	out := make([]Countdown, 0, len(refs))
	for _, ref := range refs {
		remaining := kanban.Remaining(ref.Timer, now)
		secs := int64(remaining / time.Second)
		if secs < 0 {
			secs = 0
		}
		out = append(out, Countdown{
			Board:     ref.Board,
			TaskID:    ref.TaskID,
			Remaining: secs,
			Text:      kanban.FormatRemaining(remaining),
		})
	}
	return out
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket Hub started")

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("WebSocket Hub stopped")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Infow("Client connected",
				"client_id", client.ID,
				"clients_count", len(h.clients),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Infow("Client disconnected",
					"client_id", client.ID,
					"clients_count", len(h.clients),
				)
			}

		case payload := <-h.broadcast:
			h.fanOut(payload)

		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}
			countdowns := h.Countdowns()
			if len(countdowns) == 0 {
				continue
			}
			payload, err := json.Marshal(Message{Event: EventCountdown, Data: countdowns})
			if err != nil {
				continue
			}
			h.fanOut(payload)
		}
	}
}

func (h *Hub) fanOut(payload []byte) {
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Warnw("Client too slow, disconnecting", "client_id", client.ID)
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
}
