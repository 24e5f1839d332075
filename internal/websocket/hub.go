// Package websocket broadcasts sync run progress to connected dashboard
// clients. The hub fans out JSON messages; clients that cannot keep up
// are dropped rather than allowed to block the broadcaster.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"tirepulse/pkg/contracts/domain"
)

// Message type constants.
const (
	TypeSyncStage    = "sync:stage"
	TypeSyncComplete = "sync:complete"
	TypeAlert        = "alert"
)

// Message is the envelope sent to clients.
type Message struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StagePayload reports one file's stage transition during a sync run.
type StagePayload struct {
	JobID    string           `json:"job_id"`
	FileName string           `json:"file_name"`
	Stage    domain.SyncStage `json:"stage"`
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	quit    chan struct{}
	running bool
}

// NewHub creates a hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Run is the hub's main loop. Blocks until Stop is called.
func (h *Hub) Run() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.running = false
			h.mu.Unlock()
			h.logger.Info("hub shut down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", slog.Int("clients", count))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", slog.Int("clients", count))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; drop it instead of blocking the hub.
					delete(h.clients, client)
					client.close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.quit)
}

// BroadcastStage publishes a file's stage transition.
func (h *Hub) BroadcastStage(jobID, fileName string, stage domain.SyncStage) {
	h.publish(TypeSyncStage, StagePayload{JobID: jobID, FileName: fileName, Stage: stage})
}

// BroadcastJob publishes a completed sync job record.
func (h *Hub) BroadcastJob(job *domain.DataSyncJob) {
	h.publish(TypeSyncComplete, job)
}

// BroadcastAlert publishes a newly produced alert.
func (h *Hub) BroadcastAlert(alert *domain.Alert) {
	h.publish(TypeAlert, alert)
}

func (h *Hub) publish(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message",
			slog.String("type", msgType),
			slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast channel full, message dropped", slog.String("type", msgType))
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
