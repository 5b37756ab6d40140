package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mediaflow/backend/internal/domain/job"
	"github.com/mediaflow/backend/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the HTTP layer
	},
}

// Event is one job transition pushed to subscribers
type Event struct {
	Type string  `json:"type"`
	Job  job.Job `json:"job"`
}

// Hub fans job transitions out to connected WebSocket clients.
// It implements the pipeline's Notifier.
type Hub struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	clients map[string]chan Event
}

// NewHub creates an event hub
func NewHub(logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		clients: make(map[string]chan Event),
	}
}

// JobUpdated broadcasts a stored job transition to all subscribers.
// Never blocks: a subscriber whose buffer is full misses the event and
// catches up from the next one (or from a status poll).
func (h *Hub) JobUpdated(j job.Job) {
	event := Event{Type: "job_update", Job: j}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- event:
		default:
			h.logger.Debug("event buffer full, dropping event",
				zap.String("client_id", id),
				zap.String("job_id", j.ID),
			)
		}
	}
}

// Subscribers returns the current subscriber count
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) subscribe() (string, chan Event) {
	clientID := uuid.NewString()
	ch := make(chan Event, 64)

	h.mu.Lock()
	h.clients[clientID] = ch
	h.mu.Unlock()

	h.metrics.EventSubscribers.Inc()
	return clientID, ch
}

func (h *Hub) unsubscribe(clientID string) {
	h.mu.Lock()
	delete(h.clients, clientID)
	h.mu.Unlock()

	h.metrics.EventSubscribers.Dec()
}

// HandleConnection upgrades the request and streams job events until the
// client disconnects.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientID, events := h.subscribe()
	defer h.unsubscribe(clientID)

	h.logger.Info("event subscriber connected", zap.String("client_id", clientID))

	// Reader: drains control frames and detects disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("event write failed, closing subscriber",
					zap.String("client_id", clientID),
					zap.Error(err),
				)
				return
			}
		case <-done:
			h.logger.Info("event subscriber disconnected", zap.String("client_id", clientID))
			return
		}
	}
}
