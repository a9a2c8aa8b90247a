package loop

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub tracks the clients of a server process so a shutdown can warn every
// player and wait for them to leave.
type Hub struct {
	mu       sync.RWMutex
	sessions map[int]string
	nextID   int
	shutdown chan struct{}
	once     sync.Once
	logger   *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[int]string),
		nextID:   1,
		shutdown: make(chan struct{}),
		logger:   logger,
	}
}

// register adds a client and returns its ID and the channel closed on shutdown.
func (h *Hub) register(username string) (int, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.sessions[id] = username
	h.logger.Info("client registered", zap.Int("id", id), zap.String("user", username), zap.Int("clients", len(h.sessions)))
	return id, h.shutdown
}

func (h *Hub) unregister(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, id)
	h.logger.Info("client unregistered", zap.Int("id", id), zap.Int("clients", len(h.sessions)))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Shutdown notifies every client and waits until all have disconnected, or
// until timeout.
func (h *Hub) Shutdown(timeout time.Duration) {
	h.once.Do(func() { close(h.shutdown) })
	h.logger.Info("notifying clients about shutdown", zap.Int("clients", h.Len()))

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for h.Len() > 0 {
		select {
		case <-deadline:
			h.logger.Warn("shutdown timed out", zap.Int("clients", h.Len()))
			return
		case <-ticker.C:
		}
	}
}
