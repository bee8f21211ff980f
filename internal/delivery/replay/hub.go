package replay

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	eventNumberOfPositionsChanged = "number_of_positions_changed"
	eventCurrentPositionChanged   = "current_position_changed"
)

// positionEvent is one pushed notification. For a single triggering
// mutation the number_of_positions_changed event is always written
// before current_position_changed, matching the in-process contract.
type positionEvent struct {
	Event string `json:"event"`
	Value int    `json:"value"`
}

// observerHub fans session notifications out to websocket observers.
// broadcast runs synchronously inside the session's mutating call, so
// event order on every socket equals notification order.
type observerHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	log   *zap.SugaredLogger
}

func newObserverHub(log *zap.SugaredLogger) *observerHub {
	return &observerHub{
		conns: make(map[*websocket.Conn]bool),
		log:   log,
	}
}

func (h *observerHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

func (h *observerHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		delete(h.conns, conn)
		_ = conn.Close()
	}
}

func (h *observerHub) broadcast(event positionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Warnw("dropping observer after write failure", "error", err)
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}
