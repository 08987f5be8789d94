package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/metrics"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub keeps one websocket per entity id
type ConnectionHub struct {
	clients map[string]*Conn
	l       logger.Logger
	mu      sync.Mutex
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients: make(map[string]*Conn),
		l:       l,
	}
}

// Add registers the connection. An existing connection of the same entity is closed.
func (h *ConnectionHub) Add(newConn *Conn) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	existing, replaced := h.clients[newConn.entityID]
	h.clients[newConn.entityID] = newConn
	h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "add_ws_connection")
	if replaced {
		h.l.Warn(ctx, "replacing existing connection", "entity_ID", existing.entityID)
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx, "failed to close existing conn", "entity_ID", existing.entityID, "err", err.Error())
		}
	} else {
		metrics.WebSocketConnectionsGauge.WithLabelValues("triplog").Inc()
	}

	return nil
}

// Remove closes conn and forgets it, unless it was already replaced by a newer connection.
func (h *ConnectionHub) Remove(conn *Conn) {
	h.mu.Lock()
	current, ok := h.clients[conn.entityID]
	if ok && current == conn {
		delete(h.clients, conn.entityID)
		metrics.WebSocketConnectionsGauge.WithLabelValues("triplog").Dec()
	}
	h.mu.Unlock()

	_ = conn.Close()
}

// SendTo sends msg to the entity's connection, ErrConnIsNotFound when it has none.
func (h *ConnectionHub) SendTo(id string, msg any) error {
	conn, err := h.GetConn(id)
	if err != nil {
		return err
	}
	return conn.Send(msg)
}

// Close closes every connection.
func (h *ConnectionHub) Close() {
	h.mu.Lock()
	clients := make([]*Conn, 0, len(h.clients))
	for _, conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	for _, conn := range clients {
		h.Remove(conn)
	}

	h.l.Info(wrap.WithAction(context.Background(), "hub_close"), "all websocket connections closed gracefully")
}

func (h *ConnectionHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ConnectionHub) GetConn(id string) (*Conn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.clients[id]
	if !ok {
		return nil, ErrConnIsNotFound
	}
	return conn, nil
}
