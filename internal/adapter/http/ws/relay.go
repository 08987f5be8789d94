package wshandler

import (
	"context"
	"errors"
	"sync"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/pkg/logger"
	ws "github.com/Temutjin2k/triplog/pkg/wsHub"
)

// Relay connects tracker websockets with trip sessions.
// Fixes read from a user's socket go to that user's subscription,
// status snapshots go back out on the same socket.
type Relay struct {
	hub *ws.ConnectionHub
	log logger.Logger

	mu   sync.Mutex
	subs map[string]chan models.Position
}

func NewRelay(hub *ws.ConnectionHub, log logger.Logger) *Relay {
	return &Relay{
		hub:  hub,
		log:  log,
		subs: make(map[string]chan models.Position),
	}
}

// Subscribe returns the user's fixes until ctx is cancelled. A newer subscription replaces an older one.
func (r *Relay) Subscribe(ctx context.Context, userID string) (<-chan models.Position, error) {
	ch := make(chan models.Position, 16)

	r.mu.Lock()
	if old, ok := r.subs[userID]; ok {
		close(old)
	}
	r.subs[userID] = ch
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.subs[userID] == ch {
			delete(r.subs, userID)
			close(ch)
		}
	}()

	return ch, nil
}

// Deliver hands a fix to the user's subscription. It reports false when the user has none
// or the subscriber is not keeping up.
func (r *Relay) Deliver(userID string, pos models.Position) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.subs[userID]
	if !ok {
		return false
	}
	select {
	case ch <- pos:
		return true
	default:
		return false
	}
}

// Notify pushes a status snapshot to the user's socket, if connected.
func (r *Relay) Notify(ctx context.Context, userID string, snapshot models.Snapshot) {
	err := r.hub.SendTo(userID, models.StatusWebSocketMessage{Type: models.MessageTypeStatus, Data: snapshot})
	if err != nil && !errors.Is(err, ws.ErrConnIsNotFound) {
		r.log.Debug(ctx, "failed to push status", "user_id", userID, "error", err.Error())
	}
}
