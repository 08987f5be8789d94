package wshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Temutjin2k/triplog/internal/domain/models"
	"github.com/Temutjin2k/triplog/internal/domain/types"
	"github.com/Temutjin2k/triplog/pkg/logger"
	wrap "github.com/Temutjin2k/triplog/pkg/logger/wrapper"
	"github.com/Temutjin2k/triplog/pkg/validator"
	ws "github.com/Temutjin2k/triplog/pkg/wsHub"
)

type FixHandler interface {
	PushFix(ctx context.Context, userID string, fix models.Position) (models.FixResult, error)
	Current(ctx context.Context, userID string) models.Snapshot
}

// Tracker serves /ws/tracker. With a relay, inbound fixes feed the session's position
// subscription; without one they are pushed to the session directly and answered with a fix_result.
type Tracker struct {
	hub      *ws.ConnectionHub
	relay    *Relay
	sessions FixHandler
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewTracker(hub *ws.ConnectionHub, relay *Relay, sessions FixHandler, log logger.Logger) *Tracker {
	return &Tracker{
		hub:      hub,
		relay:    relay,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (t *Tracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "tracker_ws")

	user := models.UserFromContext(ctx)
	if user.IsAnonymous() {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	raw, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		t.log.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	conn := ws.NewConn(context.WithoutCancel(ctx), user.ID, raw)
	if err := t.hub.Add(conn); err != nil {
		_ = raw.Close()
		return
	}
	defer t.hub.Remove(conn)

	t.log.Info(ctx, "tracker websocket connected")

	_ = conn.Send(models.StatusWebSocketMessage{
		Type: models.MessageTypeStatus,
		Data: t.sessions.Current(ctx, user.ID),
	})

	err = conn.Listen(func(raw json.RawMessage) error {
		t.handle(ctx, conn, user.ID, raw)
		return nil
	})
	if err != nil && !websocket.IsCloseError(errors.Unwrap(err), websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		t.log.Debug(ctx, "tracker websocket closed", "error", err.Error())
	}
}

func (t *Tracker) handle(ctx context.Context, conn *ws.Conn, userID string, raw json.RawMessage) {
	var msg models.TrackerInboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		_ = errorResponse(conn, "malformed message")
		return
	}

	v := validator.New()
	v.Check(msg.Type == models.MessageTypeFix, "type", "must be: fix")
	v.Check(msg.Position != nil, "position", "must be provided")
	if !v.Valid() {
		_ = failedValidationResponse(conn, v.Errors)
		return
	}

	if t.relay != nil {
		if !t.relay.Deliver(userID, *msg.Position) {
			_ = errorResponse(conn, types.ErrSessionNotTracking.Error())
		}
		return
	}

	result, err := t.sessions.PushFix(ctx, userID, *msg.Position)
	if err != nil {
		_ = errorResponse(conn, err.Error())
		return
	}
	_ = conn.Send(models.StatusWebSocketMessage{Type: models.MessageTypeResult, Data: result})
}
