package wshandler

import (
	"github.com/Temutjin2k/triplog/internal/domain/models"
	ws "github.com/Temutjin2k/triplog/pkg/wsHub"
)

func errorResponse(conn *ws.Conn, message any) error {
	return conn.Send(models.StatusWebSocketMessage{
		Type: models.MessageTypeError,
		Data: map[string]any{"error": message},
	})
}

func failedValidationResponse(conn *ws.Conn, errors map[string]string) error {
	return errorResponse(conn, errors)
}
