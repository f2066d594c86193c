package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/thereayou/ephemeral-chat/internal/handlers/dto"
	"github.com/thereayou/ephemeral-chat/internal/websocket"
)

const wsOperationTimeout = 10 * time.Second

// MessageHandler serves frames sent by websocket clients.
type MessageHandler struct {
	rooms RoomService
	log   zerolog.Logger
}

func NewMessageHandler(rooms RoomService, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{rooms: rooms, log: log}
}

func (h *MessageHandler) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeMessage:
		return h.handleTextMessage(client, msg)

	default:
		h.log.Debug().Str("type", string(msg.Type)).Msg("unknown message type")
		return nil
	}
}

// handleTextMessage stores the message through the registry, which publishes
// it back to the room's subscribers.
func (h *MessageHandler) handleTextMessage(client *websocket.Client, msg *websocket.Message) error {
	if msg.RoomID == nil {
		return websocket.ErrInvalidMessage
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return websocket.ErrInvalidMessage
	}
	if payload.Content == "" {
		return websocket.ErrInvalidMessage
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsOperationTimeout)
	defer cancel()

	return h.rooms.SendMessage(ctx, *msg.RoomID, client.UserID, payload.Content)
}
