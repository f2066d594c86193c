package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/thereayou/ephemeral-chat/internal/metrics"
	"github.com/thereayou/ephemeral-chat/internal/models"
)

// MessageType identifies a websocket frame.
type MessageType string

const (
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// TypeMessage is sent by clients to post into a room.
	TypeMessage MessageType = "message"
	// TypeNewMessage is pushed to subscribers and carries ciphertext.
	TypeNewMessage MessageType = "newMessage"

	TypeRoomJoin  MessageType = "room_join"
	TypeRoomLeave MessageType = "room_leave"
	TypeRoomUsers MessageType = "room_users"
)

type Message struct {
	Type      MessageType     `json:"type"`
	RoomID    *string         `json:"room_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Client struct {
	ID     uuid.UUID
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Rooms  map[string]bool
	Hub    *Hub
	mu     sync.RWMutex
}

// Hub tracks connected clients and which rooms each is subscribed to.
type Hub struct {
	clients map[uuid.UUID]*Client

	// subscribers by room id
	rooms map[string]map[uuid.UUID]*Client

	unregister chan *Client

	mu  sync.RWMutex
	log zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[string]map[uuid.UUID]*Client),
		unregister: make(chan *Client),
		log:        log.With().Str("component", "hub").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run processes unregistrations and keepalive pings until Stop is called.
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[uuid.UUID]*Client)
	metrics.WSConnections.Set(0)
}

// Register makes client visible to the hub before its pumps start.
// It reports false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctx.Err() != nil {
		return false
	}

	h.clients[client.ID] = client
	metrics.WSConnections.Inc()

	h.log.Debug().Str("client_id", client.ID.String()).Str("user_id", client.UserID).Msg("client registered")
	return true
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for _, roomID := range client.GetRooms() {
		h.removeFromRoomUnsafe(client, roomID)
	}

	delete(h.clients, client.ID)
	close(client.Send)
	metrics.WSConnections.Dec()

	h.log.Debug().Str("client_id", client.ID.String()).Str("user_id", client.UserID).Msg("client unregistered")
}

// JoinRoom subscribes client to live events of roomID. Clients that are no
// longer registered, including every client after Stop, are ignored.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()

	joinMsg := Message{
		Type:      TypeRoomJoin,
		RoomID:    &roomID,
		UserID:    client.UserID,
		Timestamp: time.Now(),
	}
	if data, err := json.Marshal(joinMsg); err == nil {
		h.broadcastToRoomExcept(roomID, data, client.ID)
	}

	h.sendRoomUsers(client, roomID)
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := room[client.ID]; !ok {
		return
	}

	delete(room, client.ID)
	client.mu.Lock()
	delete(client.Rooms, roomID)
	client.mu.Unlock()

	if len(room) == 0 {
		delete(h.rooms, roomID)
		return
	}

	leaveMsg := Message{
		Type:      TypeRoomLeave,
		RoomID:    &roomID,
		UserID:    client.UserID,
		Timestamp: time.Now(),
	}
	if data, err := json.Marshal(leaveMsg); err == nil {
		h.broadcastToRoomExcept(roomID, data, client.ID)
	}
}

// Publish pushes a sent message to every subscriber of roomID.
// Slow subscribers whose queue is full miss the event.
func (h *Hub) Publish(roomID string, event models.MessageEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("encode event")
		return
	}

	msg := Message{
		Type:      TypeNewMessage,
		RoomID:    &roomID,
		UserID:    event.Sender,
		Data:      data,
		Timestamp: time.Now(),
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("encode frame")
		return
	}

	h.SendToRoom(roomID, frame)
}

func (h *Hub) SendToRoom(roomID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.broadcastToRoomExcept(roomID, message, uuid.Nil)
}

func (h *Hub) broadcastToRoomExcept(roomID string, message []byte, excludeID uuid.UUID) {
	for _, client := range h.rooms[roomID] {
		if client.ID == excludeID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.log.Warn().Str("client_id", client.ID.String()).Msg("send channel full")
		}
	}
}

func (h *Hub) sendRoomUsers(client *Client, roomID string) {
	users := h.roomUsersUnsafe(roomID)

	msg := Message{
		Type:      TypeRoomUsers,
		RoomID:    &roomID,
		UserID:    client.UserID,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(users)
	if err != nil {
		return
	}
	msg.Data = data
	msgData, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case client.Send <- msgData:
	default:
		h.log.Warn().Str("client_id", client.ID.String()).Msg("failed to send room users")
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Message{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	if data, err := json.Marshal(msg); err == nil {
		for _, client := range h.clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// GetRoomUsers returns the distinct user ids subscribed to roomID.
func (h *Hub) GetRoomUsers(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.roomUsersUnsafe(roomID)
}

func (h *Hub) roomUsersUnsafe(roomID string) []string {
	seen := make(map[string]bool)
	users := make([]string, 0)
	for _, client := range h.rooms[roomID] {
		if !seen[client.UserID] {
			seen[client.UserID] = true
			users = append(users, client.UserID)
		}
	}
	return users
}
