package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/ephemeral-chat/internal/handlers/dto"
	"github.com/thereayou/ephemeral-chat/internal/models"
	"github.com/thereayou/ephemeral-chat/internal/rooms"
)

// RoomService is the room registry as seen by the transport.
type RoomService interface {
	CreateRoom(ctx context.Context, userID string) (string, error)
	JoinRoom(ctx context.Context, roomID, userID string) error
	LeaveRoom(ctx context.Context, roomID, userID string) error
	SendMessage(ctx context.Context, roomID, userID, plaintext string) error
	GetMessages(ctx context.Context, roomID string) ([]models.Message, error)
	Members(ctx context.Context, roomID string) ([]string, error)
}

// Presence reports who is subscribed to a room's live feed.
type Presence interface {
	GetRoomUsers(roomID string) []string
}

type RoomHandler struct {
	rooms    RoomService
	presence Presence
}

func NewRoomHandler(rooms RoomService, presence Presence) *RoomHandler {
	return &RoomHandler{rooms: rooms, presence: presence}
}

// CreateRoom creates a room with the caller as its first member.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID, err := h.rooms.CreateRoom(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, err, "Room creation failed")
		return
	}

	c.JSON(http.StatusCreated, dto.CreateRoomResponse{RoomID: roomID})
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req dto.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.rooms.JoinRoom(c.Request.Context(), req.RoomID, req.UserID); err != nil {
		respondError(c, err, "Failed to join room")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined room successfully"})
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	var req dto.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.rooms.LeaveRoom(c.Request.Context(), req.RoomID, req.UserID); err != nil {
		respondError(c, err, "Failed to leave room")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left room successfully"})
}

// SendMessage stores an encrypted message; subscribers get the ciphertext live.
func (h *RoomHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.rooms.SendMessage(c.Request.Context(), req.RoomID, req.UserID, req.Message); err != nil {
		respondError(c, err, "Message sending failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully"})
}

func (h *RoomHandler) GetMessages(c *gin.Context) {
	messages, err := h.rooms.GetMessages(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		respondError(c, err, "Failed to get messages")
		return
	}

	c.JSON(http.StatusOK, dto.MessagesResponse{Messages: messages})
}

// GetMembers lists room members and which of them are connected live.
func (h *RoomHandler) GetMembers(c *gin.Context) {
	roomID := c.Param("roomId")
	users, err := h.rooms.Members(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err, "Failed to get members")
		return
	}

	online := []string{}
	if h.presence != nil {
		online = h.presence.GetRoomUsers(roomID)
	}

	c.JSON(http.StatusOK, dto.MembersResponse{Users: users, Online: online})
}

// respondError maps registry errors to status codes. Infrastructure
// failures get the generic fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	switch rooms.KindOf(err) {
	case rooms.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
	case rooms.KindConflict:
		msg := "User already in room"
		if errors.Is(err, rooms.ErrRoomCodeCollision) {
			msg = "Room code already in use"
		}
		c.JSON(http.StatusConflict, gin.H{"error": msg})
	case rooms.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "User not in room"})
	case rooms.KindInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
