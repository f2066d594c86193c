package dto

import "github.com/thereayou/ephemeral-chat/internal/models"

type CreateRoomRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

type MembershipRequest struct {
	RoomID string `json:"roomId" binding:"required"`
	UserID string `json:"userId" binding:"required"`
}

type SendMessageRequest struct {
	RoomID  string `json:"roomId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type MessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

type MembersResponse struct {
	Users  []string `json:"users"`
	Online []string `json:"online"`
}

// MessagePayload is the data of a websocket "message" frame.
type MessagePayload struct {
	Content string `json:"content"`
}
