package models

import "github.com/samber/lo"

// Room is the record persisted under rooms.<roomId>.
type Room struct {
	Users    []string        `json:"users"`
	Messages []StoredMessage `json:"messages"`
}

func NewRoom(userID string) *Room {
	return &Room{
		Users:    []string{userID},
		Messages: []StoredMessage{},
	}
}

func (r *Room) HasMember(userID string) bool {
	return lo.Contains(r.Users, userID)
}

// AddMember appends userID unless it is already present.
func (r *Room) AddMember(userID string) bool {
	if r.HasMember(userID) {
		return false
	}
	r.Users = append(r.Users, userID)
	return true
}

// RemoveMember drops userID, reporting whether it was a member.
func (r *Room) RemoveMember(userID string) bool {
	if !r.HasMember(userID) {
		return false
	}
	r.Users = lo.Without(r.Users, userID)
	return true
}

func (r *Room) Append(userID, ciphertext string) {
	r.Messages = append(r.Messages, StoredMessage{UserID: userID, Message: ciphertext})
}
