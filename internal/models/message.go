package models

// StoredMessage is a message as persisted. Message holds ciphertext only.
type StoredMessage struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Message is a decrypted message returned to readers.
type Message struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// MessageEvent is pushed live to room subscribers. Message is the ciphertext.
type MessageEvent struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}
