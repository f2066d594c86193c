package rooms

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/thereayou/ephemeral-chat/internal/crypto"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrAlreadyJoined     = errors.New("user already in room")
	ErrNotMember         = errors.New("user not in room")
	ErrRoomCodeCollision = errors.New("room code collision")
	ErrInvalidUserID     = errors.New("invalid user id")
)

// ValidateUserID rejects ids that would not survive the JSON room record
// byte for byte.
func ValidateUserID(userID string) error {
	if !utf8.ValidString(userID) {
		return ErrInvalidUserID
	}
	return nil
}

// StorageError wraps a failed store call or an undecodable room record.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Kind classifies registry errors for callers that map them to responses.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalid
	KindStorage
	KindDecryption
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid"
	case KindStorage:
		return "storage"
	case KindDecryption:
		return "decryption"
	default:
		return "internal"
	}
}

func KindOf(err error) Kind {
	var (
		storageErr *StorageError
		decryptErr *crypto.DecryptionError
	)

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrRoomNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyJoined), errors.Is(err, ErrRoomCodeCollision):
		return KindConflict
	case errors.Is(err, ErrNotMember):
		return KindForbidden
	case errors.Is(err, ErrInvalidUserID):
		return KindInvalid
	case errors.As(err, &decryptErr):
		return KindDecryption
	case errors.As(err, &storageErr):
		return KindStorage
	default:
		return KindInternal
	}
}
