// Package rooms owns room existence, membership and the encrypted message log.
//
// Every mutation is a read-modify-write of the whole room record. Mutations on
// the same room are serialized inside one process; nothing protects a record
// from writers in other processes or from a purge landing between the read and
// the write, in which case the write recreates the room until the next purge.
package rooms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thereayou/ephemeral-chat/internal/crypto"
	"github.com/thereayou/ephemeral-chat/internal/metrics"
	"github.com/thereayou/ephemeral-chat/internal/models"
	"github.com/thereayou/ephemeral-chat/internal/store"
)

const maxCodeAttempts = 5

// Publisher fans a sent message out to live subscribers of a room.
// Delivery is best effort.
type Publisher interface {
	Publish(roomID string, event models.MessageEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, models.MessageEvent) {}

// Registry runs room operations against a Store, encrypting messages with a Codec.
type Registry struct {
	store     store.Store
	codec     crypto.Codec
	publisher Publisher
	newCode   CodeGenerator
	locks     *roomLocks
	log       zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithPublisher sets where sent messages are fanned out. Nil keeps the no-op publisher.
func WithPublisher(p Publisher) Option {
	return func(r *Registry) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithCodeGenerator replaces GenerateRoomCode, mostly for tests.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newCode = gen
		}
	}
}

// WithLogger sets the logger used for failed operations. The default discards.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry returns a Registry over s and codec.
func NewRegistry(s store.Store, codec crypto.Codec, opts ...Option) *Registry {
	r := &Registry{
		store:     s,
		codec:     codec,
		publisher: nopPublisher{},
		newCode:   GenerateRoomCode,
		locks:     newRoomLocks(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRoom stores a new room with userID as its only member and returns its code.
// A generated code that is already taken is regenerated, up to maxCodeAttempts.
func (r *Registry) CreateRoom(ctx context.Context, userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", r.fail("create", err)
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		roomID, err := r.newCode()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}

		created, err := r.createWithCode(ctx, roomID, userID)
		if err != nil {
			return "", r.fail("create", err)
		}
		if created {
			metrics.RoomsCreated.Inc()
			r.log.Debug().Str("room_id", roomID).Str("user_id", userID).Msg("room created")
			return roomID, nil
		}

		r.log.Warn().Str("room_id", roomID).Int("attempt", attempt).Msg("room code already in use")
	}

	return "", r.fail("create", ErrRoomCodeCollision)
}

func (r *Registry) createWithCode(ctx context.Context, roomID, userID string) (bool, error) {
	unlock := r.locks.lock(roomID)
	defer unlock()

	existing, err := r.load(ctx, roomID)
	switch {
	case err == nil:
		if existing.HasMember(userID) {
			return false, ErrAlreadyJoined
		}
		return false, nil
	case KindOf(err) != KindNotFound:
		return false, err
	}

	if err := r.save(ctx, roomID, models.NewRoom(userID)); err != nil {
		return false, err
	}
	return true, nil
}

// JoinRoom adds userID to the room's members.
func (r *Registry) JoinRoom(ctx context.Context, roomID, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return r.fail("join", err)
	}

	err := r.update(ctx, roomID, func(room *models.Room) error {
		if !room.AddMember(userID) {
			return ErrAlreadyJoined
		}
		return nil
	})
	return r.fail("join", err)
}

// LeaveRoom removes userID from the room. Leaving a room one is not in is a no-op.
func (r *Registry) LeaveRoom(ctx context.Context, roomID, userID string) error {
	if err := ValidateUserID(userID); err != nil {
		return r.fail("leave", err)
	}

	err := r.update(ctx, roomID, func(room *models.Room) error {
		room.RemoveMember(userID)
		return nil
	})
	return r.fail("leave", err)
}

// SendMessage encrypts plaintext, appends it to the room log and publishes
// the ciphertext to live subscribers. Only members may send.
func (r *Registry) SendMessage(ctx context.Context, roomID, userID, plaintext string) error {
	if err := ValidateUserID(userID); err != nil {
		return r.fail("send", err)
	}

	var ciphertext string
	err := r.update(ctx, roomID, func(room *models.Room) error {
		if !room.HasMember(userID) {
			return ErrNotMember
		}

		var err error
		ciphertext, err = r.codec.Encrypt(plaintext)
		if err != nil {
			return fmt.Errorf("encrypt message: %w", err)
		}
		room.Append(userID, ciphertext)
		return nil
	})
	if err != nil {
		return r.fail("send", err)
	}

	metrics.MessagesSent.Inc()
	r.publisher.Publish(roomID, models.MessageEvent{Sender: userID, Message: ciphertext})
	return nil
}

// GetMessages returns the room's messages decrypted, in append order.
// Reading is not restricted to members.
func (r *Registry) GetMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	room, err := r.load(ctx, roomID)
	if err != nil {
		return nil, r.fail("messages", err)
	}

	messages := make([]models.Message, 0, len(room.Messages))
	for i, stored := range room.Messages {
		plaintext, err := r.codec.Decrypt(stored.Message)
		if err != nil {
			return nil, r.fail("messages", fmt.Errorf("message %d in room %s: %w", i, roomID, err))
		}
		messages = append(messages, models.Message{UserID: stored.UserID, Message: plaintext})
	}
	return messages, nil
}

// Members returns the room's current members.
func (r *Registry) Members(ctx context.Context, roomID string) ([]string, error) {
	room, err := r.load(ctx, roomID)
	if err != nil {
		return nil, r.fail("members", err)
	}
	return room.Users, nil
}

func (r *Registry) update(ctx context.Context, roomID string, mutate func(*models.Room) error) error {
	unlock := r.locks.lock(roomID)
	defer unlock()

	room, err := r.load(ctx, roomID)
	if err != nil {
		return err
	}
	if err := mutate(room); err != nil {
		return err
	}
	return r.save(ctx, roomID, room)
}

func (r *Registry) load(ctx context.Context, roomID string) (*models.Room, error) {
	key := store.RoomKey(roomID)

	data, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return nil, ErrRoomNotFound
	}

	var room models.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, &StorageError{Op: "decode", Key: key, Err: err}
	}
	return &room, nil
}

func (r *Registry) save(ctx context.Context, roomID string, room *models.Room) error {
	key := store.RoomKey(roomID)

	data, err := json.Marshal(room)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := r.store.Set(ctx, key, string(data)); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (r *Registry) fail(op string, err error) error {
	if err == nil {
		return nil
	}

	kind := KindOf(err)
	metrics.RoomOperationErrors.WithLabelValues(op, kind.String()).Inc()

	switch kind {
	case KindStorage, KindDecryption, KindInternal:
		r.log.Error().Err(err).Str("op", op).Msg("room operation failed")
	}
	return err
}
