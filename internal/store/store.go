// Package store holds the keyed persistence drivers room records live in.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

const roomKeyPrefix = "rooms."

// Store is a last-write-wins string key/value store. Clear wipes every key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// RoomKey returns the namespaced key a room record is stored under.
func RoomKey(roomID string) string {
	return roomKeyPrefix + roomID
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type Options struct {
	Driver      string
	RedisURL    string
	DatabaseURL string
	BadgerPath  string
}

// Open connects the driver selected by opts.Driver.
func Open(ctx context.Context, opts Options, log zerolog.Logger) (Store, error) {
	driver := strings.ToLower(opts.Driver)
	log.Info().Str("driver", driver).Msg("opening store")

	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverRedis:
		return NewRedisStore(ctx, opts.RedisURL)
	case DriverPostgres:
		return NewPostgresStore(opts.DatabaseURL)
	case DriverBadger:
		return NewBadgerStore(opts.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
