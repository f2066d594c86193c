package purge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/thereayou/ephemeral-chat/internal/crypto"
	"github.com/thereayou/ephemeral-chat/internal/mocks"
	"github.com/thereayou/ephemeral-chat/internal/rooms"
	"github.com/thereayou/ephemeral-chat/internal/store"
)

type countingClearer struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (c *countingClearer) Clear(context.Context) error {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	return c.err
}

func TestNewScheduler_DefaultCadence(t *testing.T) {
	req := require.New(t)
	s, err := NewScheduler(&countingClearer{}, zerolog.Nop())
	req.NoError(err)

	next := s.Next()
	req.True(next.After(time.Now()))
	req.Zero(next.Minute())
	req.Zero(next.Hour() % 2)
	req.LessOrEqual(time.Until(next), 2*time.Hour)
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(&countingClearer{}, zerolog.Nop(), WithSchedule("every tuesday"))
	require.Error(t, err)
}

func TestPurge_ClearsAllRooms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := store.NewMemoryStore()
	codec, err := crypto.NewAEADCodec("secret")
	req.NoError(err)
	registry := rooms.NewRegistry(s, codec)

	var ids []string
	for _, user := range []string{"u1", "u2", "u3"} {
		id, err := registry.CreateRoom(ctx, user)
		req.NoError(err)
		req.NoError(registry.SendMessage(ctx, id, user, "bye"))
		ids = append(ids, id)
	}

	scheduler, err := NewScheduler(s, zerolog.Nop())
	req.NoError(err)
	req.NoError(scheduler.Purge(ctx))
	req.Zero(s.Len())

	for _, id := range ids {
		_, err := registry.GetMessages(ctx, id)
		req.ErrorIs(err, rooms.ErrRoomNotFound)
	}

	result, ok := scheduler.LastResult()
	req.True(ok)
	req.NoError(result.Err)
}

func TestPurge_FailureIsAbsorbed(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStore(ctrl)
	boom := errors.New("store unreachable")

	gomock.InOrder(
		s.EXPECT().Clear(gomock.Any()).Return(boom),
		s.EXPECT().Clear(gomock.Any()).Return(nil),
	)

	scheduler, err := NewScheduler(s, zerolog.Nop())
	req.NoError(err)

	req.NotPanics(scheduler.tick)
	result, ok := scheduler.LastResult()
	req.True(ok)
	req.ErrorIs(result.Err, boom)
	req.Equal(Idle, scheduler.State())

	req.NoError(scheduler.Purge(context.Background()))
	result, _ = scheduler.LastResult()
	req.NoError(result.Err)
}

func TestPurge_StateWhileFiring(t *testing.T) {
	req := require.New(t)
	clearer := &countingClearer{block: make(chan struct{})}
	scheduler, err := NewScheduler(clearer, zerolog.Nop())
	req.NoError(err)
	req.Equal(Idle, scheduler.State())

	done := make(chan error, 1)
	go func() { done <- scheduler.Purge(context.Background()) }()

	req.Eventually(func() bool { return scheduler.State() == Firing }, time.Second, 5*time.Millisecond)
	close(clearer.block)
	req.NoError(<-done)
	req.Equal(Idle, scheduler.State())
}

func TestScheduler_FiresRepeatedlyDespiteFailures(t *testing.T) {
	req := require.New(t)
	clearer := &countingClearer{err: errors.New("down")}
	scheduler, err := NewScheduler(clearer, zerolog.Nop(), WithSchedule("@every 1s"))
	req.NoError(err)

	scheduler.Start()
	scheduler.Start()
	req.Eventually(func() bool { return clearer.calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req.NoError(scheduler.Stop(ctx))
	req.NoError(scheduler.Stop(ctx))

	calls := clearer.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	req.Equal(calls, clearer.calls.Load())
}
