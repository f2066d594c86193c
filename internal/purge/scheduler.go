// Package purge wipes the whole store on a fixed cron cadence.
package purge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/thereayou/ephemeral-chat/internal/metrics"
)

// DefaultSchedule fires at minute 0 of every even hour.
const DefaultSchedule = "0 */2 * * *"

type Clearer interface {
	Clear(ctx context.Context) error
}

type State int

const (
	Idle State = iota
	Firing
)

func (s State) String() string {
	if s == Firing {
		return "firing"
	}
	return "idle"
}

// Result is the outcome of one purge.
type Result struct {
	At       time.Time
	Duration time.Duration
	Err      error
}

type Scheduler struct {
	store    Clearer
	schedule string
	cron     *cron.Cron
	entry    cron.EntryID
	log      zerolog.Logger

	inflight atomic.Int32

	mu      sync.Mutex
	last    *Result
	running bool
}

type Option func(*Scheduler)

func WithSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

func NewScheduler(store Clearer, log zerolog.Logger, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		store:    store,
		schedule: DefaultSchedule,
		log:      log.With().Str("component", "purge").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	clog := cronLogger{log: s.log}
	s.cron = cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog)),
	)

	entry, err := s.cron.AddFunc(s.schedule, s.tick)
	if err != nil {
		return nil, fmt.Errorf("purge schedule %q: %w", s.schedule, err)
	}
	s.entry = entry

	return s, nil
}

// Start begins firing on the schedule. Calling Start twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Time("next", s.nextLocked()).Msg("purge scheduler started")
}

// Stop halts the schedule and waits for an in-progress purge, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info().Msg("purge scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) tick() {
	_ = s.Purge(context.Background())
}

// Purge clears the store once. A failure is logged and recorded but never
// stops later ticks.
func (s *Scheduler) Purge(ctx context.Context) error {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	start := time.Now()
	err := s.store.Clear(ctx)
	result := Result{At: start, Duration: time.Since(start), Err: err}

	s.mu.Lock()
	s.last = &result
	s.mu.Unlock()

	if err != nil {
		metrics.PurgeRuns.WithLabelValues("failure").Inc()
		s.log.Error().Err(err).Msg("purge failed")
		return err
	}

	metrics.PurgeRuns.WithLabelValues("success").Inc()
	metrics.PurgeLastSuccess.Set(float64(start.Unix()))
	s.log.Info().Dur("took", result.Duration).Msg("all messages deleted")
	return nil
}

func (s *Scheduler) State() State {
	if s.inflight.Load() > 0 {
		return Firing
	}
	return Idle
}

// LastResult returns the most recent purge outcome, if any.
func (s *Scheduler) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Next reports when the schedule fires next after now.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Scheduler) nextLocked() time.Time {
	if next := s.cron.Entry(s.entry).Next; !next.IsZero() {
		return next
	}
	return s.cron.Entry(s.entry).Schedule.Next(time.Now())
}

type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
