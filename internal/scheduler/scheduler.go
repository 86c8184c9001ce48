// Package scheduler promotes yet-to-start tasks to in-progress once their
// start date arrives.
//
// The promotion goes through the store's regular UpdateTask path, so it is
// applied locally first and synced like any manual edit.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
)

// DefaultInterval is the scan interval used when none is configured.
const DefaultInterval = time.Minute

// TaskStore is the part of the store the scheduler needs.
type TaskStore interface {
	State() domain.State
	Task(id string) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
}

// Metrics records scan results.
type Metrics interface {
	Scanned(promoted int)
}

// NoopMetrics is a no-op implementation of Metrics.
type NoopMetrics struct{}

// Scanned implements Metrics.
func (NoopMetrics) Scanned(int) {}

// Scheduler runs Scan on a fixed interval between Start and Stop.
type Scheduler struct {
	store    TaskStore
	clock    clock.Clock
	interval time.Duration
	logger   zerolog.Logger
	metrics  Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the time between scans. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock sets the clock that decides what "today" is.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clock = clock.Or(c) }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scheduler) { s.logger = logging.WithComponent(l, logging.ComponentScheduler) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New creates a stopped scheduler for store.
func New(store TaskStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		clock:    clock.RealClock{},
		interval: DefaultInterval,
		logger:   zerolog.Nop(),
		metrics:  NoopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan promotes every yet-to-start task whose start date is today or
// earlier and returns how many were promoted. Running it again right away
// promotes nothing. Tasks deleted or moved while the scan runs are skipped.
func (s *Scheduler) Scan(ctx context.Context) (int, error) {
	today := domain.DateOf(s.clock.Now())

	var errs []error
	promoted := 0
	for _, t := range s.store.State().Tasks {
		if !due(t, today) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return promoted, err
		}

		// Re-read so a move made since the snapshot is not overwritten.
		current, err := s.store.Task(t.ID)
		if err != nil || !due(current, today) {
			continue
		}

		status := domain.StatusInProgress
		if _, err := s.store.UpdateTask(ctx, t.ID, domain.TaskPatch{Status: &status}); err != nil {
			if errors.Is(err, tferrors.ErrStoreClosed) {
				return promoted, err
			}
			if !errors.Is(err, tferrors.ErrTaskNotFound) {
				errs = append(errs, tferrors.Wrapf(err, "promote task %q", t.ID))
			}
			continue
		}
		promoted++
		s.logger.Info().
			Str("task_id", t.ID).
			Str("start_date", current.StartDate.String()).
			Msg("task started")
	}

	s.metrics.Scanned(promoted)
	return promoted, errors.Join(errs...)
}

func due(t domain.Task, today domain.Date) bool {
	return t.Status == domain.StatusYetToStart && t.StartDate != nil && !t.StartDate.After(today)
}

// Start runs one scan immediately and then one per interval until Stop is
// called or ctx is cancelled. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Msg("scheduler stopped after panic")
			}
		}()

		s.tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()

	s.logger.Debug().Dur("interval", s.interval).Msg("scheduler started")
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.Scan(ctx)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn().Err(err).Int("promoted", n).Msg("scheduled scan incomplete")
	}
}

// Stop cancels the loop and waits for an in-progress scan to return.
// No scan starts after Stop returns. Stop is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.cancel = nil
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
