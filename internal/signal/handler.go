// Package signal turns SIGINT and SIGTERM into context cancellation for
// long-running commands.
//
// The first signal cancels the handler context so the command can stop
// serving and flush queued remote writes. A second signal while that
// flush is running calls the force function, which exits the process by
// default.
//
// Import rules:
//   - CAN import: std lib, zerolog
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// ExitCodeInterrupted is the exit status used when a second signal forces
// the process to stop.
const ExitCodeInterrupted = 130

// Handler cancels its context on the first signal and forces exit on the
// second.
type Handler struct {
	ctx         context.Context //nolint:containedctx // handler owns the context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	sigChan     chan os.Signal
	logger      zerolog.Logger
	force       func()

	mu       sync.Mutex
	received int
	stopOnce sync.Once
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger logs received signals to l.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithForce replaces the function called on the second signal.
func WithForce(fn func()) Option {
	return func(h *Handler) {
		if fn != nil {
			h.force = fn
		}
	}
}

// NewHandler starts listening for SIGINT and SIGTERM. Call Stop when done.
//
//	h := signal.NewHandler(ctx, signal.WithLogger(logger))
//	defer h.Stop()
//	err := srv.Run(h.Context())
func NewHandler(parent context.Context, opts ...Option) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		sigChan:     make(chan os.Signal, 2),
		logger:      zerolog.Nop(),
		force:       func() { os.Exit(ExitCodeInterrupted) },
	}
	for _, opt := range opts {
		opt(h)
	}

	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the context cancelled by the first signal.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel closed by the first signal.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Stop stops listening and cancels the context. It is safe to call more
// than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

// handleSignal records one received signal.
func (h *Handler) handleSignal() {
	h.mu.Lock()
	h.received++
	n := h.received
	h.mu.Unlock()

	switch n {
	case 1:
		h.logger.Info().Msg("interrupt received, finishing pending changes (press Ctrl+C again to quit now)")
		h.cancel()
		close(h.interrupted)
	case 2:
		h.logger.Warn().Msg("second interrupt, quitting without waiting for pending changes")
		h.force()
	}
}

// listen handles signals until Stop is called.
func (h *Handler) listen() {
	for {
		select {
		case <-h.done:
			return
		case <-h.sigChan:
			h.handleSignal()
		}
	}
}
