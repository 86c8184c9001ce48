package signal

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_FirstSignalCancelsContext(t *testing.T) {
	var forced atomic.Int32
	var buf bytes.Buffer
	h := NewHandler(context.Background(),
		WithLogger(zerolog.New(&buf)),
		WithForce(func() { forced.Add(1) }),
	)
	defer h.Stop()

	h.handleSignal()

	require.ErrorIs(t, h.Context().Err(), context.Canceled)
	select {
	case <-h.Interrupted():
	default:
		t.Fatal("interrupted channel should be closed after a signal")
	}
	assert.Equal(t, int32(0), forced.Load())
	assert.Contains(t, buf.String(), "finishing pending changes")
}

func TestHandler_SecondSignalForces(t *testing.T) {
	var forced atomic.Int32
	h := NewHandler(context.Background(), WithForce(func() { forced.Add(1) }))
	defer h.Stop()

	h.handleSignal()
	h.handleSignal()
	h.handleSignal()

	assert.Equal(t, int32(1), forced.Load())
}

func TestHandler_StopCancelsWithoutInterrupt(t *testing.T) {
	h := NewHandler(context.Background())

	h.Stop()
	h.Stop()

	require.Error(t, h.Context().Err())
	select {
	case <-h.Interrupted():
		t.Fatal("interrupted channel should stay open without a signal")
	default:
	}
}

func TestHandler_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := NewHandler(parent)
	defer h.Stop()

	cancel()

	<-h.Context().Done()
	assert.ErrorIs(t, h.Context().Err(), context.Canceled)
}

func TestWithForce_NilKeepsDefault(t *testing.T) {
	h := NewHandler(context.Background(), WithForce(nil))
	defer h.Stop()

	assert.NotNil(t, h.force)
}
