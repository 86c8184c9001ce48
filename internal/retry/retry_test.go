package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/testutil"
)

// sleepMu guards timeSleep replacement across tests in this package.
var sleepMu sync.Mutex //nolint:gochecknoglobals // test-only lock

// recordSleeps replaces timeSleep with an immediate channel and records waits.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	sleepMu.Lock()
	var waits []time.Duration
	orig := timeSleep
	timeSleep = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	t.Cleanup(func() {
		timeSleep = orig
		sleepMu.Unlock()
	})
	return &waits
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"permanent", Permanent(testutil.ErrMockAPIError), false},
		{"wrapped permanent", fmt.Errorf("outer: %w", Permanent(testutil.ErrMockAPIError)), false},
		{"validation", tferrors.Wrap(tferrors.ErrEmptyValue, "title"), false},
		{"corrupted", tferrors.ErrRemoteCorrupted, false},
		{"network", testutil.ErrMockNetwork, true},
		{"unavailable", tferrors.ErrRemoteUnavailable, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	waits := recordSleeps(t)

	calls := 0
	err := Do(context.Background(), zerolog.Nop(), Policy{
		MaxAttempts:    4,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     150 * time.Millisecond,
	}, func(context.Context) error {
		calls++
		if calls < 3 {
			return testutil.ErrMockNetwork
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}, *waits)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	recordSleeps(t)

	calls := 0
	err := Do(context.Background(), zerolog.Nop(), Policy{MaxAttempts: 3}, func(context.Context) error {
		calls++
		return testutil.ErrMockNetwork
	})

	require.ErrorIs(t, err, tferrors.ErrMaxRetriesExceeded)
	require.ErrorIs(t, err, testutil.ErrMockNetwork)
	assert.Equal(t, 3, calls)
}

func TestDo_SingleAttempt(t *testing.T) {
	err := Do(context.Background(), zerolog.Nop(), Policy{}, func(context.Context) error {
		return testutil.ErrMockNetwork
	})
	require.ErrorIs(t, err, testutil.ErrMockNetwork)
	assert.NotErrorIs(t, err, tferrors.ErrMaxRetriesExceeded)
}

func TestDo_StopsOnPermanent(t *testing.T) {
	recordSleeps(t)

	calls := 0
	err := Do(context.Background(), zerolog.Nop(), Policy{MaxAttempts: 5}, func(context.Context) error {
		calls++
		return Permanent(testutil.ErrMockAPIError)
	})

	require.ErrorIs(t, err, testutil.ErrMockAPIError)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Do(ctx, zerolog.Nop(), Policy{MaxAttempts: 3}, func(context.Context) error {
		called = true
		return nil
	})

	require.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}
