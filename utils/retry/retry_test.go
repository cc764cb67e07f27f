package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

func TestDo_ImmediateSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: Linear(time.Millisecond)},
		func(ctx context.Context, attempt int) (string, error) {
			calls++
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDo_TwoFailuresThenSuccess(t *testing.T) {
	var attempts []int
	var waits []time.Duration

	got, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		Delay:       Linear(time.Millisecond),
		OnRetry: func(attempt int, err error, wait time.Duration) {
			waits = append(waits, wait)
		},
	}, func(ctx context.Context, attempt int) (int, error) {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return 0, errUpstream
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: Linear(time.Millisecond)},
		func(ctx context.Context, attempt int) (struct{}, error) {
			calls++
			return struct{}{}, errUpstream
		})

	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsEarly(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5, Delay: Linear(time.Millisecond)},
		func(ctx context.Context, attempt int) (int, error) {
			calls++
			return 0, Permanent(errUpstream)
		})

	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, 1, calls)
}

func TestDelayFuncs(t *testing.T) {
	linear := Linear(time.Second)
	assert.Equal(t, time.Second, linear(1))
	assert.Equal(t, 3*time.Second, linear(3))

	exp := Exponential(time.Second)
	assert.Equal(t, time.Second, exp(1))
	assert.Equal(t, 4*time.Second, exp(3))
}
