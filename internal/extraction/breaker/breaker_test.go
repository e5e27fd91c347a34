package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{FailureThreshold: 3, SuccessThreshold: 2, Timeout: time.Second, ResetTimeout: 20 * time.Millisecond}
}

func TestCall_OpensAfterConsecutiveFailures(t *testing.T) {
	b := New(testConfig())
	failing := func(ctx context.Context) error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		err := b.Call(context.Background(), "p", failing)
		require.Error(t, err)
	}

	assert.Equal(t, Open, b.State("p"))

	err := b.Call(context.Background(), "p", failing)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCall_HalfOpenAfterResetTimeoutThenClosesOnSuccesses(t *testing.T) {
	b := New(testConfig())
	failing := func(ctx context.Context) error { return errors.New("boom") }
	succeeding := func(ctx context.Context) error { return nil }

	for i := 0; i < 3; i++ {
		_ = b.Call(context.Background(), "p", failing)
	}
	require.Equal(t, Open, b.State("p"))

	time.Sleep(30 * time.Millisecond)

	require.NoError(t, b.Call(context.Background(), "p", succeeding))
	assert.Equal(t, HalfOpen, b.State("p"))

	require.NoError(t, b.Call(context.Background(), "p", succeeding))
	assert.Equal(t, Closed, b.State("p"))
}

func TestCall_HalfOpenFailureReopens(t *testing.T) {
	b := New(testConfig())
	failing := func(ctx context.Context) error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		_ = b.Call(context.Background(), "p", failing)
	}
	time.Sleep(30 * time.Millisecond)

	err := b.Call(context.Background(), "p", failing)
	require.Error(t, err)
	assert.Equal(t, Open, b.State("p"))
}

func TestCounters_TrackTotals(t *testing.T) {
	b := New(testConfig())
	_ = b.Call(context.Background(), "p", func(ctx context.Context) error { return nil })
	_ = b.Call(context.Background(), "p", func(ctx context.Context) error { return errors.New("x") })

	counters := b.Counters("p")
	assert.Equal(t, int64(2), counters.TotalCalls)
	assert.Equal(t, int64(1), counters.TotalFailures)
}

func TestAllow_IndependentProvidersHaveIndependentCircuits(t *testing.T) {
	b := New(testConfig())
	failing := func(ctx context.Context) error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		_ = b.Call(context.Background(), "a", failing)
	}

	assert.Equal(t, Open, b.State("a"))
	assert.True(t, b.Allow("b"))
}
