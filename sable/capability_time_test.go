package sable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, at time.Time) Clock {
	t.Helper()
	clock, err := NewClockCapability(ClockConfig{Now: func() time.Time { return at }})
	require.NoError(t, err)
	return clock
}

func TestClockNow(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	clock := fixedClock(t, at)

	require.True(t, clock.Now().Equal(at))
	require.Equal(t, at.UnixMilli(), clock.UnixMilli())
	require.True(t, clock.NowUTC().Equal(at))
}

func TestClockSince(t *testing.T) {
	at := time.UnixMilli(10_000)
	clock := fixedClock(t, at)
	require.Equal(t, 4*time.Second, clock.Since(6_000))
}

func TestClockFormat(t *testing.T) {
	clock := fixedClock(t, time.Now())
	ms := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

	out, err := clock.Format(ms, "", "UTC")
	require.NoError(t, err)
	require.Equal(t, "2024-05-01T12:00:00Z", out)

	out, err = clock.Format(ms, "15:04", "+02:00")
	require.NoError(t, err)
	require.Equal(t, "14:00", out)

	_, err = clock.Format(ms, "", "Not/AZone")
	require.ErrorContains(t, err, "invalid zone")
}

func TestClockSleepCompletes(t *testing.T) {
	clock, err := NewClockCapability(ClockConfig{
		Timer: func(time.Duration) <-chan time.Time {
			ch := make(chan time.Time, 1)
			ch <- time.Now()
			return ch
		},
	})
	require.NoError(t, err)
	require.NoError(t, clock.Sleep(context.Background(), time.Hour))
}

func TestClockSleepCancelled(t *testing.T) {
	clock, err := NewClockCapability(ClockConfig{
		// Never fires; cancellation must win.
		Timer: func(time.Duration) <-chan time.Time { return make(chan time.Time) },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- clock.Sleep(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("sleep did not observe cancellation")
	}
}

func TestClockSleepZeroDuration(t *testing.T) {
	clock, err := NewClockCapability(ClockConfig{})
	require.NoError(t, err)
	require.NoError(t, clock.Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, clock.Sleep(ctx, 0), context.Canceled)
}
