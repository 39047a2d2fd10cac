package sweeper_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-sessions/internal/sweeper"
	"github.com/stretchr/testify/require"
)

func TestRunSweepsUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	s := sweeper.New(5*time.Millisecond, func(context.Context) (int64, error) {
		if calls.Add(1) == 2 {
			return 0, errors.New("database unavailable")
		}
		return 1, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweepsImmediately(t *testing.T) {
	var calls atomic.Int32
	s := sweeper.New(time.Hour, func(context.Context) (int64, error) {
		calls.Add(1)
		return 0, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
