package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunWithTimeout_FastCall(t *testing.T) {
	got, err := RunWithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestRunWithTimeout_ErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	_, err := RunWithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestRunWithTimeout_SlowCallTimesOut(t *testing.T) {
	started := time.Now()
	got, err := RunWithTimeout(context.Background(), 50*time.Millisecond, func(ctx context.Context) (string, error) {
		time.Sleep(2 * time.Second)
		return "late", nil
	})
	elapsed := time.Since(started)

	require.ErrorIs(t, err, ErrTimeout)
	require.Empty(t, got)
	// Ожидание ограничено таймаутом, а не длительностью вызова.
	require.Less(t, elapsed, time.Second)
}

func TestRunWithTimeout_AbandonedWorkerDoesNotBlock(t *testing.T) {
	finished := make(chan struct{})
	_, err := RunWithTimeout(context.Background(), 20*time.Millisecond, func(ctx context.Context) (int, error) {
		defer close(finished)
		time.Sleep(100 * time.Millisecond)
		return 7, nil
	})
	require.ErrorIs(t, err, ErrTimeout)

	// Брошенный воркер дорабатывает в фоне и не зависает на отправке.
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned worker never finished")
	}
}

func TestRunWithTimeout_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunWithTimeout(ctx, time.Second, func(ctx context.Context) (int, error) {
		time.Sleep(time.Second)
		return 0, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
