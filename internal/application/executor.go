package app

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout возвращается, когда вызов не уложился в отведённое время.
var ErrTimeout = errors.New("превышено время ожидания")

// RunWithTimeout выполняет fn в отдельной горутине и ограничивает ожидание
// вызывающего wall-clock таймаутом. При таймауте горутина не прерывается:
// она доработает в фоне, её результат будет отброшен (канал буферизован,
// поэтому воркер не зависнет на отправке). Настоящая отмена возможна
// только если fn сам уважает переданный контекст.
func RunWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		value, err := fn(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
