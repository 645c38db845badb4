package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than limit goroutines are running.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, limit)
		}
		return nil
	}
}

// ReadyCheck fails with msg while ready returns false.
func ReadyCheck(ready func() bool, msg string) CheckFunc {
	return func(context.Context) error {
		if !ready() {
			return errors.New(msg)
		}
		return nil
	}
}

// PingCheck adapts a connectivity probe such as a Redis or Postgres ping.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) error {
		return errors.Wrap(ping(ctx), "ping")
	}
}
