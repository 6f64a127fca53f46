package database

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

const (
	defaultBusyAttempts  = 5
	defaultBusyBaseDelay = 10 * time.Millisecond
	busyJitterFactor     = 0.3
)

// RetryOnBusy runs fn, retrying with exponential backoff while SQLite reports
// the database as busy or locked. Any other error is returned immediately.
//
// Schedule with the defaults: 0, 10, 20, 40, 80 ms plus up to 30% jitter.
func RetryOnBusy(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < defaultBusyAttempts; attempt++ {
		if attempt > 0 {
			delay := defaultBusyBaseDelay * time.Duration(1<<(attempt-1))
			delay += time.Duration(rand.Float64() * busyJitterFactor * float64(delay))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !IsBusy(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

// IsBusy reports whether err is a transient SQLite lock error.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}
