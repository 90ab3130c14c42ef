package sheet

import (
	"context"
	"log"
	"time"
)

const (
	defaultRetryAttempts = 6
	defaultRetryBase     = time.Second
)

// RetryingStore wraps a Store and retries transient failures with bounded
// exponential backoff. Non-transient failures propagate without retry.
type RetryingStore struct {
	inner    Store
	attempts int
	base     time.Duration
	sleep    func(context.Context, time.Duration) error
}

func NewRetrying(inner Store) *RetryingStore {
	return &RetryingStore{
		inner:    inner,
		attempts: defaultRetryAttempts,
		base:     defaultRetryBase,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *RetryingStore) retry(ctx context.Context, op string, fn func() error) error {
	delay := s.base
	var err error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == s.attempts {
			break
		}
		log.Printf("sheet: %s rate limited (attempt %d/%d), retrying in %s", op, attempt, s.attempts, delay)
		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay *= 2
	}
	return err
}

func (s *RetryingStore) ReadAll(ctx context.Context, sheet string) (Table, error) {
	var table Table
	err := s.retry(ctx, "read "+sheet, func() error {
		var readErr error
		table, readErr = s.inner.ReadAll(ctx, sheet)
		return readErr
	})
	return table, err
}

func (s *RetryingStore) EnsureHeader(ctx context.Context, sheet string, header []string) error {
	return s.retry(ctx, "ensure header "+sheet, func() error {
		return s.inner.EnsureHeader(ctx, sheet, header)
	})
}

func (s *RetryingStore) Append(ctx context.Context, sheet string, row []string) error {
	return s.retry(ctx, "append "+sheet, func() error {
		return s.inner.Append(ctx, sheet, row)
	})
}

func (s *RetryingStore) Overwrite(ctx context.Context, sheet string, position int, row []string) error {
	return s.retry(ctx, "overwrite "+sheet, func() error {
		return s.inner.Overwrite(ctx, sheet, position, row)
	})
}
