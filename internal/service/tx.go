package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/metrics"
	"github.com/Freeeeeet/room_booking/internal/store"
)

// DefaultMaxAttempts bounds how often a booking transaction runs when it keeps
// losing serialization conflicts.
const DefaultMaxAttempts = 5

// immediately retries without waiting.
var immediately = retry.BackoffFunc(func() (time.Duration, bool) {
	return 0, false
})

// serializable runs fn in a SERIALIZABLE transaction, retrying up to attempts
// times while the store reports serialization failures. Exhausting the
// attempts is reported as a Conflict.
func serializable(
	ctx context.Context,
	st store.Store,
	attempts int,
	op string,
	m *metrics.Metrics,
	logger *zap.Logger,
	fn func(ctx context.Context, tx store.Tx) error,
) error {
	if attempts < 1 {
		attempts = 1
	}
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(attempts-1), immediately)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			m.IncRetry(op)
			logger.Warn("Retrying transaction after serialization failure",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
			)
		}
		err := st.WithSerializableTx(ctx, fn)
		if errors.Is(err, store.ErrSerializationFailure) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, store.ErrSerializationFailure) {
		logger.Warn("Transaction attempts exhausted",
			zap.String("operation", op),
			zap.Int("attempts", attempt),
		)
	}
	return translate(err)
}
