package retryutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

type hintedError struct {
	wait time.Duration
}

func (e *hintedError) Error() string             { return "slow down" }
func (e *hintedError) RetryAfter() time.Duration { return e.wait }

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond * 2,
	}
}

func TestWrapRetriesUntilSuccess(t *testing.T) {
	var attempts int
	call := Wrap(fastPolicy(), func(ctx context.Context, req string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errTransient
		}
		return req + " ok", nil
	})

	res, err := call(context.Background(), "ping")
	require.NoError(t, err)
	require.Equal(t, "ping ok", res)
	require.Equal(t, 3, attempts)
}

func TestWrapExhaustsAttempts(t *testing.T) {
	var attempts int
	call := Wrap(fastPolicy(), func(ctx context.Context, req struct{}) (int, error) {
		attempts++
		return 0, errTransient
	})

	_, err := call(context.Background(), struct{}{})
	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 3, attempts)
}

func TestWrapStopsOnPermanentError(t *testing.T) {
	policy := fastPolicy()
	policy.Retryable = func(err error) bool { return errors.Is(err, errTransient) }

	permanent := errors.New("bad request")
	var attempts int
	call := Wrap(policy, func(ctx context.Context, req struct{}) (int, error) {
		attempts++
		return 0, permanent
	})

	_, err := call(context.Background(), struct{}{})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, attempts)
}

func TestWrapHonorsRetryAfterHint(t *testing.T) {
	policy := fastPolicy()
	hint := 30 * time.Millisecond

	var attempts int
	var waits []time.Duration
	var last time.Time
	call := Wrap(policy, func(ctx context.Context, req struct{}) (int, error) {
		now := time.Now()
		if attempts > 0 {
			waits = append(waits, now.Sub(last))
		}
		last = now
		attempts++
		if attempts == 1 {
			return 0, &hintedError{wait: hint}
		}
		return attempts, nil
	})

	res, err := call(context.Background(), struct{}{})
	require.NoError(t, err)
	require.Equal(t, 2, res)
	require.Len(t, waits, 1)
	// the hinted wait overrides the millisecond-scale schedule
	require.GreaterOrEqual(t, waits[0], hint)
}

func TestWrapRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var attempts int
	call := Wrap(fastPolicy(), func(ctx context.Context, req struct{}) (int, error) {
		attempts++
		return 0, errTransient
	})

	_, err := call(ctx, struct{}{})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}
