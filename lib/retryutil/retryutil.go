// Package retryutil composes retry policies around remote-call function
// values. A client keeps each logical call (lookup, search, ...) as a
// function field and wraps it once at construction time; callers never see
// the difference.
package retryutil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryAfterHint is implemented by errors carrying a server-provided wait,
// e.g. an HTTP 429 Retry-After header. The hinted wait takes precedence
// over the backoff schedule for the next attempt.
type RetryAfterHint interface {
	RetryAfter() time.Duration
}

// Policy describes when and how a wrapped call is retried. Wrapped calls
// must be idempotent.
type Policy struct {
	// Retryable reports whether err is worth another attempt. nil retries
	// every error.
	Retryable func(err error) bool
	// MaxAttempts caps total attempts, the initial call included.
	// Zero defaults to 4.
	MaxAttempts uint64
	// InitialInterval seeds the exponential schedule. Zero defaults to
	// 500ms.
	InitialInterval time.Duration
	// MaxInterval caps a single wait. Zero defaults to 30s.
	MaxInterval time.Duration
}

func (p Policy) maxAttempts() uint64 {
	if p.MaxAttempts == 0 {
		return 4
	}
	return p.MaxAttempts
}

func (p Policy) newBackOff(ctx context.Context, hint *time.Duration) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	var b backoff.BackOff = &hintedBackOff{BackOff: exp, hint: hint}
	b = backoff.WithMaxRetries(b, p.maxAttempts()-1)
	return backoff.WithContext(b, ctx)
}

// hintedBackOff lets a RetryAfterHint override the next scheduled wait.
type hintedBackOff struct {
	backoff.BackOff
	hint *time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.BackOff.NextBackOff()
	if next == backoff.Stop {
		return backoff.Stop
	}
	if *h.hint > 0 {
		next = *h.hint
		*h.hint = 0
	}
	return next
}

// Wrap composes policy around a unary remote call.
func Wrap[Req, Res any](policy Policy, call func(context.Context, Req) (Res, error)) func(context.Context, Req) (Res, error) {
	return func(ctx context.Context, req Req) (Res, error) {
		var res Res
		var hint time.Duration

		op := func() error {
			var err error
			res, err = call(ctx, req)
			if err == nil {
				return nil
			}
			if policy.Retryable != nil && !policy.Retryable(err) {
				return backoff.Permanent(err)
			}
			var after RetryAfterHint
			if errors.As(err, &after) {
				hint = after.RetryAfter()
			}
			return err
		}

		err := backoff.Retry(op, policy.newBackOff(ctx, &hint))
		return res, err
	}
}
