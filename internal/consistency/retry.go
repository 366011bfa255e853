// Package consistency sequences multi-step cart and order operations so
// their storage writes look atomic to callers. Writes use optimistic
// concurrency; this package re-runs an operation from a fresh read when a
// write loses the race.
package consistency

import (
	"context"
	"errors"

	"github.com/FaizanFazal12/shop-backend/internal/repository"
)

// DefaultMaxAttempts bounds how often a conflicting operation is re-run
// before repository.ErrConflict is surfaced to the caller.
const DefaultMaxAttempts = 3

// Retrier re-executes an operation when it fails with
// repository.ErrConflict. Any other error stops the loop immediately.
type Retrier struct {
	MaxAttempts int
}

func NewRetrier() Retrier {
	return Retrier{MaxAttempts: DefaultMaxAttempts}
}

// Do runs fn until it succeeds, fails with a non-conflict error, the
// context is cancelled, or MaxAttempts conflicts occurred. The last
// conflict is returned as-is so callers can match it with errors.Is.
func (r Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn(ctx)
		if err == nil || !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return err
}
