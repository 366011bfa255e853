package consistency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FaizanFazal12/shop-backend/internal/repository"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	r := NewRetrier()

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesConflicts(t *testing.T) {
	r := NewRetrier()

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return repository.ErrConflict
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	r := Retrier{MaxAttempts: 4}

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return repository.ErrConflict
	})

	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Equal(t, 4, calls)
}

func TestDo_NonConflictNotRetried(t *testing.T) {
	r := NewRetrier()
	boom := errors.New("boom")

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	r := NewRetrier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Do(ctx, func(context.Context) error {
		t.Fatal("fn must not run on cancelled context")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
