package util

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	err := Retry(context.Background(), func() error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, retry.Attempts(5), retry.Delay(time.Millisecond), retry.DelayType(retry.FixedDelay))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryWithResult(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	got, err := RetryWithResult(context.Background(), func() (int, error) {
		if calls.Add(1) < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, retry.Attempts(3), retry.Delay(time.Millisecond), retry.DelayType(retry.FixedDelay))
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDatabaseRetryOptionsOnlyRetryLockErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	err := Retry(context.Background(), func() error {
		calls.Add(1)
		return errors.New("constraint violation")
	}, DatabaseRetryOptions(context.Background())...)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "non-lock errors must not be retried")
}

func TestIsDatabaseLocked(t *testing.T) {
	t.Parallel()

	assert.False(t, IsDatabaseLocked(nil))
	assert.False(t, IsDatabaseLocked(errors.New("no such table")))
	assert.True(t, IsDatabaseLocked(errors.New("database is locked")))
	assert.True(t, IsDatabaseLocked(fmt.Errorf("exec failed: %w", errors.New("database is locked (5)"))))
}
