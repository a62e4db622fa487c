package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metacore/nftup/internal/core/domain"
)

func failingUpload(failures int, cid string) (UploadFunc, *int32) {
	var calls int32
	return func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) <= failures {
			return "", domain.Remote("pin", "dir", errors.New("503 service unavailable"))
		}
		return cid, nil
	}, &calls
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	svc := NewRetryService(fastPolicy(), nil)
	upload, calls := failingUpload(2, "bafyok")

	res, err := svc.Do(context.Background(), "images", upload)
	require.NoError(t, err)
	assert.Equal(t, "bafyok", res.CID)
	assert.Equal(t, 3, res.Attempts)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestRetryExhaustsAttemptBudget(t *testing.T) {
	svc := NewRetryService(fastPolicy(), nil)
	upload, calls := failingUpload(100, "")

	res, err := svc.Do(context.Background(), "images", upload)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, domain.ErrRemote)
}

func TestRetryDoesNotRepeatValidationErrors(t *testing.T) {
	svc := NewRetryService(fastPolicy(), nil)
	var calls int32
	upload := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", domain.Validation("upload directory", "x", errors.New("not a directory"))
	}

	_, err := svc.Do(context.Background(), "images", upload)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.ErrorIs(t, err, domain.ErrValidation)

	var exhausted *ExhaustedError
	assert.False(t, errors.As(err, &exhausted), "validation errors should not be reported as exhausted")
}

func TestRetryTimeoutConsumesAttempt(t *testing.T) {
	policy := fastPolicy()
	policy.Timeout = 20 * time.Millisecond
	svc := NewRetryService(policy, nil)

	var calls int32
	upload := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "bafyslow", nil
	}

	res, err := svc.Do(context.Background(), "metadata", upload)
	require.NoError(t, err)
	assert.Equal(t, "bafyslow", res.CID)
	assert.Equal(t, 2, res.Attempts)
}

func TestRetryTimeoutAbandonsStuckUpload(t *testing.T) {
	policy := fastPolicy()
	policy.Timeout = 10 * time.Millisecond
	svc := NewRetryService(policy, nil)

	release := make(chan struct{})
	defer close(release)
	upload := func(ctx context.Context) (string, error) {
		<-release // ignores ctx
		return "late", nil
	}

	_, err := svc.Do(context.Background(), "images", upload)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
}

func TestRetryStopsOnParentCancel(t *testing.T) {
	svc := NewRetryService(fastPolicy(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	upload := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return "", ctx.Err()
	}

	_, err := svc.Do(ctx, "images", upload)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestRetryPolicyDefaults(t *testing.T) {
	svc := NewRetryService(RetryPolicy{}, nil)
	p := svc.Policy()

	assert.Equal(t, MaxRetries, p.MaxAttempts)
	assert.Equal(t, 5*time.Second, p.InitialDelay)
	assert.Equal(t, 300*time.Second, p.Timeout)
	assert.Greater(t, p.Jitter, 0.0)
	assert.Less(t, p.Jitter, 1.0)
}
