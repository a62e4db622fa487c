package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/metacore/nftup/internal/core/domain"
)

// Retry defaults
const (
	MaxRetries           = 3
	RetryDelayMS         = 5000
	UploadTimeoutSeconds = 300
)

// RetryPolicy bounds an orchestrated upload
type RetryPolicy struct {
	MaxAttempts  int           // Total attempts, including the first
	InitialDelay time.Duration // Backoff before the second attempt
	Timeout      time.Duration // Hard limit for each attempt
	Jitter       float64       // Randomization factor applied to every delay
}

// DefaultRetryPolicy returns the production policy: 3 attempts, 5s initial
// backoff doubling each time, 300s per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  MaxRetries,
		InitialDelay: RetryDelayMS * time.Millisecond,
		Timeout:      UploadTimeoutSeconds * time.Second,
		Jitter:       backoff.DefaultRandomizationFactor,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = def.InitialDelay
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	if p.Jitter <= 0 || p.Jitter >= 1 {
		p.Jitter = def.Jitter
	}
	return p
}

// UploadFunc is a single upload attempt. It must honour ctx.
type UploadFunc func(ctx context.Context) (string, error)

// ExhaustedError is returned when every attempt failed
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("upload failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// RetryService wraps uploads with bounded retries, exponential backoff with
// jitter, and a per-attempt timeout.
type RetryService struct {
	policy RetryPolicy
	log    *zap.Logger
}

func NewRetryService(policy RetryPolicy, log *zap.Logger) *RetryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RetryService{policy: policy.withDefaults(), log: log}
}

// Policy returns the effective policy
func (s *RetryService) Policy() RetryPolicy {
	return s.policy
}

// Do runs upload until it succeeds or the attempt budget is spent.
// Validation and local IO failures stop immediately. A timed out attempt
// consumes one slot like any other remote failure.
func (s *RetryService) Do(ctx context.Context, name string, upload UploadFunc) (*domain.UploadResult, error) {
	start := time.Now()
	attempts := 0

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.InitialDelay
	b.RandomizationFactor = s.policy.Jitter
	b.Multiplier = 2
	b.MaxInterval = s.policy.InitialDelay << uint(s.policy.MaxAttempts)

	operation := func() (string, error) {
		attempts++
		cid, err := s.attempt(ctx, name, upload)
		if err == nil {
			return cid, nil
		}
		if !domain.IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	notify := func(err error, next time.Duration) {
		s.log.Warn("upload attempt failed, retrying",
			zap.String("upload", name),
			zap.Int("attempt", attempts),
			zap.Int("max_attempts", s.policy.MaxAttempts),
			zap.Duration("backoff", next),
			zap.Error(err),
		)
	}

	s.log.Info("starting upload with retry", zap.String("upload", name), zap.Int("max_attempts", s.policy.MaxAttempts))

	cid, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		if domain.IsRetryable(err) {
			err = &ExhaustedError{Attempts: attempts, Err: err}
		}
		s.log.Error("upload failed", zap.String("upload", name), zap.Int("attempts", attempts), zap.Error(err))
		return nil, err
	}

	result := &domain.UploadResult{CID: cid, Elapsed: time.Since(start), Attempts: attempts}
	s.log.Info("upload completed",
		zap.String("upload", name),
		zap.String("cid", cid),
		zap.Int("attempts", attempts),
		zap.String("elapsed", formatSeconds(result.Elapsed)),
	)
	return result, nil
}

type attemptResult struct {
	cid string
	err error
}

// attempt runs upload once under the per-attempt timeout. The upload is
// abandoned, not awaited, if it ignores cancellation past the deadline.
func (s *RetryService) attempt(ctx context.Context, name string, upload UploadFunc) (string, error) {
	actx, cancel := context.WithTimeout(ctx, s.policy.Timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		cid, err := upload(actx)
		done <- attemptResult{cid: cid, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", s.timeoutError(name, r.err)
		}
		return r.cid, r.err
	case <-actx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", s.timeoutError(name, actx.Err())
	}
}

func (s *RetryService) timeoutError(name string, err error) error {
	if errors.Is(err, domain.ErrTimeout) {
		return err
	}
	return domain.Timeout(fmt.Sprintf("upload exceeded %s", s.policy.Timeout), name, err)
}
