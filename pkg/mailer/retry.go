package mailer

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	pkgerrors "github.com/apexev/apexev-backend/pkg/errors"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
	defaultSendTimeout = 10 * time.Second
)

// RetryOptions bound each delivery attempt and the number of attempts.
type RetryOptions struct {
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
}

// RetryingSender retries transient delivery failures with exponential backoff.
// Every attempt runs under its own timeout.
type RetryingSender struct {
	next Sender
	opts RetryOptions
}

func WithRetry(next Sender, opts RetryOptions) (*RetryingSender, error) {
	if next == nil {
		return nil, errors.New("sender required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultSendTimeout
	}
	return &RetryingSender{next: next, opts: opts}, nil
}

func (s *RetryingSender) SendAppointmentReminder(ctx context.Context, reminder AppointmentReminder) error {
	if err := reminder.Validate(); err != nil {
		return err
	}
	backoff := retry.WithMaxRetries(uint64(s.opts.MaxAttempts-1), retry.NewExponential(s.opts.Backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()

		err := s.next.SendAppointmentReminder(attemptCtx, reminder)
		if err == nil {
			return nil
		}
		if !pkgerrors.IsRetryable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}
