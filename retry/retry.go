package retry

import (
	"errors"
	"time"
)

// Policy is a bounded retry with a fixed backoff between attempts.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration

	// Sleep overrides time.Sleep in tests.
	Sleep func(time.Duration)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable: Do returns it immediately.
func Permanent(err error) error {
	return &permanentError{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, or MaxAttempts
// is exhausted. The last error is returned.
func (p Policy) Do(fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt < p.MaxAttempts && p.Backoff > 0 {
			sleep(p.Backoff)
		}
	}
	return err
}
