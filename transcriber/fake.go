package transcriber

import (
	"context"
	"sync"
	"time"
)

// FakeRecognizer is a scriptable recognizer for tests and headless
// runs.
type FakeRecognizer struct {
	mu    sync.Mutex
	text  string
	errs  []error // returned in order before text succeeds
	delay time.Duration
	calls int
}

func NewFake(text string) *FakeRecognizer {
	return &FakeRecognizer{text: text}
}

// FailWith queues errors to be returned by successive calls before the
// recognizer starts succeeding.
func (f *FakeRecognizer) FailWith(errs ...error) *FakeRecognizer {
	f.mu.Lock()
	f.errs = append(f.errs, errs...)
	f.mu.Unlock()
	return f
}

// Delay makes every call block for d before answering, ignoring the
// context — mimicking a recognizer with no internal cancellation.
func (f *FakeRecognizer) Delay(d time.Duration) *FakeRecognizer {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
	return f
}

func (f *FakeRecognizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeRecognizer) Name() string { return "fake" }

func (f *FakeRecognizer) Transcribe(_ context.Context, _ []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	delay := f.delay
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	text := f.text
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
