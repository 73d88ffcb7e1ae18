// Package inject delivers transcribed text to the OS input focus
// without letting the synthesized keystrokes retrigger the capture key.
package inject

import (
	"sync/atomic"
	"time"

	"murmur/log"
)

// Status is the outcome of one injection attempt. Deferred is expected
// backpressure, not an error: the key is still physically held and the
// caller retries on a later control event.
type Status int

const (
	Injected Status = iota
	Deferred
	Failed
)

// KeyStater reports whether the designated key is physically down right
// now, sourced from hardware state rather than the event queue.
type KeyStater interface {
	IsDown() bool
}

// Typer synthesizes text at the current input focus.
type Typer interface {
	Type(text string) error
}

const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultMaxPolls     = 20
)

// Injector serializes text into the input focus, gated on the physical
// state of the designated key.
type Injector struct {
	keys  KeyStater
	typer Typer

	// typing has a single writer: this injector. The key adapter reads
	// it to suppress the designated key while keystrokes are synthetic.
	typing atomic.Bool

	PollInterval time.Duration
	MaxPolls     int
}

func New(keys KeyStater, typer Typer) *Injector {
	return &Injector{
		keys:         keys,
		typer:        typer,
		PollInterval: DefaultPollInterval,
		MaxPolls:     DefaultMaxPolls,
	}
}

// TypingInProgress reports whether an injection is currently running.
func (i *Injector) TypingInProgress() bool {
	return i.typing.Load()
}

// Inject types text at the input focus. Empty text succeeds immediately
// without touching the OS, so sequencing keeps moving. Non-empty text
// first waits for the designated key to be physically released; if it
// is still held after the poll budget, the attempt is deferred.
func (i *Injector) Inject(text string) Status {
	if text == "" {
		return Injected
	}
	if !i.waitKeyReleased() {
		return Deferred
	}

	i.typing.Store(true)
	defer i.typing.Store(false) // cleared on every exit path

	if err := i.typer.Type(text); err != nil {
		log.Errorf("text injection failed: %v", err)
		return Failed
	}
	return Injected
}

func (i *Injector) waitKeyReleased() bool {
	for n := 0; n < i.MaxPolls; n++ {
		if !i.keys.IsDown() {
			return true
		}
		time.Sleep(i.PollInterval)
	}
	return !i.keys.IsDown()
}
