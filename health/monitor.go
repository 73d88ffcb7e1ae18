// Package health tracks capture lifecycle failures and forces the
// process down before leaked handles exhaust the audio backend.
package health

import (
	"fmt"
	"sync"
	"sync/atomic"

	"murmur/log"
	"murmur/notify"
)

const (
	// LeakWarnThreshold is where the user is told, once, that handles
	// are leaking.
	LeakWarnThreshold = 5

	// LeakFatalThreshold forces shutdown: past this point the audio
	// backend is assumed wedged and restarting beats limping on.
	LeakFatalThreshold = 10

	// CreateFailureFatal is the number of consecutive failed capture
	// opens tolerated before forced shutdown.
	CreateFailureFatal = 3
)

// Monitor counts leaked capture handles and consecutive creation
// failures. It is the capture manager's health sink; when a fatal
// threshold is crossed it invokes the shutdown hook exactly once.
type Monitor struct {
	notifier notify.Notifier
	shutdown func()

	leaks          atomic.Int64
	createFailures atomic.Int64

	warnOnce  sync.Once
	fatalOnce sync.Once
}

// NewMonitor wires the notifier for user-facing warnings and the hook
// run on forced shutdown. The hook is called from its own goroutine so
// a recording threshold crossing never blocks capture teardown.
func NewMonitor(notifier notify.Notifier, shutdown func()) *Monitor {
	if notifier == nil {
		notifier = notify.Discard()
	}
	if shutdown == nil {
		shutdown = func() {}
	}
	return &Monitor{notifier: notifier, shutdown: shutdown}
}

// Leaks reports how many capture handles have been abandoned so far.
func (m *Monitor) Leaks() int64 {
	return m.leaks.Load()
}

func (m *Monitor) RecordLeak() {
	n := m.leaks.Add(1)
	log.Leak(n)

	if n >= LeakWarnThreshold {
		m.warnOnce.Do(func() {
			m.notifier.Notify("Microphone handles leaking",
				fmt.Sprintf("%d capture handles did not close cleanly. A restart may be needed soon.", n))
		})
	}
	if n >= LeakFatalThreshold {
		m.fatal(fmt.Sprintf("%d leaked capture handles", n))
	}
}

func (m *Monitor) RecordCreateFailure() {
	n := m.createFailures.Add(1)
	log.CreateFailure(n)

	if n >= CreateFailureFatal {
		m.fatal(fmt.Sprintf("%d consecutive capture open failures", n))
	}
}

func (m *Monitor) ClearCreateFailures() {
	m.createFailures.Store(0)
}

func (m *Monitor) fatal(reason string) {
	m.fatalOnce.Do(func() {
		log.Errorf("forced shutdown: %s", reason)
		m.notifier.Notify("Dictation shutting down", reason+". Restart to continue dictating.")
		go m.shutdown()
	})
}
