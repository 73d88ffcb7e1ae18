package capture

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"murmur/log"
)

const (
	DefaultCreateTimeout = 2 * time.Second
	DefaultCloseTimeout  = 2 * time.Second

	// DefaultSettle covers several driver callback periods so samples
	// already scheduled before stop still land in the buffer.
	DefaultSettle = 50 * time.Millisecond
)

// ErrCreateTimeout reports that the backend did not produce a running
// capture device within the create timeout.
var ErrCreateTimeout = errors.New("capture open timed out")

// HealthSink receives lifecycle outcomes. Only the Manager calls it.
type HealthSink interface {
	RecordLeak()
	RecordCreateFailure()
	ClearCreateFailures()
}

type nopHealth struct{}

func (nopHealth) RecordLeak()          {}
func (nopHealth) RecordCreateFailure() {}
func (nopHealth) ClearCreateFailures() {}

// Manager creates, stops and closes capture streams with bounded-time
// guarantees, so a hung backend can never stall the caller.
type Manager struct {
	ctx    Context
	device *DeviceInfo
	config Config
	health HealthSink

	CreateTimeout time.Duration
	CloseTimeout  time.Duration
	Settle        time.Duration
}

func NewManager(ctx Context, device *DeviceInfo, config Config, health HealthSink) *Manager {
	if health == nil {
		health = nopHealth{}
	}
	return &Manager{
		ctx:           ctx,
		device:        device,
		config:        config,
		health:        health,
		CreateTimeout: DefaultCreateTimeout,
		CloseTimeout:  DefaultCloseTimeout,
		Settle:        DefaultSettle,
	}
}

// SetDevice changes the device used by subsequent Opens.
func (m *Manager) SetDevice(device *DeviceInfo) {
	m.device = device
}

// Open constructs and starts a capture stream, waiting at most
// CreateTimeout. Construction runs on a detached goroutine; if it
// completes after the deadline, the orphaned device is closed through
// the same bounded path rather than trusted.
func (m *Manager) Open() (*Stream, error) {
	buf := NewBuffer()

	type result struct {
		dev Device
		err error
	}
	ch := make(chan result, 1)
	go func() {
		dev, err := m.ctx.NewCapture(m.device, m.config)
		if err != nil {
			ch <- result{nil, err}
			return
		}
		dev.SetCallback(func(data []byte, _ uint32) {
			buf.Append(data)
		})
		if err := dev.Start(); err != nil {
			dev.Close()
			ch <- result{nil, err}
			return
		}
		ch <- result{dev, nil}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			m.health.RecordCreateFailure()
			return nil, fmt.Errorf("capture open: %w", r.err)
		}
		m.health.ClearCreateFailures()
		return &Stream{mgr: m, dev: r.dev, buf: buf}, nil
	case <-time.After(m.CreateTimeout):
		m.health.RecordCreateFailure()
		go func() {
			if r := <-ch; r.dev != nil {
				m.boundedClose(r.dev)
			}
		}()
		return nil, ErrCreateTimeout
	}
}

// boundedClose dispatches close on a detached goroutine and waits up to
// CloseTimeout. On timeout the handle is abandoned: the goroutine keeps
// running (it may finish silently or never return) and the leak is
// counted, trading the resource for bounded caller latency.
func (m *Manager) boundedClose(dev Device) {
	done := make(chan struct{})
	go func() {
		dev.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(m.CloseTimeout):
		m.health.RecordLeak()
		log.Warn("capture close timed out, handle abandoned")
	}
}

// Stream is the ownership token for one active capture resource. It has
// exactly one logical owner at a time; ownership transfer to the close
// goroutine is one-directional and terminal.
type Stream struct {
	mgr       *Manager
	dev       Device
	buf       *Buffer
	closeOnce sync.Once
}

// StopAndDrain stops the device, waits the settle interval for
// in-flight callbacks, and returns the finalized sample buffer. The
// stream still has to be closed.
func (s *Stream) StopAndDrain() []int16 {
	s.dev.Stop()
	time.Sleep(s.mgr.Settle)
	s.dev.ClearCallback()
	return s.buf.Drain()
}

// Close releases the capture resource through the bounded close path.
// Closing an already-closed or abandoned stream is a no-op.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.mgr.boundedClose(s.dev)
	})
}
