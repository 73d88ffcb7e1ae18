package capture

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingHealth struct {
	leaks          atomic.Int64
	createFailures atomic.Int64
	clears         atomic.Int64
}

func (h *countingHealth) RecordLeak()          { h.leaks.Add(1) }
func (h *countingHealth) RecordCreateFailure() { h.createFailures.Add(1) }
func (h *countingHealth) ClearCreateFailures() { h.clears.Add(1) }

// stubDevice lets tests control how the backend behaves on each call.
type stubDevice struct {
	startErr  error
	closeHang time.Duration

	started atomic.Bool
	stopped atomic.Bool
	closed  atomic.Bool
	cb      atomic.Pointer[DataCallback]
}

func (d *stubDevice) Start() error {
	if d.startErr != nil {
		return d.startErr
	}
	d.started.Store(true)
	return nil
}

func (d *stubDevice) Stop() { d.stopped.Store(true) }

func (d *stubDevice) Close() {
	if d.closeHang > 0 {
		time.Sleep(d.closeHang)
	}
	d.closed.Store(true)
}

func (d *stubDevice) SetCallback(cb DataCallback) { d.cb.Store(&cb) }
func (d *stubDevice) ClearCallback()              { d.cb.Store(nil) }

func (d *stubDevice) feed(pcm []byte) {
	if cb := d.cb.Load(); cb != nil {
		(*cb)(pcm, uint32(len(pcm)/2))
	}
}

type stubContext struct {
	dev         *stubDevice
	createErr   error
	createDelay time.Duration
}

func (c *stubContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (c *stubContext) Close()                         {}

func (c *stubContext) NewCapture(*DeviceInfo, Config) (Device, error) {
	if c.createDelay > 0 {
		time.Sleep(c.createDelay)
	}
	if c.createErr != nil {
		return nil, c.createErr
	}
	return c.dev, nil
}

func newTestManager(ctx Context, health HealthSink) *Manager {
	m := NewManager(ctx, nil, Config{SampleRate: 16000, Channels: 1}, health)
	m.CreateTimeout = 50 * time.Millisecond
	m.CloseTimeout = 50 * time.Millisecond
	m.Settle = time.Millisecond
	return m
}

func TestOpenStartsDeviceAndWiresBuffer(t *testing.T) {
	dev := &stubDevice{}
	health := &countingHealth{}
	m := newTestManager(&stubContext{dev: dev}, health)

	s, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !dev.started.Load() {
		t.Error("device not started")
	}
	if health.clears.Load() != 1 {
		t.Error("expected consecutive-failure counter cleared on success")
	}

	dev.feed([]byte{0x01, 0x00, 0x02, 0x00})
	samples := s.StopAndDrain()
	if len(samples) != 2 {
		t.Errorf("drained %d samples, want 2", len(samples))
	}
	if !dev.stopped.Load() {
		t.Error("device not stopped")
	}
	s.Close()
	if !dev.closed.Load() {
		t.Error("device not closed")
	}
	if health.leaks.Load() != 0 {
		t.Errorf("leaks = %d, want 0", health.leaks.Load())
	}
}

func TestOpenCreateErrorCountsFailure(t *testing.T) {
	health := &countingHealth{}
	m := newTestManager(&stubContext{createErr: errors.New("no device")}, health)

	if _, err := m.Open(); err == nil {
		t.Fatal("expected error")
	}
	if health.createFailures.Load() != 1 {
		t.Errorf("createFailures = %d, want 1", health.createFailures.Load())
	}
}

func TestOpenStartErrorClosesDevice(t *testing.T) {
	dev := &stubDevice{startErr: errors.New("backend busy")}
	health := &countingHealth{}
	m := newTestManager(&stubContext{dev: dev}, health)

	if _, err := m.Open(); err == nil {
		t.Fatal("expected error")
	}
	if !dev.closed.Load() {
		t.Error("device not closed after failed start")
	}
	if health.createFailures.Load() != 1 {
		t.Errorf("createFailures = %d, want 1", health.createFailures.Load())
	}
}

func TestOpenTimesOutOnHungCreate(t *testing.T) {
	dev := &stubDevice{}
	health := &countingHealth{}
	m := newTestManager(&stubContext{dev: dev, createDelay: 200 * time.Millisecond}, health)

	start := time.Now()
	_, err := m.Open()
	if !errors.Is(err, ErrCreateTimeout) {
		t.Fatalf("err = %v, want ErrCreateTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("Open blocked %v, want ~50ms", elapsed)
	}
	if health.createFailures.Load() != 1 {
		t.Errorf("createFailures = %d, want 1", health.createFailures.Load())
	}

	// The orphaned device is eventually closed through the bounded path.
	deadline := time.Now().Add(time.Second)
	for !dev.closed.Load() {
		if time.Now().After(deadline) {
			t.Fatal("orphaned device never closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCloseTimeoutCountsLeak(t *testing.T) {
	dev := &stubDevice{closeHang: 500 * time.Millisecond}
	health := &countingHealth{}
	m := newTestManager(&stubContext{dev: dev}, health)

	s, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	start := time.Now()
	s.Close()
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Close blocked %v, want ~50ms", elapsed)
	}
	if health.leaks.Load() != 1 {
		t.Errorf("leaks = %d, want 1", health.leaks.Load())
	}
}

func TestCloseIdempotentOnAbandonedStream(t *testing.T) {
	dev := &stubDevice{closeHang: 500 * time.Millisecond}
	health := &countingHealth{}
	m := newTestManager(&stubContext{dev: dev}, health)

	s, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()
	s.Close() // second close must not count a second leak
	if health.leaks.Load() != 1 {
		t.Errorf("leaks = %d, want 1", health.leaks.Load())
	}
}

func TestStopAndDrainDropsLateCallbacks(t *testing.T) {
	dev := &stubDevice{}
	m := newTestManager(&stubContext{dev: dev}, nil)

	s, err := m.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dev.feed([]byte{0x01, 0x00})
	samples := s.StopAndDrain()
	if len(samples) != 1 {
		t.Fatalf("drained %d samples, want 1", len(samples))
	}

	// A straggler callback after drain must not corrupt anything.
	dev.feed([]byte{0x02, 0x00})
	s.Close()
}
