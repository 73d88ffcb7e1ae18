package hotkey

import "sync/atomic"

// FakeHotkey drives the engine from tests and the headless test mode.
type FakeHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
	down    atomic.Bool
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (f *FakeHotkey) Register() error          { return nil }
func (f *FakeHotkey) Unregister()              {}
func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}   { return f.keyup }
func (f *FakeHotkey) IsDown() bool             { return f.down.Load() }
func (f *FakeHotkey) SetSuppress(func() bool)  {}

func (f *FakeHotkey) SimKeydown() {
	f.down.Store(true)
	f.keydown <- struct{}{}
}

func (f *FakeHotkey) SimKeyup() {
	f.down.Store(false)
	f.keyup <- struct{}{}
}

// SetDown forces the physical-state answer without emitting an edge,
// for exercising deferral while a key is held.
func (f *FakeHotkey) SetDown(v bool) {
	f.down.Store(v)
}
