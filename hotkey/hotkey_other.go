//go:build !linux

package hotkey

import (
	"sync"
	"sync/atomic"

	"golang.design/x/hotkey"
)

// xHotkey registers a Ctrl+Shift+Space hold through the OS hotkey API.
// Bare-modifier capture is not available here, so the physical state
// query is approximated from the registered key's own edge stream.
type xHotkey struct {
	hk       *hotkey.Hotkey
	keydown  chan struct{}
	keyup    chan struct{}
	stop     chan struct{}
	once     sync.Once
	held     atomic.Bool
	suppress atomic.Pointer[func() bool]
}

func New() Hotkey {
	return &xHotkey{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go h.forward()
	return nil
}

func (h *xHotkey) forward() {
	for {
		select {
		case <-h.stop:
			return
		case <-h.hk.Keydown():
			h.held.Store(true)
			if h.suppressed() {
				continue
			}
			select {
			case h.keydown <- struct{}{}:
			default:
			}
		case <-h.hk.Keyup():
			h.held.Store(false)
			if h.suppressed() {
				continue
			}
			select {
			case h.keyup <- struct{}{}:
			default:
			}
		}
	}
}

func (h *xHotkey) SetSuppress(fn func() bool) {
	h.suppress.Store(&fn)
}

func (h *xHotkey) suppressed() bool {
	if fn := h.suppress.Load(); fn != nil {
		return (*fn)()
	}
	return false
}

func (h *xHotkey) IsDown() bool {
	return h.held.Load()
}

func (h *xHotkey) Unregister() {
	h.once.Do(func() {
		close(h.stop)
		h.hk.Unregister()
	})
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}
