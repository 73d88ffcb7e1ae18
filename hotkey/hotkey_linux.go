//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"
)

const (
	evKey      = 1
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2

	// KEY_RIGHTCTRL drives push-to-talk. The left variant stays an
	// ordinary modifier so chords keep working while dictating.
	designatedKey = 97
)

// struct input_event on 64-bit: 16-byte timeval + type + code + value.
const inputEventSize = 24

// EVIOCGKEY with a bitmap large enough for KEY_MAX (0x2ff).
const (
	keyBitmapLen = 96
	eviocgkey    = (2 << 30) | (keyBitmapLen << 16) | ('E' << 8) | 0x18
)

type linuxHotkey struct {
	keydown  chan struct{}
	keyup    chan struct{}
	files    []*os.File
	stop     chan struct{}
	once     sync.Once
	suppress atomic.Pointer[func() bool]
}

func New() Hotkey {
	return &linuxHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *linuxHotkey) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

func (h *linuxHotkey) SetSuppress(fn func() bool) {
	h.suppress.Store(&fn)
}

func (h *linuxHotkey) suppressed() bool {
	if fn := h.suppress.Load(); fn != nil {
		return (*fn)()
	}
	return false
}

func (h *linuxHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var held bool

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey || evCode != designatedKey || evValue == keyRepeat {
				continue
			}
			if h.suppressed() {
				continue
			}

			switch evValue {
			case keyPress:
				if held {
					continue
				}
				held = true
				select {
				case h.keydown <- struct{}{}:
				default:
				}
			case keyRelease:
				if !held {
					continue
				}
				held = false
				select {
				case h.keyup <- struct{}{}:
				default:
				}
			}
		}
	}
}

// IsDown asks the kernel for the current key bitmap instead of trusting
// the event stream, so a query racing a release sees hardware truth.
func (h *linuxHotkey) IsDown() bool {
	var bitmap [keyBitmapLen]byte
	for _, f := range h.files {
		_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(),
			uintptr(eviocgkey), uintptr(unsafe.Pointer(&bitmap[0])))
		if errno != 0 {
			continue
		}
		if bitmap[designatedKey/8]&(1<<(designatedKey%8)) != 0 {
			return true
		}
	}
	return false
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *linuxHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *linuxHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}
