//go:build !linux

package inject

import (
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// pasteTyper places text on the clipboard, synthesizes the paste
// chord, then restores whatever the clipboard held before.
type pasteTyper struct{}

// NewTyper returns the platform text injection backend.
func NewTyper() Typer {
	return &pasteTyper{}
}

func (pasteTyper) Type(text string) error {
	prev, prevErr := clipboard.ReadAll()

	if err := clipboard.WriteAll(text); err != nil {
		return err
	}

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return err
	}

	// Let the focused application consume the paste before the
	// clipboard changes again.
	time.Sleep(150 * time.Millisecond)

	if prevErr == nil {
		if err := clipboard.WriteAll(prev); err != nil {
			return err
		}
	}
	return nil
}
