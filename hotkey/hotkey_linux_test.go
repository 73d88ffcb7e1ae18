//go:build linux

package hotkey

import (
	"encoding/binary"
	"os"
	"testing"
	"time"
)

func writeKeyEvent(t *testing.T, w *os.File, code uint16, value int32) {
	t.Helper()
	buf := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint16(buf[16:], evKey)
	binary.LittleEndian.PutUint16(buf[18:], code)
	binary.LittleEndian.PutUint32(buf[20:], uint32(value))
	if _, err := w.Write(buf); err != nil {
		t.Fatalf("writing event: %v", err)
	}
}

func newPipedHotkey(t *testing.T) (*linuxHotkey, *os.File) {
	t.Helper()
	h := New().(*linuxHotkey)
	h.stop = make(chan struct{})
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	t.Cleanup(func() {
		close(h.stop)
		w.Close()
		r.Close()
	})
	go h.readEvents(r)
	return h, w
}

func expectEdge(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("no %s emitted", what)
	}
}

func expectNoEdge(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("unexpected %s emitted", what)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPressReleaseEmitsOneEdgeEach(t *testing.T) {
	h, w := newPipedHotkey(t)

	writeKeyEvent(t, w, designatedKey, keyPress)
	expectEdge(t, h.Keydown(), "keydown")

	writeKeyEvent(t, w, designatedKey, keyRelease)
	expectEdge(t, h.Keyup(), "keyup")
}

func TestAutorepeatIsIgnored(t *testing.T) {
	h, w := newPipedHotkey(t)

	writeKeyEvent(t, w, designatedKey, keyPress)
	expectEdge(t, h.Keydown(), "keydown")

	writeKeyEvent(t, w, designatedKey, keyRepeat)
	writeKeyEvent(t, w, designatedKey, keyRepeat)
	expectNoEdge(t, h.Keydown(), "keydown")

	writeKeyEvent(t, w, designatedKey, keyRelease)
	expectEdge(t, h.Keyup(), "keyup")
}

func TestOtherKeysAreIgnored(t *testing.T) {
	h, w := newPipedHotkey(t)

	writeKeyEvent(t, w, 29, keyPress) // left ctrl
	writeKeyEvent(t, w, 30, keyPress) // 'a'
	expectNoEdge(t, h.Keydown(), "keydown")
}

func TestReleaseWithoutPressIsIgnored(t *testing.T) {
	h, w := newPipedHotkey(t)

	writeKeyEvent(t, w, designatedKey, keyRelease)
	expectNoEdge(t, h.Keyup(), "keyup")
}

func TestSuppressionSwallowsEdges(t *testing.T) {
	h, w := newPipedHotkey(t)
	h.SetSuppress(func() bool { return true })

	writeKeyEvent(t, w, designatedKey, keyPress)
	expectNoEdge(t, h.Keydown(), "keydown")
	writeKeyEvent(t, w, designatedKey, keyRelease)
	expectNoEdge(t, h.Keyup(), "keyup")
}
