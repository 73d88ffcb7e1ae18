package capture

import (
	"encoding/binary"
	"os"
	"sync"
	"time"

	"murmur/wavio"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext replays a WAV file through the capture interface for
// headless runs and tests.
type FakeContext struct {
	pcm []byte
}

func NewFakeContext(wavPath string) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	samples, err := wavio.Decode(data)
	if err != nil {
		return nil, err
	}
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return &FakeContext{pcm: pcm}, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ Config) (Device, error) {
	return &FakeDevice{pcm: f.pcm}, nil
}

// FakeDevice feeds the whole clip on Start, then keeps feeding silence
// until stopped, mimicking a live microphone that never goes quiet.
type FakeDevice struct {
	pcm []byte

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeDevice) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeDevice) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeDevice) loadCallback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeDevice) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunkBytes := fakeFrameSize * fakeBytesPerFrame

	if cb := f.loadCallback(); cb != nil {
		for pos := 0; pos < len(f.pcm); pos += chunkBytes {
			end := min(pos+chunkBytes, len(f.pcm))
			chunk := make([]byte, end-pos)
			copy(chunk, f.pcm[pos:end])
			cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
		}
	}

	go func() {
		defer close(f.feedDone)
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-f.stopCh:
				return
			case <-time.After(time.Millisecond):
			}
			if cb := f.loadCallback(); cb != nil {
				cb(silence, fakeFrameSize)
			}
		}
	}()

	return nil
}

func (f *FakeDevice) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	if f.feedDone != nil {
		<-f.feedDone
	}
}

func (f *FakeDevice) Close() {}
