package capture

import "sync"

// Buffer is the append-only sample sink filled by the driver callback.
// The callback thread only appends under the mutex and never blocks;
// once drained, late callbacks scheduled before stop are dropped.
type Buffer struct {
	mu      sync.Mutex
	samples []int16
	sealed  bool
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append decodes little-endian 16-bit PCM bytes and appends them. A
// trailing odd byte is ignored.
func (b *Buffer) Append(pcm []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		b.samples = append(b.samples, int16(uint16(pcm[i])|uint16(pcm[i+1])<<8))
	}
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Drain seals the buffer and hands its samples to the caller. The
// returned slice is owned exclusively by the caller; any callback that
// fires afterwards is discarded.
func (b *Buffer) Drain() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed = true
	samples := b.samples
	b.samples = nil
	return samples
}
