// Package wavio converts between raw capture samples and the WAV byte
// stream handed to the recognizer: mono, 16-bit signed PCM, 16 kHz.
package wavio

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
)

// Duration returns the audio duration of n samples.
func Duration(n int) time.Duration {
	return time.Duration(n) * time.Second / SampleRate
}

// Samples converts little-endian 16-bit PCM bytes to samples. A trailing
// odd byte is dropped.
func Samples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
	}
	return samples
}

// Encode wraps samples in a WAV container.
func Encode(samples []int16) ([]byte, error) {
	var sb seekBuffer
	enc := wav.NewEncoder(&sb, SampleRate, BitsPerSample, Channels, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: BitsPerSample,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("writing wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing wav encoder: %w", err)
	}
	return sb.buf, nil
}

// Decode extracts the PCM samples from a WAV byte stream.
func Decode(data []byte) ([]int16, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}
	if dec.NumChans != Channels {
		return nil, fmt.Errorf("expected mono audio, got %d channels", dec.NumChans)
	}
	samples := make([]int16, len(pcm.Data))
	for i, s := range pcm.Data {
		samples[i] = int16(s)
	}
	return samples, nil
}

// seekBuffer is an in-memory io.WriteSeeker. The wav encoder seeks back
// to patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.buf) {
		if need > cap(b.buf) {
			grown := make([]byte, need, need*2)
			copy(grown, b.buf)
			b.buf = grown
		} else {
			b.buf = b.buf[:need]
		}
	}
	copy(b.buf[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}
