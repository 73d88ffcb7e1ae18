// Package transcriber converts finalized sample buffers into text. The
// recognizer is treated as an opaque call that blocks and eventually
// returns text or never returns; the dispatcher bounds every wait.
package transcriber

import "context"

// Recognizer accepts a mono 16-bit PCM WAV byte stream and returns the
// transcribed text. It may block arbitrarily long and offers no
// internal cancellation; the context is honored on a best-effort basis
// only.
type Recognizer interface {
	Name() string
	Transcribe(ctx context.Context, wavData []byte) (string, error)
}
