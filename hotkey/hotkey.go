// Package hotkey turns physical presses of the designated push-to-talk
// key into capture control edges: exactly one Keydown per press and one
// Keyup per release.
package hotkey

// Hotkey delivers press/release edges of the designated key and
// answers queries about its physical state.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}

	// IsDown reports whether the designated key is physically held
	// right now, sourced from hardware state where the platform
	// allows it rather than from replayed event history.
	IsDown() bool

	// SetSuppress installs a hook consulted before emitting an edge.
	// While it returns true the designated key's transitions are
	// swallowed, so synthesized keystrokes cannot retrigger capture.
	SetSuppress(func() bool)
}
