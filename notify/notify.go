// Package notify is the fire-and-forget status sink: passive desktop
// notifications with no backpressure toward the core.
package notify

import "github.com/gen2brain/beeep"

type Notifier interface {
	Notify(title, message string)
}

type desktop struct{}

// NewDesktop returns a Notifier backed by the OS notification service.
func NewDesktop() Notifier {
	return desktop{}
}

func (desktop) Notify(title, message string) {
	// Delivery failures are not actionable here.
	_ = beeep.Notify(title, message, "")
}

type discard struct{}

// Discard returns a Notifier that drops everything (headless runs).
func Discard() Notifier {
	return discard{}
}

func (discard) Notify(string, string) {}
