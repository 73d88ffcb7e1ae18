package notify

import "sync"

// Fake records notifications for tests.
type Fake struct {
	mu     sync.Mutex
	events []string
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Notify(title, message string) {
	f.mu.Lock()
	f.events = append(f.events, title+": "+message)
	f.mu.Unlock()
}

func (f *Fake) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

func (f *Fake) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
