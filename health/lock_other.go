//go:build !windows

package health

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Lock is the held single-instance lock. Release it on shutdown.
type Lock struct {
	f *os.File
}

// AcquireLock takes an exclusive flock on a lock file under dir. The
// kernel drops the lock if the process dies, so stale files are
// harmless.
func AcquireLock(dir string) (*Lock, error) {
	path := filepath.Join(dir, "murmur.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, ErrAlreadyRunning
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return &Lock{f: f}, nil
}

func (l *Lock) Release() {
	if l == nil || l.f == nil {
		return
	}
	syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
	l.f.Close()
	l.f = nil
}
