//go:build windows

package health

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Lock is the held single-instance lock. Release it on shutdown.
type Lock struct {
	f    *os.File
	path string
}

// AcquireLock creates the lock file exclusively. A leftover file from
// a dead process is detected by its recorded pid and replaced.
func AcquireLock(dir string) (*Lock, error) {
	path := filepath.Join(dir, "murmur.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		if !lockHolderAlive(path) {
			os.Remove(path)
			f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		}
		if err != nil {
			return nil, ErrAlreadyRunning
		}
	} else if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return &Lock{f: f, path: path}, nil
}

func lockHolderAlive(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	_, err = os.FindProcess(pid)
	return err == nil
}

func (l *Lock) Release() {
	if l == nil || l.f == nil {
		return
	}
	l.f.Close()
	os.Remove(l.path)
	l.f = nil
}
