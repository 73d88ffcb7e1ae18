package health

import "errors"

// ErrAlreadyRunning means another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")
