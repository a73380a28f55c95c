// Package filelock provides flock-based locking for the on-disk stores
package filelock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrTimeout is returned when LockWithTimeout gives up
var ErrTimeout = errors.New("timeout waiting for lock")

// FileLock is an exclusive advisory lock held on path + ".lock"
type FileLock struct {
	path string
	file *os.File
}

// New creates a lock guarding path
func New(path string) *FileLock {
	return &FileLock{path: path + ".lock"}
}

// NewForDir creates a lock guarding a whole directory (dir/.lock)
func NewForDir(dir string) *FileLock {
	return &FileLock{path: filepath.Join(dir, ".lock")}
}

// Path returns the lock file location
func (fl *FileLock) Path() string {
	return fl.path
}

func (fl *FileLock) open() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

// Lock blocks until the exclusive lock is held
func (fl *FileLock) Lock() error {
	f, err := fl.open()
	if err != nil {
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return fmt.Errorf("acquire lock: %w", err)
	}
	fl.file = f
	return nil
}

// TryLock acquires the lock without blocking. It reports false when another
// holder has it.
func (fl *FileLock) TryLock() (bool, error) {
	f, err := fl.open()
	if err != nil {
		return false, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return false, nil
		}
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	fl.file = f
	return true, nil
}

// LockWithTimeout polls TryLock with backoff up to 100ms until timeout
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	wait := 10 * time.Millisecond

	for {
		ok, err := fl.TryLock()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w on %s", ErrTimeout, fl.path)
		}
		time.Sleep(wait)
		if wait < 100*time.Millisecond {
			wait *= 2
		}
	}
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN)
	closeErr := fl.file.Close()
	fl.file = nil

	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close lock file: %w", closeErr)
	}
	return nil
}

// WithLock runs fn while holding the lock
func (fl *FileLock) WithLock(fn func() error) error {
	if err := fl.Lock(); err != nil {
		return err
	}
	defer fl.Unlock()
	return fn()
}

// WithLockTimeout runs fn while holding the lock, waiting at most timeout
func (fl *FileLock) WithLockTimeout(timeout time.Duration, fn func() error) error {
	if err := fl.LockWithTimeout(timeout); err != nil {
		return err
	}
	defer fl.Unlock()
	return fn()
}
