// Package lockfile serializes writers of a shared file across processes with a
// sibling "<file>.lock" holding the owner's PID.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Lock is held while the guarded file is being rewritten.
type Lock struct {
	path string
	file *os.File
}

// ErrHeld reports a live lock owned by another process.
var ErrHeld = errors.New("lock held by another process")

// For returns the lock path guarding target.
func For(target string) string { return target + ".lock" }

// Acquire takes the lock for target. A stale lock left by a dead process is
// removed and acquisition retried once.
func Acquire(target string) (*Lock, error) {
	path := For(target)
	l, err := create(path)
	if err == nil || !os.IsExist(err) {
		return l, err
	}
	if err := clearStale(path); err != nil {
		return nil, err
	}
	l, err = create(path)
	if os.IsExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrHeld, path)
	}
	return l, err
}

func create(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create lock file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write PID to lock file: %w", err)
	}
	return &Lock{path: path, file: f}, nil
}

// clearStale removes path when the PID in it no longer runs.
func clearStale(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("lock file exists but cannot be read: %s\nRemove it manually if nothing is writing settings: rm %s", path, path)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("lock file contains invalid PID: %s\nRemove it manually if corrupted: rm %s", path, path)
	}
	if processExists(pid) {
		return fmt.Errorf("%w (PID %d): %s", ErrHeld, pid, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stale lock (PID %d not running) cannot be removed: %w\nRemove manually: rm %s", pid, err, path)
	}
	return nil
}

func processExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 checks the process is alive
	err = p.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
		return false
	}
	// EPERM: it exists but belongs to someone else
	return true
}

// Release closes and removes the lock file.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if l.file != nil {
		l.file.Close()
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func (l *Lock) Path() string { return l.path }
