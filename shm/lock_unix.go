//go:build darwin || freebsd || linux

package shm

import (
	"golang.org/x/sys/unix"
)

// fileLock is an advisory flock on the buffer's backing file.
type fileLock struct {
	fd int
}

func newProcessLock(m *mapping, _ string) (processLock, error) {
	return &fileLock{fd: m.fd}, nil
}

func (l *fileLock) lock() error {
	for {
		err := unix.Flock(l.fd, unix.LOCK_EX)
		if err != unix.EINTR {
			return err
		}
	}
}

func (l *fileLock) unlock() error {
	return unix.Flock(l.fd, unix.LOCK_UN)
}

// close is a no-op: the descriptor belongs to the mapping.
func (l *fileLock) close() error { return nil }
