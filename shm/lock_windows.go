//go:build windows

package shm

import (
	"golang.org/x/sys/windows"
)

// mutexLock is a named mutex shared by every process using the buffer.
type mutexLock struct {
	handle windows.Handle
}

func newProcessLock(_ *mapping, name string) (processLock, error) {
	p, err := windows.UTF16PtrFromString(`Local\` + name + ".lock")
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateMutex(nil, false, p)
	if err == windows.ERROR_ALREADY_EXISTS && h != 0 {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return &mutexLock{handle: h}, nil
}

func (l *mutexLock) lock() error {
	// WAIT_ABANDONED still grants ownership.
	_, err := windows.WaitForSingleObject(l.handle, windows.INFINITE)
	return err
}

func (l *mutexLock) unlock() error {
	return windows.ReleaseMutex(l.handle)
}

func (l *mutexLock) close() error {
	return windows.CloseHandle(l.handle)
}
