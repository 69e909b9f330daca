//go:build darwin || freebsd || linux

package shm

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultDir holds the backing files of shared buffers. The managed side
// opens /tmp/<name>, so it must not follow $TMPDIR.
const DefaultDir = "/tmp"

// mapping is a file-backed MAP_SHARED region.
type mapping struct {
	data    []byte
	path    string
	fd      int
	created bool
}

func openMapping(dir, name string, size uint32) (*mapping, error) {
	if dir == "" {
		dir = DefaultDir
	}
	path := filepath.Join(dir, name)

	created := true
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0o666)
	if err == unix.EEXIST {
		created = false
		fd, err = unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	}
	if err != nil {
		return nil, err
	}

	m := &mapping{path: path, fd: fd, created: created}
	if err := m.mapFile(size); err != nil {
		_ = unix.Close(fd)
		if created {
			_ = unix.Unlink(path)
		}
		return nil, err
	}
	return m, nil
}

func (m *mapping) mapFile(size uint32) error {
	var st unix.Stat_t
	if err := unix.Fstat(m.fd, &st); err != nil {
		return err
	}
	if st.Size < int64(size) {
		if err := unix.Ftruncate(m.fd, int64(size)); err != nil {
			return err
		}
	}

	data, err := unix.Mmap(m.fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *mapping) bytes() []byte { return m.data }

// close unmaps and closes the file, removing it if this process created
// it. Every step runs even when an earlier one fails; the first error wins.
func (m *mapping) close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if m.data != nil {
		keep(unix.Munmap(m.data))
		m.data = nil
	}
	if m.fd >= 0 {
		keep(unix.Close(m.fd))
		m.fd = -1
	}
	if m.created {
		keep(unix.Unlink(m.path))
		m.created = false
	}
	return first
}
