package clrhost

import (
	"github.com/wippyai/clr-host/shm"
)

// Memory is byte-addressed access to memory shared with managed code.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of shared memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Pooler hands out fixed-size element pools from shared memory.
type Pooler interface {
	Pool(tag shm.Tag, elemSize uint32) (shm.Block, error)
}

var (
	_ Memory      = (*shm.Buffer)(nil)
	_ MemorySizer = (*shm.Buffer)(nil)
	_ MemorySizer = (*shm.Arena)(nil)
	_ Pooler      = (*shm.Arena)(nil)
)
