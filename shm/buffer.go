package shm

import (
	"encoding/binary"
	"math/bits"

	"go.uber.org/zap"

	"github.com/wippyai/clr-host/errors"
)

// MaxSize is the largest buffer that can be requested.
const MaxSize = 1 << 31

// State reports whether a buffer is mapped.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Buffer is a named shared memory region visible to other processes.
// Its size is always a power of two.
type Buffer struct {
	m     *mapping
	name  string
	dir   string
	size  uint32
	state State
}

// NewBuffer creates a closed buffer. dir is the directory of the Unix
// backing file; it is ignored on Windows.
func NewBuffer(name, dir string) *Buffer {
	return &Buffer{name: name, dir: dir}
}

// Name returns the mapping name.
func (b *Buffer) Name() string { return b.name }

// State reports whether the buffer is mapped.
func (b *Buffer) State() State { return b.state }

// IsOpen is shorthand for State() == StateOpen.
func (b *Buffer) IsOpen() bool { return b.state == StateOpen }

// Size returns the mapped size, zero when closed.
func (b *Buffer) Size() uint32 { return b.size }

// Bytes returns the mapped region itself. The slice is invalid after Close.
func (b *Buffer) Bytes() []byte { return b.bytes() }

// Created reports whether this process created the mapping rather than
// attaching to an existing one.
func (b *Buffer) Created() bool { return b.m != nil && b.m.created }

func (b *Buffer) bytes() []byte {
	if b.m == nil {
		return nil
	}
	return b.m.bytes()
}

// RoundSize returns the power of two a request of n bytes is mapped with.
func RoundSize(n uint32) (uint32, error) {
	if n == 0 {
		return 0, errors.InvalidInput(errors.PhaseMemory, "shared buffer size must be positive")
	}
	if n > MaxSize {
		return 0, errors.New(errors.PhaseMemory, errors.KindInvalidInput).
			Value(n).
			Detail("shared buffer size %d exceeds %d", n, uint32(MaxSize)).
			Build()
	}
	return 1 << bits.Len32(n-1), nil
}

// Open creates or attaches to the named mapping. Opening an open buffer
// is a no-op.
func (b *Buffer) Open(size uint32) error {
	if b.state == StateOpen {
		Logger().Debug("shared buffer already open", zap.String("name", b.name))
		return nil
	}
	if b.name == "" {
		return errors.InvalidInput(errors.PhaseMemory, "shared buffer name is empty")
	}
	rounded, err := RoundSize(size)
	if err != nil {
		return err
	}

	m, err := openMapping(b.dir, b.name, rounded)
	if err != nil {
		return errors.Resource(errors.PhaseMemory, []string{b.name}, "open memory map", err)
	}

	b.m = m
	b.size = rounded
	b.state = StateOpen
	Logger().Debug("shared buffer open",
		zap.String("name", b.name),
		zap.Uint32("size", rounded),
		zap.Bool("created", m.created))
	return nil
}

// Close unmaps the buffer. The buffer is closed afterwards even if the
// OS reported an error, which is still returned.
func (b *Buffer) Close() error {
	if b.state == StateClosed {
		return nil
	}

	err := b.m.close()
	b.m = nil
	b.size = 0
	b.state = StateClosed

	if err != nil {
		Logger().Warn("shared buffer close reported an error", zap.String("name", b.name), zap.Error(err))
		return errors.Resource(errors.PhaseMemory, []string{b.name}, "close memory map", err)
	}
	return nil
}

func (b *Buffer) span(offset, length uint32) ([]byte, error) {
	if b.state != StateOpen {
		return nil, errors.NotInitialized(errors.PhaseMemory, "shared buffer "+b.name)
	}
	end := uint64(offset) + uint64(length)
	if end > uint64(b.size) {
		return nil, errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Path(b.name).
			Value(offset).
			Detail("range [%d, %d) outside buffer of %d bytes", offset, end, b.size).
			Build()
	}
	return b.bytes()[offset:end:end], nil
}

// Read copies length bytes starting at offset.
func (b *Buffer) Read(offset, length uint32) ([]byte, error) {
	src, err := b.span(offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, src)
	return out, nil
}

// Write copies data to offset.
func (b *Buffer) Write(offset uint32, data []byte) error {
	dst, err := b.span(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

func (b *Buffer) ReadU8(offset uint32) (uint8, error) {
	s, err := b.span(offset, 1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (b *Buffer) ReadU16(offset uint32) (uint16, error) {
	s, err := b.span(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

func (b *Buffer) ReadU32(offset uint32) (uint32, error) {
	s, err := b.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

func (b *Buffer) ReadU64(offset uint32) (uint64, error) {
	s, err := b.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

func (b *Buffer) WriteU8(offset uint32, value uint8) error {
	s, err := b.span(offset, 1)
	if err != nil {
		return err
	}
	s[0] = value
	return nil
}

func (b *Buffer) WriteU16(offset uint32, value uint16) error {
	s, err := b.span(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(s, value)
	return nil
}

func (b *Buffer) WriteU32(offset uint32, value uint32) error {
	s, err := b.span(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s, value)
	return nil
}

func (b *Buffer) WriteU64(offset uint32, value uint64) error {
	s, err := b.span(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s, value)
	return nil
}
