package shm

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/clr-host/errors"
)

// Defaults shared with the managed side.
const (
	DefaultName         = "Controller"
	DefaultSize         = 8192
	DefaultPoolElements = 1000
	poolAlign           = 8
)

// Tag identifies a pool. Distinct element types must use distinct tags.
type Tag string

// Block is a contiguous array of fixed-size elements inside an arena.
type Block struct {
	Tag      Tag
	Offset   uint32
	Capacity uint32
	ElemSize uint32
	Size     uint32
}

// End returns the offset one past the last byte of the block.
func (b Block) End() uint32 { return b.Offset + b.Size }

// processLock serializes access across processes.
type processLock interface {
	lock() error
	unlock() error
	close() error
}

// ArenaOption configures an Arena.
type ArenaOption func(*Arena)

// WithDir sets the directory of the Unix backing file.
func WithDir(dir string) ArenaOption {
	return func(a *Arena) {
		a.buf.dir = dir
	}
}

// WithLocking serializes pool creation and typed access, within the
// process and across every process that opens the arena with locking.
func WithLocking() ArenaOption {
	return func(a *Arena) {
		a.locking = true
	}
}

// WithPoolElements sets how many elements a new pool is sized for.
func WithPoolElements(n uint32) ArenaOption {
	return func(a *Arena) {
		if n > 0 {
			a.poolElements = n
		}
	}
}

// Arena carves typed pools out of a shared Buffer. Pools are created on
// first use, in order, and live until the arena is closed. Offsets are
// implied by creation order, so every process must create pools in the
// same sequence.
type Arena struct {
	buf          *Buffer
	plock        processLock
	pools        map[Tag]*Block
	order        []Tag
	mu           sync.Mutex
	reserved     uint32
	poolElements uint32
	locking      bool
}

// NewArena creates a closed arena over the named buffer.
func NewArena(name string, opts ...ArenaOption) *Arena {
	a := &Arena{
		buf:          NewBuffer(name, DefaultDir),
		pools:        make(map[Tag]*Block),
		poolElements: DefaultPoolElements,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the name of the shared mapping.
func (a *Arena) Name() string { return a.buf.Name() }

// IsOpen reports whether the buffer is mapped.
func (a *Arena) IsOpen() bool { return a.buf.IsOpen() }

// Size returns the mapped size in bytes, zero when closed.
func (a *Arena) Size() uint32 { return a.buf.Size() }

// Buffer returns the underlying shared buffer.
func (a *Arena) Buffer() *Buffer { return a.buf }

// Locking reports whether the arena was created WithLocking.
func (a *Arena) Locking() bool { return a.locking }

// Reserved returns the bytes taken by pools so far.
func (a *Arena) Reserved() uint32 { return a.reserved }

// Remaining returns the bytes not yet reserved by any pool.
func (a *Arena) Remaining() uint32 { return a.buf.Size() - a.reserved }

// Open maps the arena's buffer with at least size bytes.
func (a *Arena) Open(size uint32) error {
	if a.buf.IsOpen() {
		return nil
	}
	if err := a.buf.Open(size); err != nil {
		return err
	}

	if a.locking {
		l, err := newProcessLock(a.buf.m, a.buf.name)
		if err != nil {
			_ = a.buf.Close()
			return errors.Resource(errors.PhaseMemory, []string{a.buf.name}, "create process lock", err)
		}
		a.plock = l
	}
	return nil
}

// Close releases every pool and unmaps the buffer.
func (a *Arena) Close() error {
	if !a.buf.IsOpen() {
		return nil
	}

	if a.plock != nil {
		if err := a.plock.close(); err != nil {
			Logger().Warn("process lock close failed", zap.String("name", a.buf.name), zap.Error(err))
		}
		a.plock = nil
	}
	clear(a.pools)
	a.order = a.order[:0]
	a.reserved = 0
	return a.buf.Close()
}

// Lock acquires the arena lock. It is a no-op without WithLocking.
func (a *Arena) Lock() error {
	if !a.locking {
		return nil
	}
	a.mu.Lock()
	if a.plock != nil {
		if err := a.plock.lock(); err != nil {
			a.mu.Unlock()
			return errors.Resource(errors.PhaseMemory, []string{a.buf.name}, "acquire process lock", err)
		}
	}
	return nil
}

// Unlock releases the lock taken by Lock.
func (a *Arena) Unlock() error {
	if !a.locking {
		return nil
	}
	var err error
	if a.plock != nil {
		if uerr := a.plock.unlock(); uerr != nil {
			err = errors.Resource(errors.PhaseMemory, []string{a.buf.name}, "release process lock", uerr)
		}
	}
	a.mu.Unlock()
	return err
}

func (a *Arena) locked(fn func() error) error {
	if err := a.Lock(); err != nil {
		return err
	}
	err := fn()
	if uerr := a.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// Blocks returns the pools in creation order.
func (a *Arena) Blocks() []Block {
	out := make([]Block, 0, len(a.order))
	for _, t := range a.order {
		out = append(out, *a.pools[t])
	}
	return out
}

// Pool returns the block for tag, creating it when first requested.
func (a *Arena) Pool(tag Tag, elemSize uint32) (Block, error) {
	var b Block
	err := a.locked(func() error {
		var err error
		b, err = a.pool(tag, elemSize)
		return err
	})
	return b, err
}

// pool sizes a new block for poolElements elements, 8-byte aligned. When
// the remainder is too small the block takes every element that still
// fits and leaves only the sub-element tail unreserved.
func (a *Arena) pool(tag Tag, elemSize uint32) (Block, error) {
	if !a.buf.IsOpen() {
		return Block{}, errors.NotInitialized(errors.PhaseMemory, "shared memory arena "+a.buf.name)
	}
	if tag == "" {
		return Block{}, errors.InvalidInput(errors.PhaseMemory, "pool tag is empty")
	}
	if elemSize == 0 {
		return Block{}, errors.InvalidInput(errors.PhaseMemory, "pool element size must be positive")
	}

	if b, ok := a.pools[tag]; ok {
		if b.ElemSize != elemSize {
			return Block{}, errors.New(errors.PhaseMemory, errors.KindTypeMismatch).
				Path(string(tag)).
				Value(elemSize).
				Detail("pool holds %d-byte elements, requested %d", b.ElemSize, elemSize).
				Build()
		}
		return *b, nil
	}

	remaining := a.Remaining()
	target := uint64(a.poolElements) * uint64(elemSize)
	target = (target + poolAlign - 1) &^ (poolAlign - 1)
	var size uint32
	if target <= uint64(remaining) {
		size = uint32(target)
	} else {
		size = (remaining / elemSize) * elemSize
	}
	if size == 0 {
		return Block{}, errors.AllocationFailed(errors.PhaseMemory, []string{string(tag)}, elemSize, remaining)
	}

	b := &Block{
		Tag:      tag,
		Offset:   a.reserved,
		Capacity: size / elemSize,
		ElemSize: elemSize,
		Size:     size,
	}
	a.pools[tag] = b
	a.order = append(a.order, tag)
	a.reserved += size

	Logger().Debug("pool created",
		zap.String("tag", string(tag)),
		zap.Uint32("offset", b.Offset),
		zap.Uint32("capacity", b.Capacity),
		zap.Uint32("elem_size", elemSize))
	return *b, nil
}

// element returns the bytes of element index in the pool for tag.
func (a *Arena) element(tag Tag, elemSize, index uint32) ([]byte, error) {
	b, err := a.pool(tag, elemSize)
	if err != nil {
		return nil, err
	}
	if index >= b.Capacity {
		return nil, errors.OutOfBounds(errors.PhaseMemory, []string{string(tag)}, int(index), int(b.Capacity))
	}
	return a.buf.span(b.Offset+index*elemSize, elemSize)
}

// ReadElement copies element index of the pool for tag into dst.
// len(dst) is the element size.
func (a *Arena) ReadElement(tag Tag, index uint32, dst []byte) error {
	return a.locked(func() error {
		src, err := a.element(tag, uint32(len(dst)), index)
		if err != nil {
			return err
		}
		copy(dst, src)
		return nil
	})
}

// WriteElement copies src into element index of the pool for tag.
// len(src) is the element size.
func (a *Arena) WriteElement(tag Tag, index uint32, src []byte) error {
	return a.locked(func() error {
		dst, err := a.element(tag, uint32(len(src)), index)
		if err != nil {
			return err
		}
		copy(dst, src)
		return nil
	})
}
