package main

import (
	"context"
	"fmt"
	"strings"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/clr-host/config"
	"github.com/wippyai/clr-host/discovery"
	"github.com/wippyai/clr-host/hosting"
	"github.com/wippyai/clr-host/shm"
	"github.com/wippyai/clr-host/version"
)

// Managed entry points on the configured type. The others on
// EntryPoint call back into a native InteropLib and are not resolved.
const (
	fnPrintObjProperties         = "PrintObjProperties"
	fnReadObjectFromSharedMemory = "ReadObjectFromSharedMemory"
	fnWriteObjectToSharedMemory  = "WriteObjectToSharedMemory"
)

var entryPoints = []string{
	fnPrintObjProperties,
	fnReadObjectFromSharedMemory,
	fnWriteObjectToSharedMemory,
}

// parseRuntime turns a version flag into a discovery request. Empty and
// "latest" both select the highest installed runtime.
func parseRuntime(s string) (version.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "latest") {
		return version.Version{}, nil
	}
	v := version.Parse(s)
	if v.IsEmpty() {
		return version.Version{}, fmt.Errorf("invalid runtime version %q", s)
	}
	return v, nil
}

// session is a hosted runtime plus the shared arena the managed side uses.
type session struct {
	ctrl  *hosting.Controller
	asm   *hosting.Assembly
	arena *shm.Arena
	log   *zap.Logger

	printObject func(obj unsafe.Pointer)
	readObject  func(index int32)
	writeObject func(index int32)
}

func arenaFor(cfg config.SharedMemoryConfig) *shm.Arena {
	opts := []shm.ArenaOption{shm.WithDir(cfg.Dir)}
	if cfg.Locking {
		opts = append(opts, shm.WithLocking())
	}
	return shm.NewArena(cfg.Name, opts...)
}

// openSession opens the arena, starts the runtime and binds every entry point.
func openSession(ctx context.Context, cfg *config.Config, log *zap.Logger) (*session, error) {
	target, err := parseRuntime(cfg.Runtime.Version)
	if err != nil {
		return nil, err
	}

	s := &session{
		ctrl: hosting.New(
			hosting.WithVersion(target),
			hosting.WithFinder(discovery.FromConfig(cfg.Runtime)),
		),
		asm:   hosting.NewAssembly(cfg.Assembly.Name, cfg.Assembly.Path),
		arena: arenaFor(cfg.SharedMemory),
		log:   log,
	}

	if err := s.arena.Open(cfg.SharedMemory.Size); err != nil {
		return nil, fmt.Errorf("open shared memory: %w", err)
	}
	if err := s.start(ctx, cfg.Assembly.Type); err != nil {
		s.close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *session) start(ctx context.Context, typeName string) error {
	if err := s.ctrl.Init(ctx); err != nil {
		return fmt.Errorf("initialize hosting: %w", err)
	}
	s.log.Info("runtime located",
		zap.Stringer("version", s.ctrl.Runtime().Version),
		zap.String("dir", s.ctrl.Runtime().Dir))

	err := s.ctrl.WithContext(ctx, s.asm, func(a *hosting.Assembly) error {
		for _, name := range entryPoints {
			if err := s.ctrl.LoadAssemblyFunction(ctx, name, typeName, a); err != nil {
				return fmt.Errorf("resolve %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.bind()
}

func (s *session) bind() error {
	targets := map[string]any{
		fnPrintObjProperties:         &s.printObject,
		fnReadObjectFromSharedMemory: &s.readObject,
		fnWriteObjectToSharedMemory:  &s.writeObject,
	}
	for name, fptr := range targets {
		fn, err := s.asm.MustFunction(name)
		if err != nil {
			return err
		}
		if err := fn.Bind(fptr); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) close(ctx context.Context) {
	if err := s.ctrl.Close(ctx); err != nil {
		s.log.Warn("close hosting", zap.Error(err))
	}
	if err := s.arena.Close(); err != nil {
		s.log.Warn("close shared memory", zap.Error(err))
	}
}

// PrintObject hands obj to the managed printer.
func (s *session) PrintObject(obj *CustomObject) {
	s.printObject(unsafe.Pointer(obj))
}

// WriteShared stores obj at index for the managed reader.
func (s *session) WriteShared(index uint32, obj CustomObject) error {
	return customObjects.Write(s.arena, index, obj)
}

// ReadShared loads the object at index.
func (s *session) ReadShared(index uint32) (CustomObject, error) {
	return customObjects.Read(s.arena, index)
}

// ManagedRead asks the managed side to print the object at index.
func (s *session) ManagedRead(index uint32) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.readObject(int32(index))
	return nil
}

// ManagedWrite asks the managed side to store its sample object at index.
func (s *session) ManagedWrite(index uint32) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.writeObject(int32(index))
	return nil
}

// checkIndex applies the arena's bounds to managed accesses, which do
// no checking of their own.
func (s *session) checkIndex(index uint32) error {
	b, err := customObjects.Pool(s.arena)
	if err != nil {
		return err
	}
	if index >= b.Capacity {
		return fmt.Errorf("index %d outside shared pool of %d objects", index, b.Capacity)
	}
	return nil
}
