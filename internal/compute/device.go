package compute

import (
	"maps"
	"slices"

	"gpu-life/internal/core"
)

// Parameter slots of the step program, in binding order.
const (
	SlotInput = iota
	SlotOutput
	SlotConstants
)

// Backend opens a compute device.
type Backend interface {
	Name() string
	Open() (Device, error)
}

// Device is an opened compute device. Everything it hands out must be
// released before the device itself.
type Device interface {
	Name() string
	// MaxThreadsPerGroup is the largest thread group the device accepts.
	MaxThreadsPerGroup() int
	// NewProgram locates and compiles the named entry point.
	NewProgram(name string) (Program, error)
	// NewBuffer allocates size bytes of device memory.
	NewBuffer(size int) (Buffer, error)
	// NewCommand creates a single-use command that runs p once.
	NewCommand(p Program) (Command, error)
	Release()
}

// Program is a compiled compute entry point.
type Program interface {
	Name() string
	// MaxThreadsPerGroup is the largest thread group this program can be
	// dispatched with on its device. It may be below the device limit.
	MaxThreadsPerGroup() int
	Release()
}

// Buffer is a fixed-size block of device memory holding float32 values.
type Buffer interface {
	// Size is the buffer length in bytes.
	Size() int
	// Write copies src into the start of the buffer, blocking until done.
	Write(src []float32) error
	// Read copies the start of the buffer into dst, blocking until done.
	Read(dst []float32) error
	Release()
}

// Command binds buffers, dispatches a program and waits for it.
type Command interface {
	SetBuffer(slot int, b Buffer) error
	// Dispatch launches groups.W*groups.H thread groups of tile.W*tile.H
	// threads each.
	Dispatch(groups, tile core.Size) error
	// Wait submits the command and blocks until the device reports it done.
	Wait() error
	Release()
}

// BackendOptions carries the configuration shared by backend factories.
type BackendOptions struct {
	// Workers bounds host-side parallelism where a backend has any.
	Workers int
	// MaxBufferBytes caps a single allocation; zero means no cap.
	MaxBufferBytes int
}

// BackendFactory constructs a Backend.
type BackendFactory func(opts BackendOptions) Backend

var backends = map[string]BackendFactory{}

// RegisterBackend adds a backend factory under the provided name.
func RegisterBackend(name string, f BackendFactory) {
	if name == "" || f == nil {
		return
	}
	backends[name] = f
}

// Backends exposes the registry of available backend factories.
func Backends() map[string]BackendFactory {
	return backends
}

// BackendNames returns the registered backend names in sorted order.
func BackendNames() []string {
	return slices.Sorted(maps.Keys(backends))
}
