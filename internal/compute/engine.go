// Package compute advances a whole grid by one generation on a compute
// device.
//
// An Engine owns its device, program and three buffers exclusively: input
// state, output state and a constants block holding the grid width and
// height. Step uploads the current state, dispatches the program over a fixed
// 32x16 tile layout and blocks until the device finishes, so the returned
// state is complete before anyone reads or writes the grid again.
//
// An Engine is not safe for concurrent use; callers serialize Step with every
// other access to the grid.
package compute

import (
	"errors"
	"fmt"
	"log/slog"

	"gpu-life/internal/core"
)

// Engine runs the step program on a device.
type Engine struct {
	size     core.Size
	geometry Geometry

	dev       Device
	program   Program
	input     Buffer
	output    Buffer
	constants Buffer

	dropped uint64
	onDrop  func(error)
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for dropped steps.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDropHandler registers fn to be called with the cause of every step that
// fell back to returning its input.
func WithDropHandler(fn func(error)) Option {
	return func(e *Engine) { e.onDrop = fn }
}

// New opens a device from backend and prepares it for a width*height grid.
// Construction is all or nothing: on error every acquired resource has been
// released and the returned engine is nil. The error is an *EngineError.
func New(backend Backend, width, height int, opts ...Option) (*Engine, error) {
	if width <= 0 || height <= 0 {
		return nil, newError(AllocationFailed, fmt.Errorf("invalid grid size %dx%d", width, height))
	}
	if backend == nil {
		return nil, newError(DeviceUnavailable, errors.New("no backend"))
	}
	e := &Engine{
		size:     core.Size{W: width, H: height},
		geometry: DispatchGeometry(width, height, Tile),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	dev, err := backend.Open()
	if err != nil {
		return nil, newError(DeviceUnavailable, err)
	}
	e.dev = dev
	if limit := dev.MaxThreadsPerGroup(); limit < Tile.Area() {
		e.Close()
		return nil, newError(DeviceUnavailable, fmt.Errorf("%s allows %d threads per group, need %d", dev.Name(), limit, Tile.Area()))
	}

	if e.program, err = dev.NewProgram(KernelName); err != nil {
		e.Close()
		return nil, newError(KernelMissing, err)
	}
	if limit := e.program.MaxThreadsPerGroup(); limit < Tile.Area() {
		e.Close()
		return nil, newError(DeviceUnavailable, fmt.Errorf("%s runs %s with at most %d threads per group, need %d", dev.Name(), KernelName, limit, Tile.Area()))
	}

	stateBytes := e.size.Area() * 4
	if e.input, err = dev.NewBuffer(stateBytes); err != nil {
		e.Close()
		return nil, newError(AllocationFailed, fmt.Errorf("input buffer: %w", err))
	}
	if e.output, err = dev.NewBuffer(stateBytes); err != nil {
		e.Close()
		return nil, newError(AllocationFailed, fmt.Errorf("output buffer: %w", err))
	}
	if e.constants, err = dev.NewBuffer(8); err != nil {
		e.Close()
		return nil, newError(AllocationFailed, fmt.Errorf("constants buffer: %w", err))
	}
	if err := e.constants.Write([]float32{float32(width), float32(height)}); err != nil {
		e.Close()
		return nil, newError(AllocationFailed, fmt.Errorf("writing constants: %w", err))
	}
	return e, nil
}

// Size returns the grid dimensions the engine was built for.
func (e *Engine) Size() core.Size { return e.size }

// Geometry returns the dispatch layout used by every Step.
func (e *Engine) Geometry() Geometry { return e.geometry }

// DeviceName identifies the device in use.
func (e *Engine) DeviceName() string {
	if e.dev == nil {
		return ""
	}
	return e.dev.Name()
}

// Dropped counts the steps that returned their input unchanged.
func (e *Engine) Dropped() uint64 { return e.dropped }

// Step returns the generation following cur. cur is never modified. If the
// device cannot run the step, cur itself is returned.
func (e *Engine) Step(cur []float32) []float32 {
	next, err := e.step(cur)
	if err != nil {
		e.dropped++
		e.log.Debug("step dropped", "error", err, "dropped", e.dropped)
		if e.onDrop != nil {
			e.onDrop(err)
		}
		return cur
	}
	return next
}

func (e *Engine) step(cur []float32) ([]float32, error) {
	if e.dev == nil {
		return nil, errors.New("engine closed")
	}
	if len(cur) != e.size.Area() {
		return nil, fmt.Errorf("state has %d cells, want %d", len(cur), e.size.Area())
	}
	if err := e.input.Write(cur); err != nil {
		return nil, fmt.Errorf("uploading state: %w", err)
	}

	cmd, err := e.dev.NewCommand(e.program)
	if err != nil {
		return nil, fmt.Errorf("creating command: %w", err)
	}
	defer cmd.Release()

	bindings := [...]struct {
		slot int
		buf  Buffer
	}{
		{SlotInput, e.input},
		{SlotOutput, e.output},
		{SlotConstants, e.constants},
	}
	for _, b := range bindings {
		if err := cmd.SetBuffer(b.slot, b.buf); err != nil {
			return nil, fmt.Errorf("binding slot %d: %w", b.slot, err)
		}
	}
	if err := cmd.Dispatch(e.geometry.Groups, e.geometry.Tile); err != nil {
		return nil, fmt.Errorf("dispatching: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("waiting for device: %w", err)
	}

	next := make([]float32, len(cur))
	if err := e.output.Read(next); err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	return next, nil
}

// Close releases every device resource. It is safe to call more than once.
func (e *Engine) Close() {
	if e.constants != nil {
		e.constants.Release()
		e.constants = nil
	}
	if e.output != nil {
		e.output.Release()
		e.output = nil
	}
	if e.input != nil {
		e.input.Release()
		e.input = nil
	}
	if e.program != nil {
		e.program.Release()
		e.program = nil
	}
	if e.dev != nil {
		e.dev.Release()
		e.dev = nil
	}
}
