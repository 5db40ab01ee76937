// Package soft is a software compute device. It runs Go kernels with the same
// thread-group dispatch model as a GPU, which makes it the reference device
// for headless runs and tests.
package soft

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"gpu-life/internal/compute"
	"gpu-life/internal/core"
	"gpu-life/pkg/sims/life"
)

// Kernel runs one thread of a program. args holds the bound buffers in slot
// order.
type Kernel func(args [][]float32, x, y int)

// CellStep is the Go rendition of the cellStep program.
func CellStep(args [][]float32, x, y int) {
	in, out, c := args[compute.SlotInput], args[compute.SlotOutput], args[compute.SlotConstants]
	w, h := int(c[0]), int(c[1])
	if x >= w || y >= h {
		return
	}
	out[y*w+x] = life.NextCell(in, w, h, x, y)
}

// DefaultKernels is the program table used when Backend.Kernels is nil.
func DefaultKernels() map[string]Kernel {
	return map[string]Kernel{compute.KernelName: CellStep}
}

const defaultMaxThreads = 1024

// Backend opens software devices. Its exported fields model device limits and
// failures; they are read when the corresponding resource is requested.
type Backend struct {
	// Workers bounds how many thread groups run at once. Zero means NumCPU.
	Workers int
	// MaxBufferBytes caps a single allocation; zero means no cap.
	MaxBufferBytes int
	// MaxThreads is the per-group thread limit; zero means 1024.
	MaxThreads int
	// ProgramMaxThreads lowers the per-group limit of compiled programs;
	// zero means MaxThreads.
	ProgramMaxThreads int
	// Kernels maps program names to kernels; nil means DefaultKernels.
	Kernels map[string]Kernel
	// Unavailable makes Open fail as if no device were present.
	Unavailable bool
	// FailCommands makes every NewCommand fail.
	FailCommands bool

	live    atomic.Int64
	threads atomic.Int64
}

var _ compute.Backend = (*Backend)(nil)

// Name identifies the backend.
func (b *Backend) Name() string { return "soft" }

// LiveBuffers reports how many buffers are allocated and not yet released.
func (b *Backend) LiveBuffers() int { return int(b.live.Load()) }

// Threads reports how many kernel threads have run in total.
func (b *Backend) Threads() int { return int(b.threads.Load()) }

// Open returns a new device.
func (b *Backend) Open() (compute.Device, error) {
	if b.Unavailable {
		return nil, errors.New("software device disabled")
	}
	kernels := b.Kernels
	if kernels == nil {
		kernels = DefaultKernels()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	maxThreads := b.MaxThreads
	if maxThreads <= 0 {
		maxThreads = defaultMaxThreads
	}
	return &device{b: b, kernels: kernels, workers: workers, maxThreads: maxThreads}, nil
}

type device struct {
	b          *Backend
	kernels    map[string]Kernel
	workers    int
	maxThreads int
}

func (d *device) Name() string { return fmt.Sprintf("software (%d workers)", d.workers) }

func (d *device) MaxThreadsPerGroup() int { return d.maxThreads }

func (d *device) NewProgram(name string) (compute.Program, error) {
	k, ok := d.kernels[name]
	if !ok || k == nil {
		return nil, fmt.Errorf("no kernel named %q", name)
	}
	limit := d.maxThreads
	if d.b.ProgramMaxThreads > 0 && d.b.ProgramMaxThreads < limit {
		limit = d.b.ProgramMaxThreads
	}
	return &program{name: name, kernel: k, maxThreads: limit}, nil
}

func (d *device) NewBuffer(size int) (compute.Buffer, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("buffer size %d is not a positive multiple of 4", size)
	}
	if d.b.MaxBufferBytes > 0 && size > d.b.MaxBufferBytes {
		return nil, fmt.Errorf("buffer of %d bytes exceeds device limit of %d", size, d.b.MaxBufferBytes)
	}
	d.b.live.Add(1)
	return &buffer{b: d.b, data: make([]float32, size/4)}, nil
}

func (d *device) NewCommand(p compute.Program) (compute.Command, error) {
	if d.b.FailCommands {
		return nil, errors.New("command queue exhausted")
	}
	prog, ok := p.(*program)
	if !ok || prog.kernel == nil {
		return nil, errors.New("program does not belong to this device")
	}
	return &command{d: d, kernel: prog.kernel}, nil
}

func (d *device) Release() {}

type program struct {
	name       string
	kernel     Kernel
	maxThreads int
}

func (p *program) Name() string { return p.name }

func (p *program) MaxThreadsPerGroup() int { return p.maxThreads }

func (p *program) Release() { p.kernel = nil }

type buffer struct {
	b    *Backend
	data []float32
}

func (b *buffer) Size() int { return len(b.data) * 4 }

func (b *buffer) Write(src []float32) error {
	if b.data == nil {
		return errors.New("buffer released")
	}
	if len(src) > len(b.data) {
		return fmt.Errorf("writing %d values into a buffer of %d", len(src), len(b.data))
	}
	copy(b.data, src)
	return nil
}

func (b *buffer) Read(dst []float32) error {
	if b.data == nil {
		return errors.New("buffer released")
	}
	if len(dst) > len(b.data) {
		return fmt.Errorf("reading %d values from a buffer of %d", len(dst), len(b.data))
	}
	copy(dst, b.data)
	return nil
}

func (b *buffer) Release() {
	if b.data == nil {
		return
	}
	b.data = nil
	b.b.live.Add(-1)
}

type command struct {
	d      *device
	kernel Kernel
	args   [][]float32
	group  *errgroup.Group
}

func (c *command) SetBuffer(slot int, b compute.Buffer) error {
	buf, ok := b.(*buffer)
	if !ok || buf.data == nil {
		return fmt.Errorf("slot %d: buffer does not belong to this device", slot)
	}
	if slot < 0 {
		return fmt.Errorf("invalid slot %d", slot)
	}
	for len(c.args) <= slot {
		c.args = append(c.args, nil)
	}
	c.args[slot] = buf.data
	return nil
}

func (c *command) Dispatch(groups, tile core.Size) error {
	if c.group != nil {
		return errors.New("command already dispatched")
	}
	if tile.Area() <= 0 || tile.Area() > c.d.maxThreads {
		return fmt.Errorf("tile %dx%d outside device limit of %d threads", tile.W, tile.H, c.d.maxThreads)
	}
	for slot, a := range c.args {
		if a == nil {
			return fmt.Errorf("slot %d not bound", slot)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(c.d.workers)
	kernel, args, threads := c.kernel, c.args, &c.d.b.threads
	// Scheduling runs in the background so Dispatch returns before the work
	// finishes, as it would on a GPU queue.
	c.group = new(errgroup.Group)
	c.group.Go(func() error {
		for gy := 0; gy < groups.H; gy++ {
			for gx := 0; gx < groups.W; gx++ {
				g.Go(func() (err error) {
					defer func() {
						if r := recover(); r != nil {
							err = fmt.Errorf("kernel fault in group (%d,%d): %v", gx, gy, r)
						}
					}()
					for ty := 0; ty < tile.H; ty++ {
						for tx := 0; tx < tile.W; tx++ {
							kernel(args, gx*tile.W+tx, gy*tile.H+ty)
						}
					}
					threads.Add(int64(tile.Area()))
					return nil
				})
			}
		}
		return g.Wait()
	})
	return nil
}

func (c *command) Wait() error {
	if c.group == nil {
		return errors.New("command not dispatched")
	}
	return c.group.Wait()
}

func (c *command) Release() {
	if c.group != nil {
		_ = c.group.Wait()
	}
	c.args = nil
}

func init() {
	compute.RegisterBackend("soft", func(opts compute.BackendOptions) compute.Backend {
		return &Backend{Workers: opts.Workers, MaxBufferBytes: opts.MaxBufferBytes}
	})
}
