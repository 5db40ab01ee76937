//go:build opencl

package opencl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jgillich/go-opencl/cl"

	"gpu-life/internal/compute"
	"gpu-life/internal/core"
)

// Open picks a device, creates a context and a single in-order command queue.
func (b *Backend) Open() (compute.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	device := findDevice(platforms, cl.DeviceTypeGPU)
	if device == nil && b.AllowCPU {
		device = findDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	return &clDevice{device: device, context: context, queue: queue}, nil
}

func findDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

type clDevice struct {
	device  *cl.Device
	context *cl.Context
	queue   *cl.CommandQueue
}

func (d *clDevice) Name() string { return d.device.Name() }

func (d *clDevice) MaxThreadsPerGroup() int { return d.device.MaxWorkGroupSize() }

func (d *clDevice) NewProgram(name string) (compute.Program, error) {
	program, err := d.context.CreateProgramWithSource([]string{compute.KernelSource})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := program.BuildProgram([]*cl.Device{d.device}, ""); err != nil {
		program.Release()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	kernel, err := program.CreateKernel(name)
	if err != nil {
		program.Release()
		return nil, fmt.Errorf("creating OpenCL kernel %q: %w", name, err)
	}
	limit, err := kernel.WorkGroupSize(d.device)
	if err != nil {
		kernel.Release()
		program.Release()
		return nil, fmt.Errorf("querying work-group size of %q: %w", name, err)
	}
	return &clProgram{name: name, program: program, kernel: kernel, maxThreads: limit}, nil
}

func (d *clDevice) NewBuffer(size int) (compute.Buffer, error) {
	mem, err := d.context.CreateEmptyBuffer(cl.MemReadWrite, size)
	if err != nil {
		return nil, err
	}
	return &clBuffer{queue: d.queue, mem: mem, size: size}, nil
}

func (d *clDevice) NewCommand(p compute.Program) (compute.Command, error) {
	prog, ok := p.(*clProgram)
	if !ok || prog.kernel == nil {
		return nil, errors.New("program does not belong to this device")
	}
	return &clCommand{queue: d.queue, kernel: prog.kernel}, nil
}

func (d *clDevice) Release() {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.context != nil {
		d.context.Release()
		d.context = nil
	}
}

type clProgram struct {
	name       string
	program    *cl.Program
	kernel     *cl.Kernel
	maxThreads int
}

func (p *clProgram) Name() string { return p.name }

// MaxThreadsPerGroup is CL_KERNEL_WORK_GROUP_SIZE, which register pressure
// can push below the device maximum.
func (p *clProgram) MaxThreadsPerGroup() int { return p.maxThreads }

func (p *clProgram) Release() {
	if p.kernel != nil {
		p.kernel.Release()
		p.kernel = nil
	}
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
}

type clBuffer struct {
	queue *cl.CommandQueue
	mem   *cl.MemObject
	size  int
}

func (b *clBuffer) Size() int { return b.size }

func (b *clBuffer) Write(src []float32) error {
	if len(src) == 0 {
		return nil
	}
	if len(src)*4 > b.size {
		return fmt.Errorf("writing %d bytes into a buffer of %d", len(src)*4, b.size)
	}
	event, err := b.queue.EnqueueWriteBufferFloat32(b.mem, true, 0, src, nil)
	if err != nil {
		return err
	}
	releaseEvent(event)
	return nil
}

func (b *clBuffer) Read(dst []float32) error {
	if len(dst) == 0 {
		return nil
	}
	if len(dst)*4 > b.size {
		return fmt.Errorf("reading %d bytes from a buffer of %d", len(dst)*4, b.size)
	}
	event, err := b.queue.EnqueueReadBufferFloat32(b.mem, true, 0, dst, nil)
	if err != nil {
		return err
	}
	releaseEvent(event)
	return nil
}

func (b *clBuffer) Release() {
	if b.mem != nil {
		b.mem.Release()
		b.mem = nil
	}
}

type clCommand struct {
	queue  *cl.CommandQueue
	kernel *cl.Kernel
	event  *cl.Event
}

func (c *clCommand) SetBuffer(slot int, b compute.Buffer) error {
	buf, ok := b.(*clBuffer)
	if !ok || buf.mem == nil {
		return fmt.Errorf("slot %d: buffer does not belong to this device", slot)
	}
	return c.kernel.SetArgBuffer(slot, buf.mem)
}

func (c *clCommand) Dispatch(groups, tile core.Size) error {
	global := []int{groups.W * tile.W, groups.H * tile.H}
	local := []int{tile.W, tile.H}
	event, err := c.queue.EnqueueNDRangeKernel(c.kernel, nil, global, local, nil)
	if err != nil {
		return err
	}
	c.event = event
	return nil
}

func (c *clCommand) Wait() error {
	return c.queue.Finish()
}

func (c *clCommand) Release() {
	releaseEvent(c.event)
	c.event = nil
}

func releaseEvent(e *cl.Event) {
	if e != nil {
		e.Release()
	}
}
