// Package opencl runs the step program on an OpenCL device. The real
// implementation needs cgo and an OpenCL ICD loader and is compiled with the
// opencl build tag; without it the backend reports no device.
package opencl

import "gpu-life/internal/compute"

// Backend opens the first OpenCL GPU, falling back to an OpenCL CPU device
// when AllowCPU is set.
type Backend struct {
	AllowCPU bool
}

var _ compute.Backend = (*Backend)(nil)

// Name identifies the backend.
func (b *Backend) Name() string { return "opencl" }

func init() {
	compute.RegisterBackend("opencl", func(compute.BackendOptions) compute.Backend {
		return &Backend{AllowCPU: true}
	})
}
