//go:build !opencl

package opencl

import (
	"errors"

	"gpu-life/internal/compute"
)

// Open always fails: this binary was built without OpenCL support.
func (b *Backend) Open() (compute.Device, error) {
	return nil, errors.New("built without the opencl tag; rebuild with `-tags opencl` or use the soft backend")
}
