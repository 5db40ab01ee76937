package compute

import "fmt"

// ErrorKind classifies engine construction failures.
type ErrorKind int

const (
	// DeviceUnavailable means no compatible compute device was found.
	DeviceUnavailable ErrorKind = iota + 1
	// KernelMissing means the step program could not be located or compiled.
	KernelMissing
	// AllocationFailed means a device buffer could not be allocated.
	AllocationFailed
)

func (k ErrorKind) String() string {
	switch k {
	case DeviceUnavailable:
		return "device unavailable"
	case KernelMissing:
		return "kernel missing"
	case AllocationFailed:
		return "allocation failed"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// EngineError is returned by New. It is the only error type the engine
// produces; Step never fails loudly.
type EngineError struct {
	Kind ErrorKind
	Err  error
}

// Sentinels for errors.Is. They match any EngineError of the same kind.
var (
	ErrDeviceUnavailable = &EngineError{Kind: DeviceUnavailable}
	ErrKernelMissing     = &EngineError{Kind: KernelMissing}
	ErrAllocationFailed  = &EngineError{Kind: AllocationFailed}
)

func newError(kind ErrorKind, err error) *EngineError {
	return &EngineError{Kind: kind, Err: err}
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return "compute: " + e.Kind.String()
	}
	return fmt.Sprintf("compute: %s: %v", e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Err == nil && t.Kind == e.Kind
}
