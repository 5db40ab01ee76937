package compute_test

import (
	"errors"
	"slices"
	"testing"

	"gpu-life/internal/compute"
	"gpu-life/internal/compute/soft"
	"gpu-life/internal/core"
)

func newEngine(t *testing.T, b *soft.Backend, w, h int, opts ...compute.Option) *compute.Engine {
	t.Helper()
	e, err := compute.New(b, w, h, opts...)
	if err != nil {
		t.Fatalf("New(%dx%d): %v", w, h, err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestStepPreservesLength(t *testing.T) {
	sizes := []core.Size{{W: 1, H: 1}, {W: 5, H: 5}, {W: 31, H: 17}, {W: 33, H: 15}, {W: 100, H: 50}}
	for _, s := range sizes {
		e := newEngine(t, &soft.Backend{}, s.W, s.H)
		cur := core.NewGrid(s.W, s.H, core.NewRNG(3)).Cells()
		next := e.Step(cur)
		if len(next) != len(cur) || len(next) != s.W*s.H {
			t.Fatalf("%dx%d: step returned %d cells from %d", s.W, s.H, len(next), len(cur))
		}
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	e := newEngine(t, &soft.Backend{}, 40, 20)
	cur := core.NewGrid(40, 20, core.NewRNG(11)).Cells()
	before := slices.Clone(cur)
	next := e.Step(cur)
	if !slices.Equal(before, cur) {
		t.Fatal("Step mutated its input")
	}
	if &next[0] == &cur[0] {
		t.Fatal("Step returned the input slice on success")
	}
}

// cellsAt builds a w*h state with the given cells alive.
func cellsAt(w, h int, alive ...[2]int) []float32 {
	cells := make([]float32, w*h)
	for _, p := range alive {
		cells[p[1]*w+p[0]] = core.Alive
	}
	return cells
}

// countNeighbors is a second rendition of the rule used to check the device:
// every live cell adds one to each of its eight wrapped neighbors.
func countNeighbors(cells []float32, w, h int) []float32 {
	counts := make([]int, len(cells))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if cells[y*w+x] == core.Dead {
				continue
			}
			for _, d := range [8][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
				nx, ny := (x+d[0]+w)%w, (y+d[1]+h)%h
				counts[ny*w+nx]++
			}
		}
	}
	next := make([]float32, len(cells))
	for i, n := range counts {
		if n == 3 || (n == 2 && cells[i] != core.Dead) {
			next[i] = core.Alive
		}
	}
	return next
}

func TestStepGliderGoldenStates(t *testing.T) {
	const w, h = 5, 5
	seed := cellsAt(w, h, [2]int{1, 0}, [2]int{2, 1}, [2]int{0, 2}, [2]int{1, 2}, [2]int{2, 2})
	golden := map[int][]float32{
		1: cellsAt(w, h, [2]int{0, 1}, [2]int{2, 1}, [2]int{1, 2}, [2]int{2, 2}, [2]int{1, 3}),
		2: cellsAt(w, h, [2]int{2, 1}, [2]int{0, 2}, [2]int{2, 2}, [2]int{1, 3}, [2]int{2, 3}),
		// Four generations move the glider one cell down and right.
		4: cellsAt(w, h, [2]int{2, 1}, [2]int{3, 2}, [2]int{1, 3}, [2]int{2, 3}, [2]int{3, 3}),
	}

	e := newEngine(t, &soft.Backend{}, w, h)
	for _, n := range []int{1, 2, 4} {
		got := seed
		for i := 0; i < n; i++ {
			got = e.Step(got)
		}
		if !slices.Equal(got, golden[n]) {
			t.Fatalf("after %d steps got %v, want %v", n, got, golden[n])
		}
	}
}

func TestStepBirthNeedsExactlyThree(t *testing.T) {
	const w, h = 6, 6
	// The dead cell at (2,2) has six live neighbors and must stay dead.
	cur := cellsAt(w, h,
		[2]int{1, 1}, [2]int{2, 1}, [2]int{3, 1},
		[2]int{1, 3}, [2]int{2, 3}, [2]int{3, 3})
	want := cellsAt(w, h, [2]int{2, 0}, [2]int{2, 1}, [2]int{2, 3}, [2]int{2, 4})

	e := newEngine(t, &soft.Backend{}, w, h)
	if got := e.Step(cur); !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestStepMatchesNeighborCountOnRaggedGrid(t *testing.T) {
	// 70x37 leaves partial tiles on both axes.
	const w, h = 70, 37
	cur := core.NewGrid(w, h, core.NewRNG(5)).Cells()
	e := newEngine(t, &soft.Backend{Workers: 4}, w, h)
	ref := cur
	for i := 0; i < 6; i++ {
		cur = e.Step(cur)
		ref = countNeighbors(ref, w, h)
		if !slices.Equal(cur, ref) {
			t.Fatalf("engine diverged from the neighbor count at step %d", i+1)
		}
	}
}

func TestStepOverDispatches(t *testing.T) {
	b := &soft.Backend{}
	e := newEngine(t, b, 100, 50)
	if got := e.Geometry().Groups; got != (core.Size{W: 4, H: 4}) {
		t.Fatalf("groups = %+v, want 4x4", got)
	}
	e.Step(make([]float32, 100*50))
	if b.Threads() != 128*64 {
		t.Fatalf("launched %d threads, want %d", b.Threads(), 128*64)
	}
}

func TestStepCommandFailureReturnsInput(t *testing.T) {
	b := &soft.Backend{}
	var drops []error
	e := newEngine(t, b, 8, 8, compute.WithDropHandler(func(err error) { drops = append(drops, err) }))
	cur := core.NewGrid(8, 8, core.NewRNG(1)).Cells()

	b.FailCommands = true
	next := e.Step(cur)
	if &next[0] != &cur[0] {
		t.Fatal("failed step did not return its input")
	}
	if len(drops) != 1 || e.Dropped() != 1 {
		t.Fatalf("drops = %d, Dropped() = %d, want 1", len(drops), e.Dropped())
	}

	b.FailCommands = false
	if next := e.Step(cur); &next[0] == &cur[0] {
		t.Fatal("engine did not recover once commands succeed")
	}
}

func TestStepWrongLengthReturnsInput(t *testing.T) {
	e := newEngine(t, &soft.Backend{}, 4, 4)
	short := make([]float32, 15)
	if next := e.Step(short); len(next) != 15 || &next[0] != &short[0] {
		t.Fatal("short state was not returned unchanged")
	}
	if e.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", e.Dropped())
	}
}

func TestNewFailures(t *testing.T) {
	tests := []struct {
		name    string
		backend *soft.Backend
		w, h    int
		want    error
	}{
		{"no device", &soft.Backend{Unavailable: true}, 10, 10, compute.ErrDeviceUnavailable},
		{"small groups", &soft.Backend{MaxThreads: 256}, 10, 10, compute.ErrDeviceUnavailable},
		{"small program groups", &soft.Backend{ProgramMaxThreads: 256}, 10, 10, compute.ErrDeviceUnavailable},
		{"missing kernel", &soft.Backend{Kernels: map[string]soft.Kernel{"other": soft.CellStep}}, 10, 10, compute.ErrKernelMissing},
		{"state too large", &soft.Backend{MaxBufferBytes: 100 * 4}, 20, 20, compute.ErrAllocationFailed},
		{"empty grid", &soft.Backend{}, 0, 10, compute.ErrAllocationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := compute.New(tt.backend, tt.w, tt.h)
			if e != nil {
				t.Fatal("failed construction returned an engine")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ee *compute.EngineError
			if !errors.As(err, &ee) {
				t.Fatalf("err %T is not an *EngineError", err)
			}
			if tt.backend.LiveBuffers() != 0 {
				t.Fatalf("%d buffers leaked", tt.backend.LiveBuffers())
			}
		})
	}
}

func TestNilBackend(t *testing.T) {
	if _, err := compute.New(nil, 4, 4); !errors.Is(err, compute.ErrDeviceUnavailable) {
		t.Fatalf("err = %v, want device unavailable", err)
	}
}

func TestCloseReleasesBuffers(t *testing.T) {
	b := &soft.Backend{}
	e, err := compute.New(b, 16, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.LiveBuffers() != 3 {
		t.Fatalf("LiveBuffers = %d, want 3", b.LiveBuffers())
	}
	e.Close()
	e.Close()
	if b.LiveBuffers() != 0 {
		t.Fatalf("LiveBuffers = %d after Close, want 0", b.LiveBuffers())
	}
	cur := make([]float32, 256)
	if next := e.Step(cur); &next[0] != &cur[0] {
		t.Fatal("closed engine stepped")
	}
}

func TestEngineErrorMessage(t *testing.T) {
	err := &compute.EngineError{Kind: compute.KernelMissing, Err: errors.New("boom")}
	if got := err.Error(); got != "compute: kernel missing: boom" {
		t.Fatalf("Error() = %q", got)
	}
	if errors.Is(err, compute.ErrAllocationFailed) {
		t.Fatal("kernel error matched allocation sentinel")
	}
}

func TestBackendRegistry(t *testing.T) {
	f, ok := compute.Backends()["soft"]
	if !ok {
		t.Fatal("soft backend not registered")
	}
	if name := f(compute.BackendOptions{}).Name(); name != "soft" {
		t.Fatalf("registered backend named %q", name)
	}
	names := compute.BackendNames()
	if !slices.Contains(names, "soft") || !slices.IsSorted(names) {
		t.Fatalf("BackendNames() = %v", names)
	}
}
