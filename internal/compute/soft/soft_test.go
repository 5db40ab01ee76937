package soft

import (
	"slices"
	"sync"
	"testing"

	"gpu-life/internal/compute"
	"gpu-life/internal/core"
)

func openDevice(t *testing.T, b *Backend) compute.Device {
	t.Helper()
	dev, err := b.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(dev.Release)
	return dev
}

func TestDispatchRunsEveryThread(t *testing.T) {
	var mu sync.Mutex
	seen := map[[2]int]int{}
	b := &Backend{Workers: 3, Kernels: map[string]Kernel{
		"mark": func(_ [][]float32, x, y int) {
			mu.Lock()
			seen[[2]int{x, y}]++
			mu.Unlock()
		},
	}}
	dev := openDevice(t, b)
	prog, err := dev.NewProgram("mark")
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	cmd, err := dev.NewCommand(prog)
	if err != nil {
		t.Fatalf("NewCommand: %v", err)
	}
	defer cmd.Release()
	if err := cmd.Dispatch(core.Size{W: 3, H: 2}, core.Size{W: 4, H: 2}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := cmd.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if len(seen) != 12*4 {
		t.Fatalf("ran %d distinct threads, want %d", len(seen), 12*4)
	}
	for coord, n := range seen {
		if n != 1 {
			t.Fatalf("thread %v ran %d times", coord, n)
		}
	}
	if b.Threads() != 48 {
		t.Fatalf("Threads() = %d, want 48", b.Threads())
	}
}

func TestKernelFaultSurfacesOnWait(t *testing.T) {
	b := &Backend{Kernels: map[string]Kernel{
		"oob": func(args [][]float32, x, y int) {
			args[0][x+y*1000] = 1
		},
	}}
	dev := openDevice(t, b)
	prog, _ := dev.NewProgram("oob")
	buf, err := dev.NewBuffer(16)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer buf.Release()
	cmd, _ := dev.NewCommand(prog)
	defer cmd.Release()
	if err := cmd.SetBuffer(0, buf); err != nil {
		t.Fatalf("SetBuffer: %v", err)
	}
	if err := cmd.Dispatch(core.Size{W: 1, H: 1}, core.Size{W: 2, H: 2}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := cmd.Wait(); err == nil {
		t.Fatal("out of range write did not fail the command")
	}
}

func TestBufferLimitsAndAccounting(t *testing.T) {
	b := &Backend{MaxBufferBytes: 64}
	dev := openDevice(t, b)

	if _, err := dev.NewBuffer(68); err == nil {
		t.Fatal("allocation above the limit succeeded")
	}
	if _, err := dev.NewBuffer(6); err == nil {
		t.Fatal("allocation of a partial float succeeded")
	}
	buf, err := dev.NewBuffer(64)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if b.LiveBuffers() != 1 {
		t.Fatalf("LiveBuffers = %d, want 1", b.LiveBuffers())
	}

	in := []float32{1, 0, 1, 1}
	if err := buf.Write(in); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := make([]float32, 4)
	if err := buf.Read(out); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !slices.Equal(in, out) {
		t.Fatalf("read back %v, want %v", out, in)
	}
	if err := buf.Write(make([]float32, 17)); err == nil {
		t.Fatal("oversized write succeeded")
	}

	buf.Release()
	buf.Release()
	if b.LiveBuffers() != 0 {
		t.Fatalf("LiveBuffers = %d after release, want 0", b.LiveBuffers())
	}
}

func TestMissingProgramAndUnavailable(t *testing.T) {
	dev := openDevice(t, &Backend{})
	if _, err := dev.NewProgram("nope"); err == nil {
		t.Fatal("unknown program compiled")
	}
	if _, err := (&Backend{Unavailable: true}).Open(); err == nil {
		t.Fatal("disabled backend opened")
	}
}

func TestCellStepIgnoresOutOfBoundsThreads(t *testing.T) {
	in := []float32{0, 1, 0, 0, 1, 0, 0, 1, 0}
	out := []float32{9, 9, 9, 9, 9, 9, 9, 9, 9}
	args := [][]float32{in, out, {3, 3}}
	CellStep(args, 3, 0)
	CellStep(args, 0, 3)
	CellStep(args, 40, 40)
	for i, v := range out {
		if v != 9 {
			t.Fatalf("out of bounds thread wrote cell %d", i)
		}
	}
	CellStep(args, 1, 1)
	if out[4] != 1 {
		t.Fatalf("center of a blinker = %v, want 1", out[4])
	}
}
