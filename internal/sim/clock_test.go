package sim

import (
	"context"
	"slices"
	"testing"
	"time"

	"gpu-life/internal/core"
	"gpu-life/internal/telemetry"
)

// invert flips every cell, so each step is visible.
type invert struct{ calls int }

func (s *invert) Step(cur []float32) []float32 {
	s.calls++
	out := make([]float32, len(cur))
	for i, v := range cur {
		out[i] = 1 - v
	}
	return out
}

func seededGrid() *core.Grid {
	return core.NewGrid(6, 4, core.NewRNG(7))
}

func TestTickSteps(t *testing.T) {
	g := seededGrid()
	before := slices.Clone(g.Cells())
	st := &invert{}
	c := NewClock(30, st, g)

	if !c.Tick(true) {
		t.Fatal("active tick did not step")
	}
	if st.calls != 1 {
		t.Fatalf("stepper called %d times, want 1", st.calls)
	}
	for i, v := range g.Cells() {
		if v != 1-before[i] {
			t.Fatalf("cell %d = %v, want %v", i, v, 1-before[i])
		}
	}
}

func TestInactiveTickLeavesGrid(t *testing.T) {
	g := seededGrid()
	before := slices.Clone(g.Cells())
	st := &invert{}
	col := telemetry.NewCollector(4)
	c := NewClock(30, st, g)
	c.SetCollector(col)

	if c.Tick(false) {
		t.Fatal("inactive tick stepped")
	}
	if st.calls != 0 {
		t.Fatal("stepper called while inactive")
	}
	if !slices.Equal(g.Cells(), before) {
		t.Fatal("grid changed while inactive")
	}
	if s := col.Stats(); s.Skipped != 1 || s.Steps != 0 {
		t.Fatalf("stats = %+v, want one skip", s)
	}
}

func TestTickWithoutStepperLeavesGrid(t *testing.T) {
	g := seededGrid()
	before := slices.Clone(g.Cells())
	c := NewClock(30, nil, g)
	for i := 0; i < 3; i++ {
		if c.Tick(true) {
			t.Fatal("tick stepped without a stepper")
		}
	}
	if !slices.Equal(g.Cells(), before) {
		t.Fatal("grid changed without a stepper")
	}
}

type shrink struct{}

func (shrink) Step(cur []float32) []float32 { return cur[:len(cur)-1] }

func TestTickRejectsWrongLength(t *testing.T) {
	g := seededGrid()
	c := NewClock(30, shrink{}, g)
	if c.Tick(true) {
		t.Fatal("accepted a short generation")
	}
	if len(g.Cells()) != 24 {
		t.Fatalf("grid length = %d, want 24", len(g.Cells()))
	}
}

// stall hands back its input, as the engine does when a step is dropped.
type stall struct{}

func (stall) Step(cur []float32) []float32 { return cur }

func TestTickCountsReturnedInputAsDrop(t *testing.T) {
	g := seededGrid()
	before := slices.Clone(g.Cells())
	col := telemetry.NewCollector(4)
	c := NewClock(30, stall{}, g)
	c.SetCollector(col)

	if c.Tick(true) {
		t.Fatal("dropped step reported as a step")
	}
	if !slices.Equal(g.Cells(), before) {
		t.Fatal("grid changed on a dropped step")
	}
	if s := col.Stats(); s.Steps != 0 || s.Dropped != 1 || s.Ticks != 1 {
		t.Fatalf("stats = %+v, want one drop", s)
	}
}

func TestAdvanceFollowsTimer(t *testing.T) {
	g := seededGrid()
	st := &invert{}
	c := NewClock(10, st, g)
	// The first frame always ticks; an immediate second frame does not.
	if !c.Advance(true) {
		t.Fatal("first frame did not tick")
	}
	if c.Advance(true) {
		t.Fatal("second frame ticked before the interval elapsed")
	}
	if st.calls != 1 {
		t.Fatalf("stepper called %d times, want 1", st.calls)
	}
}

func TestAfterTickHook(t *testing.T) {
	var got []bool
	c := NewClock(30, &invert{}, seededGrid())
	c.AfterTick = func(stepped bool) { got = append(got, stepped) }
	c.Tick(true)
	c.Tick(false)
	if !slices.Equal(got, []bool{true, false}) {
		t.Fatalf("hook saw %v", got)
	}
}

func TestRunStopsAfterMaxTicks(t *testing.T) {
	st := &invert{}
	c := NewClock(1000, st, seededGrid())
	n, err := c.Run(context.Background(), nil, 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 5 || st.calls != 5 {
		t.Fatalf("fired %d ticks, stepped %d, want 5/5", n, st.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st := &invert{}
	c := NewClock(1000, st, seededGrid())
	_, err := c.Run(ctx, func() bool { return false }, 0)
	if err != context.DeadlineExceeded {
		t.Fatalf("Run error = %v, want deadline exceeded", err)
	}
	if st.calls != 0 {
		t.Fatal("inactive run stepped")
	}
}
