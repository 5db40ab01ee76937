package core

import (
	"slices"
	"testing"
)

func TestNewGridBinaryCells(t *testing.T) {
	sizes := []Size{{1, 1}, {1, 7}, {5, 5}, {33, 17}, {100, 50}}
	for _, s := range sizes {
		g := NewGrid(s.W, s.H, NewRNG(7))
		if got := len(g.Cells()); got != s.W*s.H {
			t.Fatalf("%dx%d grid has %d cells", s.W, s.H, got)
		}
		for i, v := range g.Cells() {
			if v != Dead && v != Alive {
				t.Fatalf("%dx%d cell %d = %v, want 0 or 1", s.W, s.H, i, v)
			}
		}
	}
}

func TestNewGridSeeded(t *testing.T) {
	a := NewGrid(32, 24, NewRNG(99))
	b := NewGrid(32, 24, NewRNG(99))
	if !slices.Equal(a.Cells(), b.Cells()) {
		t.Fatal("grids with the same seed differ")
	}
	pop := a.Population()
	if pop == 0 || pop == len(a.Cells()) {
		t.Fatalf("population %d of %d does not look random", pop, len(a.Cells()))
	}
}

func TestNewGridClampsDimensions(t *testing.T) {
	g := NewGrid(0, -3, nil)
	if g.Size() != (Size{W: 1, H: 1}) {
		t.Fatalf("size = %+v, want 1x1", g.Size())
	}
}

func TestReplaceKeepsLength(t *testing.T) {
	g := NewGrid(4, 3, nil)
	if err := g.Replace(make([]float32, 11)); err == nil {
		t.Fatal("Replace accepted a short slice")
	}
	if len(g.Cells()) != 12 {
		t.Fatalf("rejected Replace changed length to %d", len(g.Cells()))
	}
	next := make([]float32, 12)
	next[5] = Alive
	if err := g.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if g.At(1, 1) != Alive {
		t.Fatal("Replace did not adopt the new generation")
	}
}
