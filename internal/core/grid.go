package core

import "fmt"

// Grid stores the binary cell values of a simulation in row-major order.
// Its dimensions are fixed for its whole lifetime.
type Grid struct {
	W, H int
	data []float32
}

// NewGrid allocates a w*h grid and randomizes every cell to dead or alive with
// equal probability. Non-positive dimensions are clamped to 1.
func NewGrid(w, h int, rng *RNG) *Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	g := &Grid{W: w, H: h, data: make([]float32, w*h)}
	if rng != nil {
		g.Randomize(rng)
	}
	return g
}

// Size returns the grid dimensions.
func (g *Grid) Size() Size { return Size{W: g.W, H: g.H} }

// Cells exposes the backing slice so callers can read/write values directly.
func (g *Grid) Cells() []float32 { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// Contains reports whether (x, y) lies inside the grid.
func (g *Grid) Contains(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// Set stores v at (x, y).
func (g *Grid) Set(x, y int, v float32) { g.data[g.Index(x, y)] = v }

// At returns the value at (x, y).
func (g *Grid) At(x, y int) float32 { return g.data[g.Index(x, y)] }

// Replace swaps in a whole new generation. The slice is adopted, not copied.
func (g *Grid) Replace(next []float32) error {
	if len(next) != len(g.data) {
		return fmt.Errorf("grid: replacement has %d cells, want %d", len(next), len(g.data))
	}
	g.data = next
	return nil
}

// Randomize re-rolls every cell.
func (g *Grid) Randomize(rng *RNG) {
	FillBinary(rng.Source(), g.data)
}

// Clear kills every cell.
func (g *Grid) Clear() {
	for i := range g.data {
		g.data[i] = Dead
	}
}

// Population counts the live cells.
func (g *Grid) Population() int {
	n := 0
	for _, v := range g.data {
		if v != Dead {
			n++
		}
	}
	return n
}
