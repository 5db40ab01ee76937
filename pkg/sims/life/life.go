// Package life is the host-side reference for the cell update rule executed
// by the compute program: Conway's Game of Life (B3/S23) with toroidal
// wrapping.
package life

import "gpu-life/internal/core"

// NextCell returns the next value of cell (x, y).
func NextCell(cells []float32, w, h, x, y int) float32 {
	neighbors := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := (x + dx + w) % w
			ny := (y + dy + h) % h
			if cells[ny*w+nx] != core.Dead {
				neighbors++
			}
		}
	}
	alive := cells[y*w+x] != core.Dead
	if (alive && (neighbors == 2 || neighbors == 3)) || (!alive && neighbors == 3) {
		return core.Alive
	}
	return core.Dead
}

// Step returns the generation following cells in a new slice.
func Step(cells []float32, w, h int) []float32 {
	next := make([]float32, len(cells))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			next[y*w+x] = NextCell(cells, w, h, x, y)
		}
	}
	return next
}
