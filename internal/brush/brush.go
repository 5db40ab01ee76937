// Package brush paints live cells under a pointer.
package brush

import (
	"fmt"
	"math"

	"gpu-life/internal/core"
)

// DefaultRadius gives a 5x5 brush.
const DefaultRadius = 2

// Edge selects what happens when the brush window leaves the grid.
type Edge int

const (
	// EdgeAbandon stops the sweep at the first cell outside the grid. Cells
	// already painted by that sample stay painted.
	EdgeAbandon Edge = iota
	// EdgeClip skips cells outside the grid and paints the rest.
	EdgeClip
)

func (e Edge) String() string {
	switch e {
	case EdgeAbandon:
		return "abandon"
	case EdgeClip:
		return "clip"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// ParseEdge maps a configuration value to an Edge.
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "abandon", "":
		return EdgeAbandon, nil
	case "clip":
		return EdgeClip, nil
	default:
		return 0, fmt.Errorf("unknown brush edge policy %q", s)
	}
}

// Editor paints a square window of (2*Radius+1)^2 cells per pointer sample.
type Editor struct {
	Radius int
	Edge   Edge
}

// New returns an editor with the default radius and the abandon policy.
func New() Editor {
	return Editor{Radius: DefaultRadius, Edge: EdgeAbandon}
}

// Cell maps a pointer position inside a view of the given extent to grid
// coordinates. ok is false when the extent or the position is unusable.
func Cell(g *core.Grid, pointer, bounds core.Vec) (x, y int, ok bool) {
	if !(bounds.X > 0 && bounds.Y > 0) || math.IsInf(bounds.X, 0) || math.IsInf(bounds.Y, 0) {
		return 0, 0, false
	}
	nx, ny := pointer.X/bounds.X, pointer.Y/bounds.Y
	fx, fy := math.Floor(nx*float64(g.W)), math.Floor(ny*float64(g.H))
	// Keep far-off samples well inside int range; they paint nothing anyway.
	const limit = 1 << 30
	if math.IsNaN(fx) || math.IsNaN(fy) || math.Abs(fx) > limit || math.Abs(fy) > limit {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// Apply paints the window around the pointer and returns the number of cells
// set alive. The sweep runs column by column (dx outer, dy inner).
func (e Editor) Apply(g *core.Grid, pointer, bounds core.Vec) int {
	gx, gy, ok := Cell(g, pointer, bounds)
	if !ok {
		return 0
	}
	r := e.Radius
	if r < 0 {
		r = 0
	}
	cells := g.Cells()
	written := 0
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			x, y := gx+dx, gy+dy
			if !g.Contains(x, y) {
				if e.Edge == EdgeAbandon {
					return written
				}
				continue
			}
			cells[g.Index(x, y)] = core.Alive
			written++
		}
	}
	return written
}
