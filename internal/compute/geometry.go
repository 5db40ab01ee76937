package compute

import "gpu-life/internal/core"

// Tile is the thread-group size used for every dispatch. 32x16 = 512 threads
// is within the per-group limit of every device the engine accepts.
var Tile = core.Size{W: 32, H: 16}

// Geometry is the thread-group layout of one dispatch.
type Geometry struct {
	Tile   core.Size
	Groups core.Size
}

// DispatchGeometry lays out groups for a w*h grid. It always adds one extra
// group per axis, so the dispatch overshoots the grid edge and the program
// must ignore threads outside it.
func DispatchGeometry(w, h int, tile core.Size) Geometry {
	return Geometry{
		Tile:   tile,
		Groups: core.Size{W: w/tile.W + 1, H: h/tile.H + 1},
	}
}

// Covered is the area, in cells, spanned by all dispatched threads.
func (g Geometry) Covered() core.Size {
	return core.Size{W: g.Groups.W * g.Tile.W, H: g.Groups.H * g.Tile.H}
}

// Threads is the total number of threads launched.
func (g Geometry) Threads() int { return g.Covered().Area() }
