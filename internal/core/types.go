package core

// Size describes the dimensions of a simulation grid or a dispatch tile.
type Size struct {
	W int
	H int
}

// Area returns W*H.
func (s Size) Area() int { return s.W * s.H }

// Vec is a point or extent in view coordinates.
type Vec struct {
	X float64
	Y float64
}

// Cell values, stored as float32 to match the device buffers.
const (
	Dead  float32 = 0
	Alive float32 = 1
)
