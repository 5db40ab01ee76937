//go:build !ebiten

package ui

// Overlay is a no-op placeholder used when the ebiten build tag is absent.
type Overlay struct {
	Alert
}

// NewOverlay constructs a stub overlay.
func NewOverlay() *Overlay { return &Overlay{} }

// Update reports whether an alert is pending.
func (o *Overlay) Update() bool { return o.Active() }

// Draw is a no-op placeholder.
func (o *Overlay) Draw(any) {}
