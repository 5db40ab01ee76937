//go:build ebiten

package ui

import (
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// Overlay draws the alert box and the key help on top of the grid.
type Overlay struct {
	Alert

	showHelp bool
	pixel    *ebiten.Image
}

// NewOverlay constructs a new overlay instance.
func NewOverlay() *Overlay {
	o := &Overlay{}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update dismisses an active alert on any click, touch or key press. It
// reports whether the input was consumed.
func (o *Overlay) Update() bool {
	if inpututil.IsKeyJustPressed(ebiten.KeySlash) {
		o.showHelp = !o.showHelp
	}
	if !o.Active() {
		return false
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
		len(inpututil.AppendJustPressedTouchIDs(nil)) > 0 ||
		len(inpututil.AppendJustPressedKeys(nil)) > 0 {
		o.Dismiss()
	}
	return true
}

// Draw renders the overlay onto the provided screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	if o.showHelp {
		o.drawLines(screen, helpLines, 12, screen.Bounds().Dy()-12-len(helpLines)*lineStep-2*boxPadding, false)
	}
	if !o.Active() {
		return
	}
	lines := strings.Split(o.Message()+"\n\nPress any key to continue.", "\n")
	w, h := boxSize(lines)
	x := (screen.Bounds().Dx() - w) / 2
	y := (screen.Bounds().Dy() - h) / 2
	o.drawLines(screen, lines, x, y, true)
}

func (o *Overlay) drawLines(screen *ebiten.Image, lines []string, x, y int, framed bool) {
	w, h := boxSize(lines)
	bg := color.RGBA{R: 10, G: 10, B: 14, A: 200}
	if framed {
		o.fillRect(screen, x-2, y-2, w+4, h+4, color.RGBA{R: 200, G: 60, B: 60, A: 255})
		bg = color.RGBA{R: 24, G: 24, B: 30, A: 255}
	}
	o.fillRect(screen, x, y, w, h, bg)
	face := basicfont.Face7x13
	for i, line := range lines {
		text.Draw(screen, line, face, x+boxPadding, y+boxPadding+(i+1)*lineStep-3, color.White)
	}
}

func (o *Overlay) fillRect(screen *ebiten.Image, x, y, w, h int, c color.RGBA) {
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w), float64(h))
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	screen.DrawImage(o.pixel, op)
}

func boxSize(lines []string) (int, int) {
	face := basicfont.Face7x13
	w := 0
	for _, line := range lines {
		if d := text.BoundString(face, line).Dx(); d > w {
			w = d
		}
	}
	return w + 2*boxPadding, len(lines)*lineStep + 2*boxPadding
}

var helpLines = []string{
	"space  pause / resume",
	"n      single step",
	"r      reseed",
	"h      toggle panel",
	"drag   paint cells",
	"/      toggle this help",
	"q/esc  quit",
}

const (
	boxPadding = 10
	lineStep   = 15
)
