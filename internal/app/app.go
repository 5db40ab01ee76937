//go:build ebiten

package app

import (
	"fmt"
	"image/color"

	"gpu-life/internal/core"
	"gpu-life/internal/render"
	"gpu-life/internal/sim"
	"gpu-life/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const hudWidth = 220

// Game adapts a simulation session to the ebiten.Game interface.
type Game struct {
	session *sim.Session
	painter *render.GridPainter
	overlay *ui.Overlay
	hud     *ui.HUD

	onColor  color.Color
	offColor color.Color

	scale    int
	paused   bool
	tickOnce bool
	touches  []ebiten.TouchID
}

// New constructs a Game for the provided session. A construction failure
// recorded by the session is shown once as an alert.
func New(s *sim.Session, scale int) *Game {
	if scale <= 0 {
		scale = 1
	}
	size := s.Grid().Size()
	g := &Game{
		session:  s,
		painter:  render.NewGridPainter(size.W, size.H),
		overlay:  ui.NewOverlay(),
		hud:      ui.NewHUD(s, hudWidth),
		onColor:  color.White,
		offColor: color.Black,
		scale:    scale,
	}
	if err := s.TakeError(); err != nil {
		g.overlay.Show(sim.ErrorMessage)
	}
	return g
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if g.overlay.Update() {
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.session.Reseed()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.hud.Toggle()
	}

	w, _ := g.viewSize()
	g.hud.Update(w)
	g.paint()

	if g.tickOnce {
		g.session.Tick(true)
		g.tickOnce = false
		return nil
	}
	g.session.Advance(ebiten.IsFocused() && !g.paused)
	return nil
}

// paint feeds the left mouse button and every touch to the brush.
func (g *Game) paint() {
	w, h := g.viewSize()
	bounds := core.Vec{X: float64(w), Y: float64(h)}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if !g.hud.Contains(x, y) {
			g.session.Paint(core.Vec{X: float64(x), Y: float64(y)}, bounds)
		}
	}
	g.touches = ebiten.AppendTouchIDs(g.touches[:0])
	for _, id := range g.touches {
		x, y := ebiten.TouchPosition(id)
		if g.hud.Contains(x, y) {
			continue
		}
		g.session.Paint(core.Vec{X: float64(x), Y: float64(y)}, bounds)
	}
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.Blit(screen, g.session.Grid().Cells(), g.onColor, g.offColor, g.scale)
	g.hud.Draw(screen)
	g.drawStatus(screen)
	g.overlay.Draw(screen)
}

// drawStatus prints the frame rate and run state in the bottom-left corner.
func (g *Game) drawStatus(screen *ebiten.Image) {
	state := "running"
	if g.paused {
		state = "paused"
	}
	_, h := g.viewSize()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.0f fps  %s", ebiten.ActualFPS(), state), 4, h-16)
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.viewSize()
}

func (g *Game) viewSize() (int, int) {
	s := g.session.Grid().Size()
	return s.W * g.scale, s.H * g.scale
}
