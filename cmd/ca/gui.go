//go:build ebiten

package main

import (
	"errors"

	"gpu-life/internal/app"
	"gpu-life/internal/config"
	"gpu-life/internal/sim"

	"github.com/hajimehoshi/ebiten/v2"
)

func runGUI(cfg *config.Config, session *sim.Session) error {
	game := app.New(session, cfg.Grid.CellSize)
	size := session.Grid().Size()

	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetTPS(cfg.Simulation.FrameRate)
	ebiten.SetWindowSize(size.W*cfg.Grid.CellSize, size.H*cfg.Grid.CellSize)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
