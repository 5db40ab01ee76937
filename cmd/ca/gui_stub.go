//go:build !ebiten

package main

import (
	"errors"

	"gpu-life/internal/config"
	"gpu-life/internal/sim"
)

func runGUI(*config.Config, *sim.Session) error {
	return errors.New("the GUI requires the ebiten build tag: re-run with `go run -tags ebiten ./cmd/ca`, or pass -headless")
}
