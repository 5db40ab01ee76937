//go:build !ebiten

package ui

import "gpu-life/internal/core"

// ParameterSource is what the HUD reads and adjusts.
type ParameterSource interface {
	Parameters() core.ParameterSnapshot
	ParameterControls() []core.ParameterControl
	core.IntParameterSetter
}

// HUD is a no-op placeholder for headless builds.
type HUD struct{}

// NewHUD returns nil in the headless build.
func NewHUD(ParameterSource, int) *HUD { return nil }

// Toggle is a no-op in the headless build.
func (h *HUD) Toggle() {}

// Visible always reports false in the headless build.
func (h *HUD) Visible() bool { return false }

// Contains always reports false in the headless build.
func (h *HUD) Contains(int, int) bool { return false }

// Update is a no-op in the headless build.
func (h *HUD) Update(int) {}

// Draw is a no-op in the headless build.
func (h *HUD) Draw(any) {}
