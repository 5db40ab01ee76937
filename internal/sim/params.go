package sim

import (
	"strconv"

	"gpu-life/internal/core"
)

// Parameter keys exposed by a Session.
const (
	ParamTPS         = "tps"
	ParamBrushRadius = "brush_radius"
)

// MaxBrushRadius bounds the radius adjustable from the HUD.
const MaxBrushRadius = 16

// MaxTPS bounds the tick rate adjustable from the HUD.
const MaxTPS = 240

// ParameterControls lists the values the HUD may adjust.
func (s *Session) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: ParamTPS, Label: "Ticks/s", Step: 5, Min: 1, Max: MaxTPS},
		{Key: ParamBrushRadius, Label: "Brush radius", Step: 1, Min: 0, Max: MaxBrushRadius},
	}
}

// SetIntParameter implements core.IntParameterSetter.
func (s *Session) SetIntParameter(key string, value int) bool {
	for _, ctrl := range s.ParameterControls() {
		if ctrl.Key != key {
			continue
		}
		value = ctrl.Clamp(value)
		switch key {
		case ParamTPS:
			s.tps = value
			s.clock.SetTPS(value)
		case ParamBrushRadius:
			s.brush.Radius = value
		}
		return true
	}
	return false
}

// Parameters reports the session state for display.
func (s *Session) Parameters() core.ParameterSnapshot {
	device := "unavailable"
	groups := "-"
	if s.engine != nil {
		device = s.engine.DeviceName()
		g := s.engine.Geometry().Groups
		groups = strconv.Itoa(g.W) + "x" + strconv.Itoa(g.H)
	}
	st := s.stats.Stats()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: "Grid", Params: []core.Parameter{
			{Key: "size", Label: "Size", Type: core.ParamTypeText, Value: strconv.Itoa(s.grid.W) + "x" + strconv.Itoa(s.grid.H)},
			{Key: "population", Label: "Alive", Type: core.ParamTypeInt, Value: strconv.Itoa(s.grid.Population())},
		}},
		{Name: "Compute", Params: []core.Parameter{
			{Key: "device", Label: "Device", Type: core.ParamTypeText, Value: device},
			{Key: "groups", Label: "Groups", Type: core.ParamTypeText, Value: groups},
			{Key: "dropped", Label: "Dropped", Type: core.ParamTypeInt, Value: strconv.FormatInt(st.Dropped, 10)},
			{Key: "step_us", Label: "Step us", Type: core.ParamTypeInt, Value: strconv.Itoa(int(st.MeanStepUS))},
		}},
		{Name: "Controls", Params: []core.Parameter{
			{Key: ParamTPS, Label: "Ticks/s", Type: core.ParamTypeInt, Value: strconv.Itoa(s.tps)},
			{Key: ParamBrushRadius, Label: "Brush radius", Type: core.ParamTypeInt, Value: strconv.Itoa(s.brush.Radius)},
			{Key: "brush_edge", Label: "Brush edge", Type: core.ParamTypeText, Value: s.brush.Edge.String()},
		}},
	}}
}
