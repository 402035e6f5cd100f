package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider picks a value in [Min, Max] by clicking or dragging along a bar
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
	// Step rounds the value to a multiple of Step above Min; 0 keeps it continuous
	Step float64
}

// NewSlider creates a slider, value is clamped to the range
func NewSlider(x, y, width float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		Label: label,
		Min:   min,
		Max:   max,
		X:     x,
		Y:     y,
		W:     width,
		H:     10,
	}
	s.Set(value)
	return s
}

// Set stores v, clamped and snapped to Step
func (s *Slider) Set(v float64) {
	if s.Step > 0 {
		v = s.Min + float64(int((v-s.Min)/s.Step+0.5))*s.Step
	}
	s.Value = max(s.Min, min(s.Max, v))
}

// Ratio is the position of Value along the bar, in [0, 1]
func (s *Slider) Ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) contains(mx, my int) bool {
	return inRect(s.X, s.Y, s.W, s.H, mx, my)
}

// setFromCursor maps a cursor x inside the bar to a value
func (s *Slider) setFromCursor(mx int) {
	p := (float64(mx) - s.X) / s.W
	s.Set(s.Min + p*(s.Max-s.Min))
}

// Update checks for mouse interaction
func (s *Slider) Update() {
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && s.contains(mx, my) {
		s.setFromCursor(mx)
	}
}

// Draw renders the bar and the current value to its right
func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W-50), float32(s.H), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32((s.W-50)*s.Ratio()), float32(s.H), color.RGBA{R: 90, G: 170, B: 220, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.4g", s.Value), int(s.X+s.W-45), int(s.Y-3))
}
