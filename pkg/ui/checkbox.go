package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox is a toggle for a boolean display option
type Checkbox struct {
	Label string
	Value bool
	X, Y  float64
	Size  float64
	latch
}

// NewCheckbox creates a new checkbox instance
func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{
		Label: label,
		Value: value,
		X:     x,
		Y:     y,
		Size:  14,
	}
}

func (c *Checkbox) contains(mx, my int) bool {
	return inRect(c.X, c.Y, c.Size, c.Size, mx, my)
}

// press toggles once per press, however many frames the button is held
func (c *Checkbox) press(inside, down bool) {
	if c.fire(inside, down) {
		c.Value = !c.Value
	}
}

func (c *Checkbox) Update() {
	mx, my := ebiten.CursorPosition()
	c.press(c.contains(mx, my), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	x, y, side := float32(c.X), float32(c.Y), float32(c.Size)
	vector.StrokeRect(screen, x, y, side, side, 2, outlineColor, true)
	if c.Value {
		vector.FillRect(screen, x+3, y+3, side-6, side-6, activeColor, true)
	}
}
