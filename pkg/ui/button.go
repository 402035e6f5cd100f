package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Button runs OnClick once per press
type Button struct {
	Label   string
	X, Y    float64
	Width   float64
	Height  float64
	OnClick func()
	latch

	BGColor    color.RGBA
	HoverColor color.RGBA
}

// NewButton creates a new button instance
func NewButton(x, y, width, height float64, label string, onClick func()) *Button {
	return &Button{
		Label:      label,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
		OnClick:    onClick,
		BGColor:    color.RGBA{R: 40, G: 90, B: 130, A: 255},
		HoverColor: color.RGBA{R: 60, G: 130, B: 180, A: 255},
	}
}

func (b *Button) contains(mx, my int) bool {
	return inRect(b.X, b.Y, b.Width, b.Height, mx, my)
}

func (b *Button) press(inside, down bool) {
	if b.fire(inside, down) && b.OnClick != nil {
		b.OnClick()
	}
}

func (b *Button) Update() {
	mx, my := ebiten.CursorPosition()
	b.press(b.contains(mx, my), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
}

func (b *Button) Draw(screen *ebiten.Image) {
	bg := b.BGColor
	if mx, my := ebiten.CursorPosition(); b.contains(mx, my) {
		bg = b.HoverColor
	}

	x, y, w, h := float32(b.X), float32(b.Y), float32(b.Width), float32(b.Height)
	vector.FillRect(screen, x, y, w, h, bg, true)
	vector.StrokeRect(screen, x, y, w, h, 1, outlineColor, true)
	ebitenutil.DebugPrintAt(screen, b.Label, int(b.X+6), int(b.Y+(b.Height-16)/2))
}
