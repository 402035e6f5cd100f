package ui

import "image/color"

var (
	outlineColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	activeColor  = color.RGBA{R: 100, G: 200, B: 100, A: 255}
)

func inRect(x, y, w, h float64, mx, my int) bool {
	px, py := float64(mx), float64(my)
	return px >= x && px <= x+w && py >= y && py <= y+h
}

// latch turns a held mouse button into a single event per press.
type latch struct{ held bool }

func (l *latch) fire(inside, down bool) bool {
	if !inside || !down {
		l.held = false
		return false
	}
	first := !l.held
	l.held = true
	return first
}
