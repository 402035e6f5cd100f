package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	titleHeight   = 30.0
	sectionHeight = 25.0
	labelHeight   = 15.0
)

// Widget is anything the panel can stack
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	Height() float64
	MoveTo(y float64)
}

type sliderWidget struct{ *Slider }

func (s sliderWidget) Height() float64  { return s.H + labelHeight + 10 }
func (s sliderWidget) MoveTo(y float64) { s.Y = y + labelHeight }

type checkboxWidget struct{ *Checkbox }

func (c checkboxWidget) Height() float64  { return c.Size + 8 }
func (c checkboxWidget) MoveTo(y float64) { c.Y = y }

// the label sits to the right of the box
func (c checkboxWidget) Draw(screen *ebiten.Image) {
	c.Checkbox.Draw(screen)
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.X+c.Size+8), int(c.Y-1))
}

type buttonWidget struct{ *Button }

func (b buttonWidget) Height() float64  { return b.Button.Height + 6 }
func (b buttonWidget) MoveTo(y float64) { b.Y = y }

type section struct {
	title string
	start int // index of the first widget of the section
}

// Panel stacks widgets under section headers in a scrollable column
type Panel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	ScrollOffset  float64

	widgets  []Widget
	labels   []string // drawn above sliders only
	sections []section

	BGColor     color.RGBA
	BorderColor color.RGBA
}

// NewPanel creates an empty panel
func NewPanel(title string, x, y, width, height float64) *Panel {
	return &Panel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		BGColor:     color.RGBA{R: 20, G: 30, B: 45, A: 230},
		BorderColor: color.RGBA{R: 90, G: 110, B: 130, A: 255},
	}
}

// AddSection starts a new header; widgets added next belong to it
func (p *Panel) AddSection(title string) {
	p.sections = append(p.sections, section{title: title, start: len(p.widgets)})
}

func (p *Panel) add(w Widget, label string) {
	p.widgets = append(p.widgets, w)
	p.labels = append(p.labels, label)
	p.layout()
}

// AddSlider appends a slider and returns it so callers can read Value
func (p *Panel) AddSlider(label string, min, max, value, step float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	s.Step = step
	s.Set(value)
	p.add(sliderWidget{s}, label)
	return s
}

func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	p.add(checkboxWidget{c}, "")
	return c
}

func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 20, label, onClick)
	p.add(buttonWidget{b}, "")
	return b
}

// layout places every widget for the current scroll offset and returns the
// total content height
func (p *Panel) layout() float64 {
	y := p.Y + titleHeight - p.ScrollOffset
	next := 0
	for i, w := range p.widgets {
		for next < len(p.sections) && p.sections[next].start == i {
			y += sectionHeight
			next++
		}
		w.MoveTo(y)
		y += w.Height()
	}
	// trailing empty sections still take room
	y += float64(len(p.sections)-next) * sectionHeight
	return y + p.ScrollOffset - p.Y
}

func (p *Panel) scroll(dy float64) {
	p.ScrollOffset -= dy * 20
	maxScroll := max(0, p.layout()-p.Height+10)
	p.ScrollOffset = max(0, min(maxScroll, p.ScrollOffset))
	p.layout()
}

// Update scrolls with the wheel and forwards input to the widgets
func (p *Panel) Update() {
	if _, dy := ebiten.Wheel(); dy != 0 {
		p.scroll(dy)
	}
	for _, w := range p.widgets {
		w.Update()
	}
}

func (p *Panel) visible(y float64) bool {
	return y >= p.Y+titleHeight-5 && y <= p.Y+p.Height-10
}

func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+8))

	y := p.Y + titleHeight - p.ScrollOffset
	next := 0
	for i, w := range p.widgets {
		for next < len(p.sections) && p.sections[next].start == i {
			if p.visible(y) {
				vector.FillRect(screen, float32(p.X+5), float32(y), float32(p.Width-10), 20,
					color.RGBA{R: 40, G: 55, B: 75, A: 255}, true)
				ebitenutil.DebugPrintAt(screen, p.sections[next].title, int(p.X+10), int(y+3))
			}
			y += sectionHeight
			next++
		}
		if p.visible(y) {
			if p.labels[i] != "" {
				ebitenutil.DebugPrintAt(screen, p.labels[i], int(p.X+10), int(y-2))
			}
			w.Draw(screen)
		}
		y += w.Height()
	}
}
