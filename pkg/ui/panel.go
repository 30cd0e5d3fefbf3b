package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

type widget interface {
	Update()
	Draw(screen *ebiten.Image)
	rowHeight() float64
	place(x, y, w float64)
}

type labeled struct {
	label  string
	widget widget
}

type section struct {
	title string
	rows  []labeled
}

// Panel stacks widgets in titled sections along the left edge of the screen.
type Panel struct {
	X, Y, Width float64
	Visible     bool

	sections []*section
	height   float64
}

// NewPanel creates an empty, visible panel.
func NewPanel(x, y, width float64) *Panel {
	return &Panel{X: x, Y: y, Width: width, Visible: true}
}

// Section starts a new titled section; following Add* calls go into it.
func (p *Panel) Section(title string) *Panel {
	p.sections = append(p.sections, &section{title: title})
	p.layout()
	return p
}

// AddSlider appends a slider to the current section.
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(0, 0, 0, label, min, max, value)
	p.add(label, s)
	return s
}

// AddCheckbox appends a checkbox to the current section.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	p.add("", c)
	return c
}

// AddButton appends a full width button to the current section.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(0, 0, 0, 22, label, onClick)
	p.add("", b)
	return b
}

func (p *Panel) add(label string, w widget) {
	if len(p.sections) == 0 {
		p.sections = append(p.sections, &section{})
	}
	cur := p.sections[len(p.sections)-1]
	cur.rows = append(cur.rows, labeled{label: label, widget: w})
	p.layout()
}

const (
	padding      = 10.0
	titleHeight  = 20.0
	sectionSpace = 8.0
)

// layout places every widget from the panel origin down.
func (p *Panel) layout() {
	y := p.Y + padding
	inner := p.Width - 2*padding
	for _, sec := range p.sections {
		if sec.title != "" {
			y += titleHeight
		}
		for _, r := range sec.rows {
			r.widget.place(p.X+padding, y, inner)
			y += r.widget.rowHeight()
		}
		y += sectionSpace
	}
	p.height = y - p.Y
}

// Height returns the laid out height of the panel.
func (p *Panel) Height() float64 {
	return p.height
}

// Contains reports whether the point is over the visible panel, so callers
// can ignore clicks meant for the UI.
func (p *Panel) Contains(x, y int) bool {
	return p.Visible &&
		float64(x) >= p.X && float64(x) <= p.X+p.Width &&
		float64(y) >= p.Y && float64(y) <= p.Y+p.height
}

func (p *Panel) Update() {
	if !p.Visible {
		return
	}
	for _, sec := range p.sections {
		for _, r := range sec.rows {
			r.widget.Update()
		}
	}
}

func (p *Panel) Draw(screen *ebiten.Image) {
	if !p.Visible {
		return
	}
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(p.height),
		color.RGBA{R: 20, G: 20, B: 30, A: 220}, true)

	y := p.Y + padding
	for _, sec := range p.sections {
		if sec.title != "" {
			ebitenutil.DebugPrintAt(screen, sec.title, int(p.X+padding), int(y))
			y += titleHeight
		}
		for _, r := range sec.rows {
			if r.label != "" {
				ebitenutil.DebugPrintAt(screen, r.label, int(p.X+padding), int(y))
			}
			r.widget.Draw(screen)
			y += r.widget.rowHeight()
		}
		y += sectionSpace
	}
}
