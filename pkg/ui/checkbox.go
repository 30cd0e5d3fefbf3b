package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox is a simple UI widget for boolean values
type Checkbox struct {
	Label   string
	Value   bool
	X, Y    float64
	Size    float64
	clicked bool // debounces a held button
	changed bool
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

// Update toggles the value on a click.
func (c *Checkbox) Update() {
	c.changed = false
	mx, my := ebiten.CursorPosition()
	if c.contains(float64(mx), float64(my)) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !c.clicked {
			c.Value = !c.Value
			c.changed = true
			c.clicked = true
		}
	} else {
		c.clicked = false
	}
}

// Changed reports whether the last Update toggled the value.
func (c *Checkbox) Changed() bool {
	return c.changed
}

func (c *Checkbox) contains(x, y float64) bool {
	return x >= c.X && x <= c.X+c.Size && y >= c.Y && y <= c.Y+c.Size
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen,
		float32(c.X), float32(c.Y),
		float32(c.Size), float32(c.Size),
		2,
		color.RGBA{R: 200, G: 200, B: 200, A: 255},
		true)

	if c.Value {
		vector.FillRect(screen,
			float32(c.X+3), float32(c.Y+3),
			float32(c.Size-6), float32(c.Size-6),
			color.RGBA{R: 100, G: 200, B: 100, A: 255},
			true)
	}
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.X+c.Size+8), int(c.Y-1))
}

func (c *Checkbox) rowHeight() float64 {
	return c.Size + 8
}

// place ignores the width, the label is printed right of the box.
func (c *Checkbox) place(x, y, _ float64) {
	c.X, c.Y = x, y
}
