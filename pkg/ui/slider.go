package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Slider is a horizontal bar holding a value in [Min, Max].
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	X, Y     float64
	W, H     float64
	Format   string // fmt verb used to print the value, "%.2f" by default

	dragging bool
	changed  bool
}

// NewSlider creates a slider of width w, with the value clamped into range.
func NewSlider(x, y, w float64, label string, min, max, value float64) *Slider {
	s := &Slider{
		Label:  label,
		Min:    min,
		Max:    max,
		X:      x,
		Y:      y,
		W:      w,
		H:      14,
		Format: "%.2f",
	}
	s.Value = s.clamp(value)
	return s
}

// Update follows the mouse while the left button is held. A drag that
// started on the slider keeps control even if the cursor leaves the bar.
func (s *Slider) Update() {
	s.changed = false
	mx, my := ebiten.CursorPosition()
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		s.dragging = false
		return
	}
	if !s.dragging && s.contains(float64(mx), float64(my)) {
		s.dragging = true
	}
	if s.dragging {
		if v := s.valueAt(float64(mx)); v != s.Value {
			s.Value = v
			s.changed = true
		}
	}
}

// Changed reports whether the last Update moved the value.
func (s *Slider) Changed() bool {
	return s.changed
}

func (s *Slider) contains(x, y float64) bool {
	return x >= s.X && x <= s.X+s.W && y >= s.Y && y <= s.Y+s.H
}

// valueAt maps a cursor abscissa to a value.
func (s *Slider) valueAt(x float64) float64 {
	if s.W <= 0 {
		return s.Value
	}
	return s.clamp(s.Min + (x-s.X)/s.W*(s.Max-s.Min))
}

func (s *Slider) clamp(v float64) float64 {
	return max(s.Min, min(s.Max, v))
}

// ratio is the filled share of the bar.
func (s *Slider) ratio() float64 {
	if s.Max == s.Min {
		return 0
	}
	return (s.Value - s.Min) / (s.Max - s.Min)
}

func (s *Slider) Draw(screen *ebiten.Image) {
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W), float32(s.H),
		color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	vector.FillRect(screen, float32(s.X), float32(s.Y), float32(s.W*s.ratio()), float32(s.H),
		color.RGBA{R: 90, G: 170, B: 230, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf(s.Format, s.Value), int(s.X+s.W-50), int(s.Y-1))
}

// rowHeight is the vertical room the slider takes in a panel, label included.
func (s *Slider) rowHeight() float64 {
	return s.H + 22
}

func (s *Slider) place(x, y, w float64) {
	s.X, s.Y, s.W = x, y+16, w
}
