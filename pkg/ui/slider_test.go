package ui

import "testing"

func TestSliderValueAt(t *testing.T) {
	s := NewSlider(100, 0, 200, "speed", 0, 10, 5)
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"left edge", 100, 0},
		{"middle", 200, 5},
		{"right edge", 300, 10},
		{"before the bar", 20, 0},
		{"past the bar", 500, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.valueAt(tt.x); got != tt.want {
				t.Errorf("valueAt(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestNewSliderClampsValue(t *testing.T) {
	if s := NewSlider(0, 0, 100, "w", 1, 2, 7); s.Value != 2 {
		t.Errorf("Value = %v, want 2", s.Value)
	}
	if s := NewSlider(0, 0, 100, "w", 1, 2, -7); s.Value != 1 {
		t.Errorf("Value = %v, want 1", s.Value)
	}
}

func TestPanelLayout(t *testing.T) {
	p := NewPanel(0, 0, 220)
	p.Section("Flocking")
	a := p.AddSlider("alignment", 0, 3, 1)
	b := p.AddSlider("cohesion", 0, 3, 1)
	p.Section("Collision")
	c := p.AddCheckbox("enabled", true)

	if a.W != 200 || a.X != padding {
		t.Errorf("slider placed at x=%v w=%v", a.X, a.W)
	}
	if b.Y <= a.Y {
		t.Errorf("second slider at y=%v not below first at y=%v", b.Y, a.Y)
	}
	if c.Y <= b.Y {
		t.Errorf("checkbox at y=%v not below sliders", c.Y)
	}
	if !p.Contains(5, int(c.Y)) {
		t.Error("panel should contain its last row")
	}
	if p.Contains(300, 5) {
		t.Error("panel should not contain a point right of it")
	}
	p.Visible = false
	if p.Contains(5, 5) {
		t.Error("a hidden panel contains nothing")
	}
}
