package viewer

import (
	"math"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPatchFor(t *testing.T) {
	tests := []struct {
		path  string
		value any
		want  map[string]any
	}{
		{"maxSpeed", 7.5, map[string]any{"maxSpeed": 7.5}},
		{"collision.enabled", false, map[string]any{"collision": map[string]any{"enabled": false}}},
		{"collision.frameSkip.enabled", true, map[string]any{
			"collision": map[string]any{"frameSkip": map[string]any{"enabled": true}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := patchFor(tt.path, tt.value); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("patchFor(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCameraProject(t *testing.T) {
	c := Camera{Scale: 10, CenterX: 400, CenterY: 300}

	tests := []struct {
		name         string
		yaw, pitch   float64
		p            mgl64.Vec3
		wantX, wantY float64
	}{
		{"target at center", 0, 0, mgl64.Vec3{}, 400, 300},
		{"x goes right", 0, 0, mgl64.Vec3{1, 0, 0}, 410, 300},
		{"y goes up", 0, 0, mgl64.Vec3{0, 2, 0}, 400, 280},
		{"z is depth only", 0, 0, mgl64.Vec3{0, 0, 5}, 400, 300},
		{"quarter yaw brings z to the right", math.Pi / 2, 0, mgl64.Vec3{0, 0, 1}, 410, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.Yaw, c.Pitch = tt.yaw, tt.pitch
			x, y, _ := c.Project(tt.p)
			if !near(x, tt.wantX) || !near(y, tt.wantY) {
				t.Errorf("Project(%v) = (%v, %v), want (%v, %v)", tt.p, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCameraProjectTarget(t *testing.T) {
	c := Camera{Target: mgl64.Vec3{5, 5, 5}, Yaw: 1, Pitch: 0.4, Scale: 3, CenterX: 10, CenterY: 20}
	x, y, depth := c.Project(mgl64.Vec3{5, 5, 5})
	if !near(x, 10) || !near(y, 20) || !near(depth, 0) {
		t.Errorf("target projected to (%v, %v, %v)", x, y, depth)
	}
}

func TestCameraOrbitClampsPitch(t *testing.T) {
	var c Camera
	c.Orbit(0, 10)
	if c.Pitch != maxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, maxPitch)
	}
	c.Orbit(0, -20)
	if c.Pitch != -maxPitch {
		t.Errorf("Pitch = %v, want %v", c.Pitch, -maxPitch)
	}
}

func TestCameraZoomLimits(t *testing.T) {
	c := Camera{Scale: 10}
	c.Zoom(1000)
	if c.Scale != 200 {
		t.Errorf("Scale = %v, want 200", c.Scale)
	}
	c.Zoom(1e-6)
	if c.Scale != 0.5 {
		t.Errorf("Scale = %v, want 0.5", c.Scale)
	}
}

func TestTriangle(t *testing.T) {
	tri := triangle(100, 50, math.Pi/2, 6)
	if !near(tri[0][0], 100) || !near(tri[0][1], 56) {
		t.Errorf("tip = %v, want (100, 56)", tri[0])
	}
	// the back corners mirror each other across the heading
	if !near(tri[1][1], tri[2][1]) || !near(tri[1][0]-100, 100-tri[2][0]) {
		t.Errorf("back corners not symmetric: %v %v", tri[1], tri[2])
	}
}

func TestShadeFor(t *testing.T) {
	if got := shadeFor(-50, 50); !near(got, 1) {
		t.Errorf("nearest shade = %v, want 1", got)
	}
	if got := shadeFor(50, 50); got != 0.35 {
		t.Errorf("farthest shade = %v, want 0.35", got)
	}
	if got := shadeFor(500, 50); got != 0.35 {
		t.Errorf("beyond range shade = %v, want 0.35", got)
	}
}

func TestCameraUnproject(t *testing.T) {
	c := Camera{Target: mgl64.Vec3{1, -2, 3}, Yaw: 0.7, Pitch: -0.3, Scale: 12, CenterX: 500, CenterY: 400}
	points := []mgl64.Vec3{{}, {1, -2, 3}, {10, 4, -7}, {-3, 0.5, 22}}
	for _, p := range points {
		x, y, depth := c.Project(p)
		got := c.Unproject(x, y, depth)
		if got.Sub(p).Len() > 1e-9 {
			t.Errorf("Unproject(Project(%v)) = %v", p, got)
		}
	}
}

func TestPickTarget(t *testing.T) {
	c := Camera{Scale: 10, CenterX: 400, CenterY: 300}
	targets := []mgl64.Vec3{{0, 0, 0}, {5, 0, 0}, {5.3, 0, 2}}

	tests := []struct {
		name   string
		x, y   float64
		want   int
		wantOK bool
	}{
		{"on the first", 401, 299, 0, true},
		{"closest of two overlapping", 452, 300, 2, true},
		{"nothing near", 200, 100, -1, false},
		{"just outside the radius", 409, 300, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := pickTarget(&c, targets, tt.x, tt.y, 8)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("pickTarget(%v, %v) = %d, %v; want %d, %v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPickTargetDepthKeepsDraggedPoint(t *testing.T) {
	c := Camera{Yaw: 0.4, Pitch: 0.2, Scale: 10, CenterX: 400, CenterY: 300}
	target := mgl64.Vec3{3, 1, -4}
	x, y, _ := c.Project(target)

	_, depth, ok := pickTarget(&c, []mgl64.Vec3{target}, x, y, 8)
	if !ok {
		t.Fatal("target not picked under the cursor")
	}
	if got := c.Unproject(x, y, depth); got.Sub(target).Len() > 1e-9 {
		t.Errorf("dragging without moving the mouse moved the target to %v", got)
	}
}
