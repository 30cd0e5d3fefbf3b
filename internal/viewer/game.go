// Package viewer renders a running flock with ebiten and lets the user tune
// it live. Every frame it asks the flock actor for a tick, picks up the
// latest snapshot without blocking, and turns widget changes into settings
// patches.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-flock-engine/internal/driver"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/flock"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/obstacles"
	"github.com/lao-tseu-is-alive/go-flock-engine/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"go.uber.org/zap"
)

const (
	panelWidth = 240
	boidSize   = 6.0
)

var (
	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	boundsColor     = color.RGBA{R: 90, G: 90, B: 120, A: 255}
	obstacleColor   = color.RGBA{R: 230, G: 140, B: 60, A: 255}
	targetColor     = color.RGBA{R: 240, G: 70, B: 70, A: 255}
)

// TargetMover moves the seek points while the flock runs.
type TargetMover interface {
	Set(ref flock.TargetRef, p mgl64.Vec3) error
}

type sliderBinding struct {
	path   string
	slider *ui.Slider
}

type checkboxBinding struct {
	path     string
	checkbox *ui.Checkbox
}

// Game implements ebiten.Game on top of a flock actor.
type Game struct {
	ctx       context.Context
	pid       *actor.PID
	snapshots <-chan *driver.Snapshot
	last      *driver.Snapshot
	logger    *zap.Logger

	width, height int
	camera        Camera
	world         *obstacles.World

	panel      *ui.Panel
	sliders    []sliderBinding
	checkboxes []checkboxBinding
	paused     bool

	lastUpdate time.Time
	dragX      int
	dragY      int
	dragging   bool

	targets    TargetMover
	dragTarget int // index of the target under the cursor, -1 when none
	dragDepth  float64

	white    *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
}

// NewGame builds the viewer. world may be nil when the scene has no
// obstacles, targets may be nil to disable dragging the seek points.
func NewGame(ctx context.Context, pid *actor.PID, snapshots <-chan *driver.Snapshot,
	settings flock.Settings, world *obstacles.World, targets TargetMover,
	width, height int, logger *zap.Logger) *Game {
	g := &Game{
		ctx:        ctx,
		pid:        pid,
		snapshots:  snapshots,
		logger:     logger,
		width:      width,
		height:     height,
		world:      world,
		targets:    targets,
		dragTarget: -1,
		camera: Camera{
			Pitch:   0.35,
			Scale:   float64(height) / 70,
			CenterX: panelWidth + float64(width-panelWidth)/2,
			CenterY: float64(height) / 2,
		},
		white: ebiten.NewImage(3, 3),
	}
	g.white.Fill(color.White)
	g.buildPanel(settings)
	return g
}

func (g *Game) buildPanel(s flock.Settings) {
	p := ui.NewPanel(0, 0, panelWidth)
	bind := func(path, label string, lo, hi, value float64) {
		g.sliders = append(g.sliders, sliderBinding{path: path, slider: p.AddSlider(label, lo, hi, value)})
	}
	check := func(path, label string, value bool) {
		g.checkboxes = append(g.checkboxes, checkboxBinding{path: path, checkbox: p.AddCheckbox(label, value)})
	}

	p.Section("Movement")
	bind("minSpeed", "Min Speed", 0, 10, s.MinSpeed)
	bind("maxSpeed", "Max Speed", 0.5, 20, s.MaxSpeed)
	bind("maxSteerForce", "Max Steer Force", 0, 10, s.MaxSteerForce)
	bind("maxTurnSpeed", "Max Turn (deg/s)", 0, 720, s.MaxTurnSpeed)

	p.Section("Perception")
	bind("perceptionRadius", "Perception Radius", 0.5, 10, s.PerceptionRadius)
	bind("perceptionAngle", "Perception Angle", 0, 360, s.PerceptionAngle)
	bind("avoidanceRadius", "Avoidance Radius", 0.1, 5, s.AvoidanceRadius)

	p.Section("Weights")
	bind("alignWeight", "Align", 0, 5, s.AlignWeight)
	bind("cohesionWeight", "Cohesion", 0, 5, s.CohesionWeight)
	bind("separateWeight", "Separate", 0, 5, s.SeparateWeight)
	bind("targetWeight", "Target", 0, 5, s.TargetWeight)

	p.Section("Collision")
	check("collision.enabled", "Avoid obstacles", s.Collision.Enabled)
	check("collision.frameSkip.enabled", "Stagger probes", s.Collision.FrameSkip.Enabled)
	bind("collision.avoidCollisionWeight", "Avoid Weight", 0, 30, s.Collision.AvoidCollisionWeight)
	bind("collision.checkDistance", "Check Distance", 0.5, 15, s.Collision.CheckDistance)

	p.Section("")
	p.AddButton("Pause / Resume (Space)", g.togglePause)
	g.panel = p
}

func (g *Game) togglePause() {
	g.paused = !g.paused
}

func (g *Game) Update() error {
	now := time.Now()
	dt := now.Sub(g.lastUpdate)
	if g.lastUpdate.IsZero() {
		dt = time.Second / time.Duration(ebiten.TPS())
	}
	g.lastUpdate = now

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.togglePause()
	}
	g.panel.Update()
	g.sendPatches()
	g.updateCamera()
	g.updateTargetDrag()

	// keep only the latest snapshot
	for drained := false; !drained; {
		select {
		case s := <-g.snapshots:
			g.last = s
		default:
			drained = true
		}
	}

	if !g.paused {
		if err := driver.SendTick(g.ctx, g.pid, dt); err != nil {
			return fmt.Errorf("flock actor unreachable: %w", err)
		}
	}
	return nil
}

func (g *Game) sendPatches() {
	for _, b := range g.sliders {
		if b.slider.Changed() {
			g.send(b.path, b.slider.Value)
		}
	}
	for _, b := range g.checkboxes {
		if b.checkbox.Changed() {
			g.send(b.path, b.checkbox.Value)
		}
	}
}

func (g *Game) send(path string, value any) {
	if err := driver.SendPatch(g.ctx, g.pid, patchFor(path, value)); err != nil {
		g.logger.Warn("settings patch not sent", zap.String("path", path), zap.Error(err))
	}
}

// updateCamera orbits with a right button drag and zooms with the wheel.
func (g *Game) updateCamera() {
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) && !g.panel.Contains(mx, my) {
		if g.dragging {
			g.camera.Orbit(float64(mx-g.dragX)*0.01, float64(my-g.dragY)*0.01)
		}
		g.dragX, g.dragY, g.dragging = mx, my, true
	} else {
		g.dragging = false
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		g.camera.Zoom(math.Pow(1.1, wy))
	}
}

const pickRadius = 8.0

// updateTargetDrag lets a left button drag move a target within the plane
// facing the camera. The flock reads the new position on its next tick.
func (g *Game) updateTargetDrag() {
	if g.targets == nil || g.last == nil {
		return
	}
	mx, my := ebiten.CursorPosition()
	if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.dragTarget = -1
		return
	}
	if g.dragTarget < 0 {
		if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) || g.panel.Contains(mx, my) {
			return
		}
		i, depth, ok := pickTarget(&g.camera, g.last.Targets, float64(mx), float64(my), pickRadius)
		if !ok {
			return
		}
		g.dragTarget, g.dragDepth = i, depth
	}
	p := g.camera.Unproject(float64(mx), float64(my), g.dragDepth)
	if err := g.targets.Set(flock.TargetRef(g.dragTarget), p); err != nil {
		g.logger.Warn("target not moved", zap.Int("target", g.dragTarget), zap.Error(err))
		g.dragTarget = -1
	}
}

// pickTarget returns the target projected closest to (x, y), within radius
// pixels, and its depth.
func pickTarget(c *Camera, targets []mgl64.Vec3, x, y, radius float64) (int, float64, bool) {
	best, bestDepth := -1, 0.0
	bestDist := radius * radius
	for i, t := range targets {
		tx, ty, depth := c.Project(t)
		if d := (tx-x)*(tx-x) + (ty-y)*(ty-y); d <= bestDist {
			best, bestDepth, bestDist = i, depth, d
		}
	}
	return best, bestDepth, best >= 0
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	g.drawWorld(screen)
	if s := g.last; s != nil {
		for _, t := range s.Targets {
			x, y, _ := g.camera.Project(t)
			vector.FillCircle(screen, float32(x), float32(y), 4, targetColor, true)
		}
		g.drawAgents(screen, s.Agents)
	}
	g.panel.Draw(screen)
	g.drawHUD(screen)
}

func (g *Game) drawWorld(screen *ebiten.Image) {
	if g.world == nil {
		return
	}
	if b, ok := g.world.Bounds(); ok {
		g.drawBox(screen, b.Min, b.Max, boundsColor)
	}
	for _, b := range g.world.Boxes() {
		g.drawBox(screen, b.Min, b.Max, obstacleColor)
	}
	for _, s := range g.world.Spheres() {
		x, y, _ := g.camera.Project(s.Center)
		vector.StrokeCircle(screen, float32(x), float32(y), float32(s.Radius*g.camera.Scale), 1.5, obstacleColor, true)
	}
}

// boxEdges lists the corner pairs of a box, corners being indexed by the
// bits (x, y, z) of their position.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func (g *Game) drawBox(screen *ebiten.Image, lo, hi mgl64.Vec3, clr color.Color) {
	var corners [8][2]float32
	for i := range corners {
		c := lo
		for axis := range 3 {
			if i&(1<<axis) != 0 {
				c[axis] = hi[axis]
			}
		}
		x, y, _ := g.camera.Project(c)
		corners[i] = [2]float32{float32(x), float32(y)}
	}
	for _, e := range boxEdges {
		a, b := corners[e[0]], corners[e[1]]
		vector.StrokeLine(screen, a[0], a[1], b[0], b[1], 1, clr, true)
	}
}

// drawAgents draws every agent as a triangle pointing along its projected
// heading, all in one DrawTriangles call. Nearer agents are brighter.
func (g *Game) drawAgents(screen *ebiten.Image, agents []flock.AgentView) {
	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]
	for _, a := range agents {
		x, y, depth := g.camera.Project(a.Position)
		hx, hy, _ := g.camera.Project(a.Position.Add(a.Forward))
		tri := triangle(x, y, math.Atan2(hy-y, hx-x), boidSize)
		shade := float32(shadeFor(depth, 50))

		base := uint16(len(g.vertices))
		for _, v := range tri {
			g.vertices = append(g.vertices, ebiten.Vertex{
				DstX: float32(v[0]), DstY: float32(v[1]),
				SrcX: 1, SrcY: 1,
				ColorR: 0.4 * shade, ColorG: 0.8 * shade, ColorB: shade, ColorA: 1,
			})
		}
		g.indices = append(g.indices, base, base+1, base+2)

		// indices are 16 bits, flush before they overflow
		if len(g.vertices) > math.MaxUint16-3 {
			screen.DrawTriangles(g.vertices, g.indices, g.white, &ebiten.DrawTrianglesOptions{})
			g.vertices = g.vertices[:0]
			g.indices = g.indices[:0]
		}
	}
	if len(g.indices) > 0 {
		screen.DrawTriangles(g.vertices, g.indices, g.white, &ebiten.DrawTrianglesOptions{})
	}
}

// triangle returns the tip, right and left corners of a boid glyph at
// (x, y) heading along angle.
func triangle(x, y, angle, size float64) [3][2]float64 {
	return [3][2]float64{
		{x + math.Cos(angle)*size, y + math.Sin(angle)*size},
		{x + math.Cos(angle+2.5)*size*0.8, y + math.Sin(angle+2.5)*size*0.8},
		{x + math.Cos(angle-2.5)*size*0.8, y + math.Sin(angle-2.5)*size*0.8},
	}
}

// shadeFor maps a depth in [-span, span] to a brightness in [0.35, 1].
func shadeFor(depth, span float64) float64 {
	t := 0.5 - depth/(2*span)
	return 0.35 + 0.65*max(0, min(1, t))
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	msg := fmt.Sprintf("FPS %.0f | TPS %.0f", ebiten.ActualFPS(), ebiten.ActualTPS())
	if s := g.last; s != nil {
		msg += fmt.Sprintf(" | frame %d | %d agents | tick %.2fms (%s)",
			s.Frame, len(s.Agents), float64(s.Stats.Duration.Microseconds())/1000, s.Outcome)
		if s.Stats.Probes > 0 {
			msg += fmt.Sprintf(" | probes %d, %d blocked", s.Stats.Probes, s.Stats.ProbesBlocked)
		}
	}
	if g.paused {
		msg += " | PAUSED"
	}
	ebitenutil.DebugPrintAt(screen, msg, panelWidth+10, g.height-20)
}

func (g *Game) Layout(w, h int) (int, int) { return g.width, g.height }
