package object

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomz197/chaosjump/internal/draw"
	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

func TestShouldBeCulled(t *testing.T) {
	w := newTestWorld()
	view := w.View()
	c := NewCircle(w, 20)

	tests := []struct {
		location vmath.Vector2
		culled   bool
	}{
		{vmath.Vec(0, 0), false},
		{vmath.Vec(-655, 0), false}, // Partly visible on the left
		{vmath.Vec(-661, 0), true},
		{vmath.Vec(0, 595), false},
		{vmath.Vec(0, 597), true},
		{vmath.Vec(0, -165), true},
	}
	for _, tt := range tests {
		c.SetLocation(tt.location)
		assert.Equal(t, tt.culled, c.ShouldBeCulled(view), "%v", tt.location)
	}
}

func TestDrawUsesViewOffset(t *testing.T) {
	w := newTestWorld()
	view := w.View()
	canvas := draw.NewScaledCanvas(128, 36, view.Size.X, view.Size.Y)

	r := NewRectangle(w, 100, 100)
	r.SetColor(draw.Red)
	r.SetLocation(view.Location.Add(vmath.Vec(640, 360)))
	r.Draw(canvas, view)

	var out bytes.Buffer
	canvas.Render(&out)
	// The view center maps to column 65, row 19.
	assert.Contains(t, out.String(), "\033[19;65H\033[38;2;255;0;0m█")
}

func TestDestroyIsIdempotent(t *testing.T) {
	w := newTestWorld()
	o := NewPolygon(w, []vmath.Vector2{{X: 0, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}})
	o.Destroy()
	assert.True(t, o.Destroyed())
	assert.NotPanics(t, o.Destroy)
	assert.Zero(t, w.Count())
}

func TestPlatformDefaults(t *testing.T) {
	w := newTestWorld()
	p := NewPlatform(w, vmath.Vec(150, 15))
	assert.Equal(t, physics.Ground, p.Category())
	assert.False(t, p.CanMove())
	assert.Equal(t, vmath.Zero, p.Gravity())
	assert.Equal(t, 150.0*15, p.Area())
	assert.Equal(t, []physics.BodyID{p.ID()}, w.Bodies(physics.Ground))
}

func TestCameraOnlyMovesUp(t *testing.T) {
	w := physics.NewWorld(physics.WithView(physics.View{Size: vmath.Vec(1280, 720)}))
	target := NewCircle(w, 5)
	target.SetGravity(vmath.Zero)
	target.SetLocation(vmath.Vec(100, 200))

	cam := NewCamera(w, target.Body)
	w.Scheduler().AddWithOrder(cam, CameraTickOrder)
	assert.Equal(t, vmath.Vec(-640, -144), w.View().Location)

	w.Step(frame)
	assert.Equal(t, vmath.Zero, cam.Location(), "target below the camera")

	target.SetLocation(vmath.Vec(100, -50))
	w.Step(frame)
	assert.Equal(t, vmath.Vec(0, -50), cam.Location(), "x is never followed")
	assert.Equal(t, vmath.Vec(-640, -194), w.View().Location)

	target.SetLocation(vmath.Vec(0, 300))
	w.Step(frame)
	assert.Equal(t, vmath.Vec(0, -50), cam.Location())

	cam.SetHeight(0)
	assert.Equal(t, vmath.Vec(-640, -144), w.View().Location)

	target.Destroy()
	assert.NotPanics(t, func() { w.Step(frame) })
}
