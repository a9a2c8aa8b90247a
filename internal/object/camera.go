package object

import (
	"math"

	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

// CameraTickOrder runs the camera after bodies have moved.
const CameraTickOrder uint8 = physics.BodyTickOrder + 50

// Camera follows a body upward and keeps the world's view (the window border) on it.
type Camera struct {
	world    *physics.World
	location vmath.Vector2
	offset   vmath.Vector2 // From camera location to the view's top-left corner
	follow   *physics.Body
}

// NewCamera creates a camera for the world's current view size. The followed
// body sits horizontally centered, a fifth of the way down the view.
func NewCamera(w *physics.World, follow *physics.Body) *Camera {
	size := w.View().Size
	c := &Camera{
		world:  w,
		offset: vmath.Vec(-0.5*size.X, -0.2*size.Y),
		follow: follow,
	}
	c.apply()
	return c
}

// Follow switches the followed body. nil freezes the camera.
func (c *Camera) Follow(b *physics.Body) {
	c.follow = b
}

// SetHeight moves the camera vertically, e.g. back to the start on restart.
func (c *Camera) SetHeight(y float64) {
	c.location.Y = y
	c.apply()
}

// Location returns the camera location.
func (c *Camera) Location() vmath.Vector2 {
	return c.location
}

// ViewLocation returns the top-left corner of the view.
func (c *Camera) ViewLocation() vmath.Vector2 {
	return c.location.Add(c.offset)
}

// Tick moves the camera up with the followed body. It never moves down.
func (c *Camera) Tick(float64) {
	if c.follow != nil && !c.follow.Destroyed() {
		c.location.Y = math.Min(c.follow.Location().Y, c.location.Y)
	}
	c.apply()
}

func (c *Camera) apply() {
	view := c.world.View()
	view.Location = c.ViewLocation()
	c.world.SetView(view)
}
