// Package object holds the gameplay objects built on physics bodies: plain
// shapes, platforms, the player and the camera.
package object

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/tomz197/chaosjump/internal/draw"
	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

// ErrShortPayload is returned when a replication payload is too small to decode.
var ErrShortPayload = errors.New("object: payload too short")

// Drawable is implemented by everything the renderer draws.
type Drawable interface {
	// Draw draws the object relative to the view's top-left corner.
	Draw(c *draw.Canvas, view physics.View)
	// ShouldBeCulled returns true if the object is entirely outside the view.
	ShouldBeCulled(view physics.View) bool
}

// Object is a colored body.
type Object struct {
	*physics.Body
	color  colorful.Color
	filled bool
}

func newObject(w *physics.World, shape physics.Shape) *Object {
	return &Object{
		Body:   w.NewBody(shape),
		color:  draw.White,
		filled: true,
	}
}

// NewCircle creates a circle object.
func NewCircle(w *physics.World, radius float64) *Object {
	return newObject(w, physics.NewCircle(radius))
}

// NewRectangle creates an axis-aligned rectangle object.
func NewRectangle(w *physics.World, width, height float64) *Object {
	return newObject(w, physics.NewRectangle(width, height))
}

// NewPolygon creates a convex polygon object. Vertices are relative to its location.
func NewPolygon(w *physics.World, vertices []vmath.Vector2) *Object {
	return newObject(w, physics.NewPolygon(vertices))
}

// Color returns the draw color.
func (o *Object) Color() colorful.Color {
	return o.color
}

// SetColor sets the draw color.
func (o *Object) SetColor(c colorful.Color) {
	o.color = c
}

// SetFilled toggles between filled and outline drawing.
func (o *Object) SetFilled(filled bool) {
	o.filled = filled
}

// Destroy removes the object's body from its world. Destroying twice is a no-op.
func (o *Object) Destroy() {
	if !o.Destroyed() {
		o.World().Destroy(o.Body)
	}
}

// Draw draws the object's shape in its color.
func (o *Object) Draw(c *draw.Canvas, view physics.View) {
	c.SetColor(o.color)
	at := o.Location().Sub(view.Location)

	switch s := o.Shape().(type) {
	case *physics.Circle:
		c.DrawCircle(draw.Point{X: at.X, Y: at.Y}, s.Radius, o.filled)
	case *physics.Rectangle:
		corners := s.Corners()
		points := c.BorrowPoints(len(corners))
		for i, v := range corners {
			points[i] = draw.Point{X: at.X + v.X, Y: at.Y + v.Y}
		}
		c.DrawPolygon(points, o.filled)
	case *physics.Polygon:
		vertices := s.Vertices()
		points := c.BorrowPoints(len(vertices))
		for i, v := range vertices {
			points[i] = draw.Point{X: at.X + v.X, Y: at.Y + v.Y}
		}
		c.DrawPolygon(points, o.filled)
	}
}

// ShouldBeCulled uses the bounding radius around the location.
func (o *Object) ShouldBeCulled(view physics.View) bool {
	at := o.Location().Sub(view.Location)
	r := o.Shape().BoundingRadius()
	outX := at.X+r < 0 || at.X-r > view.Size.X
	outY := at.Y+r < 0 || at.Y-r > view.Size.Y
	return outX || outY
}

// NewPlatform creates an immovable Ground rectangle that ignores gravity and the window border.
func NewPlatform(w *physics.World, size vmath.Vector2) *Object {
	o := NewRectangle(w, size.X, size.Y)
	o.SetCategory(physics.Ground)
	o.SetCanMove(false)
	o.SetGravity(vmath.Zero)
	o.SetCanCollideWithWindowBorder(false, false)
	return o
}
