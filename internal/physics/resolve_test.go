package physics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/chaosjump/internal/vmath"
)

func square(half float64) *Polygon {
	return NewPolygon([]vmath.Vector2{
		{X: -half, Y: -half},
		{X: half, Y: -half},
		{X: half, Y: half},
		{X: -half, Y: half},
	})
}

func TestCircleCircleProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 500 {
		a := NewCircle(5 + rng.Float64()*50)
		b := NewCircle(5 + rng.Float64()*50)
		la := vmath.Vec(rng.Float64()*200-100, rng.Float64()*200-100)
		lb := vmath.Vec(rng.Float64()*200-100, rng.Float64()*200-100)

		r := Collide(a, la, b, lb)
		dist := vmath.Distance(la, lb)
		require.Equal(t, dist < a.Radius+b.Radius, r.Collided, "la=%v lb=%v", la, lb)
		if !r.Collided {
			continue
		}
		assert.InDelta(t, 1, r.Normal.Len(), 1e-9)
		// Points from b toward a.
		assert.Greater(t, r.Normal.Dot(la.Sub(lb)), 0.0)
	}
}

func TestCircleCircleTouchingIsNotCollision(t *testing.T) {
	r := Collide(NewCircle(50), vmath.Vec(0, 400), NewCircle(50), vmath.Vec(100, 400))
	assert.False(t, r.Collided)
}

func TestCircleCircleCoincidentHasZeroNormal(t *testing.T) {
	r := Collide(NewCircle(10), vmath.Vec(3, 3), NewCircle(10), vmath.Vec(3, 3))
	assert.True(t, r.Collided)
	assert.Equal(t, vmath.Zero, r.Normal)
}

func TestRectangleRectangleNormal(t *testing.T) {
	tests := []struct {
		name   string
		la, lb vmath.Vector2
		want   vmath.Vector2
	}{
		{"shallow from left", vmath.Vec(-18, 0), vmath.Vec(0, 0), vmath.Vec(-1, 0)},
		{"shallow from right", vmath.Vec(18, 2), vmath.Vec(0, 0), vmath.Vec(1, 0)},
		{"shallow from above", vmath.Vec(3, -19), vmath.Vec(0, 0), vmath.Vec(0, -1)},
		{"shallow from below", vmath.Vec(-4, 17), vmath.Vec(0, 0), vmath.Vec(0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Collide(NewRectangle(20, 20), tt.la, NewRectangle(20, 20), tt.lb)
			require.True(t, r.Collided)
			assert.Equal(t, tt.want, r.Normal)
		})
	}

	r := Collide(NewRectangle(20, 20), vmath.Vec(20, 0), NewRectangle(20, 20), vmath.Zero)
	assert.False(t, r.Collided, "edge contact is not a collision")
}

func TestRectangleRectangleProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for range 500 {
		a := NewRectangle(10+rng.Float64()*40, 10+rng.Float64()*40)
		b := NewRectangle(10+rng.Float64()*40, 10+rng.Float64()*40)
		la := vmath.Vec(rng.Float64()*60-30, rng.Float64()*60-30)
		lb := vmath.Vec(rng.Float64()*60-30, rng.Float64()*60-30)

		r := Collide(a, la, b, lb)
		if !r.Collided {
			continue
		}
		d := la.Sub(lb)
		px := a.HalfExtent.X + b.HalfExtent.X - math.Abs(d.X)
		py := a.HalfExtent.Y + b.HalfExtent.Y - math.Abs(d.Y)
		if px < py {
			assert.Zero(t, r.Normal.Y)
			assert.Equal(t, sign(d.X), r.Normal.X)
		} else {
			assert.Zero(t, r.Normal.X)
			assert.Equal(t, sign(d.Y), r.Normal.Y)
		}
	}
}

func TestCircleRectangle(t *testing.T) {
	c := NewCircle(10)
	rect := NewRectangle(40, 20)

	r := Collide(c, vmath.Vec(0, -18), rect, vmath.Zero)
	require.True(t, r.Collided)
	assert.Equal(t, vmath.Vec(0, -1), r.Normal)

	r = Collide(c, vmath.Vec(0, -21), rect, vmath.Zero)
	assert.False(t, r.Collided)

	// Center inside: shallower axis wins.
	r = Collide(c, vmath.Vec(17, 1), rect, vmath.Zero)
	require.True(t, r.Collided)
	assert.Equal(t, vmath.Vec(1, 0), r.Normal)

	// Reversed order inverts the normal.
	r = Collide(rect, vmath.Zero, c, vmath.Vec(0, -18))
	require.True(t, r.Collided)
	assert.Equal(t, vmath.Vec(0, 1), r.Normal)
}

func TestPolygonPolygonSeparated(t *testing.T) {
	a, b := square(10), square(10)
	assert.False(t, Collide(a, vmath.Vec(0, 0), b, vmath.Vec(25, 0)).Collided)
	assert.False(t, Collide(a, vmath.Vec(0, 0), b, vmath.Vec(0, -21)).Collided)

	tri := NewPolygon([]vmath.Vector2{{X: 0, Y: -10}, {X: 10, Y: 10}, {X: -10, Y: 10}})
	// Bounding boxes overlap but a triangle edge separates them.
	assert.False(t, Collide(tri, vmath.Vec(0, 0), b, vmath.Vec(14, -14)).Collided)
}

func TestPolygonPolygonOrientation(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	hex := NewPolygon([]vmath.Vector2{
		{X: 20, Y: 0}, {X: 10, Y: 17}, {X: -10, Y: 17},
		{X: -20, Y: 0}, {X: -10, Y: -17}, {X: 10, Y: -17},
	})
	sq := square(12)

	hits := 0
	for range 500 {
		la := vmath.Vec(rng.Float64()*60-30, rng.Float64()*60-30)
		lb := vmath.Vec(rng.Float64()*60-30, rng.Float64()*60-30)
		r := Collide(hex, la, sq, lb)
		if !r.Collided {
			continue
		}
		hits++
		assert.GreaterOrEqual(t, r.Normal.Dot(la.Sub(lb)), 0.0)
		assert.InDelta(t, 1, r.Normal.Len(), 1e-9)
		assert.Equal(t, sq.Owner(), r.Hit)
	}
	assert.Positive(t, hits)
}

func TestPolygonCircleAndRectangle(t *testing.T) {
	sq := square(10)
	c := NewCircle(5)

	r := Collide(sq, vmath.Zero, c, vmath.Vec(0, 13))
	require.True(t, r.Collided)
	assert.True(t, r.Normal.ApproxEqual(vmath.Vec(0, -1), 1e-9), r.Normal.String())

	// Near a corner, the vertex axis separates.
	assert.False(t, Collide(sq, vmath.Zero, c, vmath.Vec(14, 14)).Collided)

	r = Collide(c, vmath.Vec(13, 0), sq, vmath.Zero)
	require.True(t, r.Collided)
	assert.True(t, r.Normal.ApproxEqual(vmath.Vec(1, 0), 1e-9), r.Normal.String())

	rect := NewRectangle(40, 10)
	r = Collide(sq, vmath.Vec(0, -14), rect, vmath.Zero)
	require.True(t, r.Collided)
	assert.True(t, r.Normal.ApproxEqual(vmath.Vec(0, -1), 1e-9), r.Normal.String())

	r = Collide(rect, vmath.Zero, sq, vmath.Vec(0, -14))
	require.True(t, r.Collided)
	assert.True(t, r.Normal.ApproxEqual(vmath.Vec(0, 1), 1e-9), r.Normal.String())

	assert.False(t, Collide(sq, vmath.Vec(0, -16), rect, vmath.Zero).Collided)
}

func TestPolygonNeedsThreeVertices(t *testing.T) {
	assert.Panics(t, func() { NewPolygon(nil) })
	assert.Panics(t, func() { NewPolygon([]vmath.Vector2{{X: 1}, {Y: 1}}) })
}

func TestShapeArea(t *testing.T) {
	assert.InDelta(t, math.Pi*4, NewCircle(2).Area(), 1e-12)
	assert.Equal(t, 200.0, NewRectangle(20, 10).Area())
	assert.Equal(t, 400.0, square(10).Area())
	assert.InDelta(t, 50.0, NewPolygon([]vmath.Vector2{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}).Area(), 1e-12)
}

func TestBorderNormal(t *testing.T) {
	view := View{Location: vmath.Vec(0, 0), Size: vmath.Vec(800, 600)}
	c := NewCircle(10)

	assert.Equal(t, vmath.Zero, BorderNormal(c, vmath.Vec(400, 300), view))
	assert.Equal(t, vmath.Vec(1, 0), BorderNormal(c, vmath.Vec(5, 300), view))
	assert.Equal(t, vmath.Vec(-1, 0), BorderNormal(c, vmath.Vec(795, 300), view))
	assert.Equal(t, vmath.Vec(0, -1), BorderNormal(c, vmath.Vec(400, 595), view))
	assert.Equal(t, vmath.Vec(1, 1), BorderNormal(NewRectangle(20, 20), vmath.Vec(5, 5), view))
	assert.Equal(t, vmath.Vec(0, 1), BorderNormal(square(10), vmath.Vec(400, 5), view))
}
