package physics

import (
	"math"

	"github.com/tomz197/chaosjump/internal/vmath"
)

// Result is the outcome of a collision query.
// Normal points away from the hit shape, toward the queried one.
type Result struct {
	Hit      BodyID // Owner of the hit shape; NoBody for the window border
	Collided bool
	Blocked  bool
	Normal   vmath.Vector2
}

// View is the camera viewport in world space, used as the window border.
type View struct {
	Location vmath.Vector2 // Top-left corner
	Size     vmath.Vector2
}

// Contains reports whether p lies inside the view.
func (v View) Contains(p vmath.Vector2) bool {
	end := v.Location.Add(v.Size)
	return p.X >= v.Location.X && p.X <= end.X && p.Y >= v.Location.Y && p.Y <= end.Y
}

// pairFunc tests shape a at la against shape b at lb.
type pairFunc func(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2)

var pairTable = [numKinds][numKinds]pairFunc{
	KindCircle: {
		KindCircle:    circleCircle,
		KindRectangle: circleRectangle,
		KindPolygon:   reversed(polygonCircle),
	},
	KindRectangle: {
		KindCircle:    reversed(circleRectangle),
		KindRectangle: rectangleRectangle,
		KindPolygon:   reversed(polygonRectangle),
	},
	KindPolygon: {
		KindCircle:    polygonCircle,
		KindRectangle: polygonRectangle,
		KindPolygon:   polygonPolygon,
	},
}

// reversed adapts a canonical routine to the swapped argument order.
func reversed(f pairFunc) pairFunc {
	return func(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2) {
		ok, n := f(b, lb, a, la)
		return ok, n.Neg()
	}
}

// Collide tests shape a at la against shape b at lb. The result's Hit is b's owner.
// A collided result may carry a zero normal when the shapes share a center.
func Collide(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) Result {
	ok, n := pairTable[a.Kind()][b.Kind()](a, la, b, lb)
	if !ok {
		return Result{}
	}
	return Result{Hit: b.Owner(), Collided: true, Normal: n}
}

func circleCircle(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2) {
	ca, cb := a.(*Circle), b.(*Circle)
	d := la.Sub(lb)
	r := ca.Radius + cb.Radius
	if d.LenSqr() >= r*r {
		return false, vmath.Zero
	}
	return true, d.Normalized()
}

func circleRectangle(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2) {
	c, r := a.(*Circle), b.(*Rectangle)
	closest := la.Clamp(lb.Sub(r.HalfExtent), lb.Add(r.HalfExtent))
	d := la.Sub(closest)
	if d.LenSqr() > c.Radius*c.Radius {
		return false, vmath.Zero
	}
	if n, ok := d.SafeNormalize(); ok {
		return true, n
	}

	// Center inside the rectangle: push out along the shallower axis.
	local := la.Sub(lb)
	px := r.HalfExtent.X - math.Abs(local.X)
	py := r.HalfExtent.Y - math.Abs(local.Y)
	if px < py {
		return true, vmath.Vec(sign(local.X), 0)
	}
	return true, vmath.Vec(0, sign(local.Y))
}

func rectangleRectangle(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2) {
	ra, rb := a.(*Rectangle), b.(*Rectangle)
	d := la.Sub(lb)
	px := ra.HalfExtent.X + rb.HalfExtent.X - math.Abs(d.X)
	py := ra.HalfExtent.Y + rb.HalfExtent.Y - math.Abs(d.Y)
	if px <= 0 || py <= 0 {
		return false, vmath.Zero
	}
	if px < py {
		return true, vmath.Vec(sign(d.X), 0)
	}
	return true, vmath.Vec(0, sign(d.Y))
}

func polygonPolygon(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2) {
	pa, pb := a.(*Polygon), b.(*Polygon)
	s := satSearch{}
	if !s.test(a, la, b, lb, pa.normals) || !s.test(a, la, b, lb, pb.normals) {
		return false, vmath.Zero
	}
	return true, orient(s.axis, la.Add(pa.centroid), lb.Add(pb.centroid))
}

func polygonCircle(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2) {
	p := a.(*Polygon)
	s := satSearch{}
	if !s.test(a, la, b, lb, p.normals) {
		return false, vmath.Zero
	}

	// The circle contributes the axis from the nearest vertex to its center.
	vertex := la.Add(p.closestVertex(lb.Sub(la)))
	if axis, ok := lb.Sub(vertex).SafeNormalize(); ok {
		if !s.test(a, la, b, lb, []vmath.Vector2{axis}) {
			return false, vmath.Zero
		}
	}
	return true, orient(s.axis, la.Add(p.centroid), lb)
}

var rectangleAxes = []vmath.Vector2{{X: 1, Y: 0}, {X: 0, Y: 1}}

func polygonRectangle(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2) (bool, vmath.Vector2) {
	p := a.(*Polygon)
	s := satSearch{}
	if !s.test(a, la, b, lb, p.normals) || !s.test(a, la, b, lb, rectangleAxes) {
		return false, vmath.Zero
	}
	return true, orient(s.axis, la.Add(p.centroid), lb)
}

// satSearch tracks the axis of minimum penetration across tested axes.
type satSearch struct {
	axis  vmath.Vector2
	depth float64
	found bool
}

// test projects both shapes on every axis. It returns false on the first separating axis.
func (s *satSearch) test(a Shape, la vmath.Vector2, b Shape, lb vmath.Vector2, axes []vmath.Vector2) bool {
	for _, axis := range axes {
		ia := a.Project(la, axis)
		ib := b.Project(lb, axis)
		if !ia.Overlaps(ib) {
			return false
		}
		if d := ia.Depth(ib); !s.found || d < s.depth {
			s.axis, s.depth, s.found = axis, d, true
		}
	}
	return true
}

// orient flips axis so it points from centerB toward centerA.
func orient(axis, centerA, centerB vmath.Vector2) vmath.Vector2 {
	if axis.Dot(centerA.Sub(centerB)) < 0 {
		return axis.Neg()
	}
	return axis
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// BorderNormal tests a shape at location against the view edges.
// Each axis contributes +1 or -1 pointing back into the view; the result is not normalized.
func BorderNormal(s Shape, location vmath.Vector2, view View) vmath.Vector2 {
	lo, hi := s.Bounds()
	lo = lo.Add(location)
	hi = hi.Add(location)
	viewMax := view.Location.Add(view.Size)

	var n vmath.Vector2
	switch {
	case lo.X < view.Location.X:
		n.X = 1
	case hi.X > viewMax.X:
		n.X = -1
	}
	switch {
	case lo.Y < view.Location.Y:
		n.Y = 1
	case hi.Y > viewMax.Y:
		n.Y = -1
	}
	return n
}
