package physics

import (
	"fmt"
	"math"

	"github.com/tomz197/chaosjump/internal/vmath"
)

// ShapeKind tags the concrete shape type for pair dispatch.
type ShapeKind uint8

const (
	KindCircle ShapeKind = iota
	KindRectangle
	KindPolygon

	numKinds
)

// String implements fmt.Stringer.
func (k ShapeKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindRectangle:
		return "rectangle"
	case KindPolygon:
		return "polygon"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Interval is a projection of a shape onto an axis.
type Interval struct {
	Min, Max float64
}

// Overlaps reports whether the intervals share more than a single point.
func (i Interval) Overlaps(o Interval) bool {
	return i.Max > o.Min && o.Max > i.Min
}

// Depth returns how far the intervals overlap; negative if they don't.
func (i Interval) Depth(o Interval) float64 {
	return math.Min(i.Max-o.Min, o.Max-i.Min)
}

// Shape is a convex collision shape. A shape belongs to exactly one body.
type Shape interface {
	// Kind returns the dispatch tag.
	Kind() ShapeKind
	// Project projects the shape placed at location onto axis.
	Project(location, axis vmath.Vector2) Interval
	// Bounds returns the axis-aligned extent relative to the shape's location.
	Bounds() (min, max vmath.Vector2)
	// BoundingRadius returns the distance from the location to the farthest point.
	BoundingRadius() float64
	// Area returns the surface area.
	Area() float64
	// Owner returns the body the shape is attached to.
	Owner() BodyID

	setOwner(id BodyID)
}

type shapeBase struct {
	owner BodyID
}

func (s *shapeBase) Owner() BodyID      { return s.owner }
func (s *shapeBase) setOwner(id BodyID) { s.owner = id }

// Circle is a circle centered on its location.
type Circle struct {
	shapeBase
	Radius float64
}

// NewCircle creates a circle shape.
func NewCircle(radius float64) *Circle {
	return &Circle{Radius: radius}
}

func (c *Circle) Kind() ShapeKind { return KindCircle }

func (c *Circle) Project(location, axis vmath.Vector2) Interval {
	center := location.Dot(axis)
	return Interval{Min: center - c.Radius, Max: center + c.Radius}
}

func (c *Circle) Bounds() (vmath.Vector2, vmath.Vector2) {
	return vmath.Vec(-c.Radius, -c.Radius), vmath.Vec(c.Radius, c.Radius)
}

func (c *Circle) BoundingRadius() float64 { return c.Radius }

func (c *Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// Rectangle is an axis-aligned rectangle centered on its location.
type Rectangle struct {
	shapeBase
	HalfExtent vmath.Vector2
}

// NewRectangle creates a rectangle shape from its full width and height.
func NewRectangle(width, height float64) *Rectangle {
	return &Rectangle{HalfExtent: vmath.Vec(width/2, height/2)}
}

func (r *Rectangle) Kind() ShapeKind { return KindRectangle }

func (r *Rectangle) Project(location, axis vmath.Vector2) Interval {
	center := location.Dot(axis)
	extent := math.Abs(r.HalfExtent.X*axis.X) + math.Abs(r.HalfExtent.Y*axis.Y)
	return Interval{Min: center - extent, Max: center + extent}
}

func (r *Rectangle) Bounds() (vmath.Vector2, vmath.Vector2) {
	return r.HalfExtent.Neg(), r.HalfExtent
}

func (r *Rectangle) BoundingRadius() float64 { return r.HalfExtent.Len() }

func (r *Rectangle) Area() float64 { return 4 * r.HalfExtent.X * r.HalfExtent.Y }

// Corners returns the four corners relative to the location, clockwise from top-left.
func (r *Rectangle) Corners() [4]vmath.Vector2 {
	h := r.HalfExtent
	return [4]vmath.Vector2{
		{X: -h.X, Y: -h.Y},
		{X: h.X, Y: -h.Y},
		{X: h.X, Y: h.Y},
		{X: -h.X, Y: h.Y},
	}
}

// Polygon is a convex polygon with vertices relative to its location.
type Polygon struct {
	shapeBase
	vertices []vmath.Vector2
	normals  []vmath.Vector2 // Unit edge normals, degenerate edges skipped
	centroid vmath.Vector2
	radius   float64
	min, max vmath.Vector2
}

// NewPolygon creates a convex polygon. It panics on fewer than three vertices.
func NewPolygon(vertices []vmath.Vector2) *Polygon {
	if len(vertices) < 3 {
		panic(fmt.Sprintf("physics: polygon needs at least 3 vertices, got %d", len(vertices)))
	}

	p := &Polygon{vertices: append([]vmath.Vector2(nil), vertices...)}

	prev := p.vertices[len(p.vertices)-1]
	p.min, p.max = prev, prev
	for _, v := range p.vertices {
		if n, ok := v.Sub(prev).Perp().SafeNormalize(); ok {
			p.normals = append(p.normals, n)
		}
		p.centroid.AddInPlace(v)
		p.radius = math.Max(p.radius, v.Len())
		p.min = vmath.Vec(math.Min(p.min.X, v.X), math.Min(p.min.Y, v.Y))
		p.max = vmath.Vec(math.Max(p.max.X, v.X), math.Max(p.max.Y, v.Y))
		prev = v
	}
	p.centroid.ScaleInPlace(1 / float64(len(p.vertices)))

	return p
}

func (p *Polygon) Kind() ShapeKind { return KindPolygon }

func (p *Polygon) Project(location, axis vmath.Vector2) Interval {
	base := location.Dot(axis)
	first := p.vertices[0].Dot(axis)
	in := Interval{Min: first, Max: first}
	for _, v := range p.vertices[1:] {
		d := v.Dot(axis)
		in.Min = math.Min(in.Min, d)
		in.Max = math.Max(in.Max, d)
	}
	in.Min += base
	in.Max += base
	return in
}

func (p *Polygon) Bounds() (vmath.Vector2, vmath.Vector2) { return p.min, p.max }

func (p *Polygon) BoundingRadius() float64 { return p.radius }

// Area uses the shoelace formula.
func (p *Polygon) Area() float64 {
	var sum float64
	prev := p.vertices[len(p.vertices)-1]
	for _, v := range p.vertices {
		sum += prev.Cross(v)
		prev = v
	}
	return math.Abs(sum) / 2
}

// Vertices returns the vertices relative to the location. Do not modify.
func (p *Polygon) Vertices() []vmath.Vector2 { return p.vertices }

// Normals returns the cached unit edge normals. Do not modify.
func (p *Polygon) Normals() []vmath.Vector2 { return p.normals }

// Centroid returns the vertex average relative to the location.
func (p *Polygon) Centroid() vmath.Vector2 { return p.centroid }

// closestVertex returns the vertex nearest to point, both relative to the location.
func (p *Polygon) closestVertex(point vmath.Vector2) vmath.Vector2 {
	best := p.vertices[0]
	bestDist := vmath.DistanceSquared(point, best)
	for _, v := range p.vertices[1:] {
		if d := vmath.DistanceSquared(point, v); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}
