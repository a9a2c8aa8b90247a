package physics

import (
	"math"
	"slices"

	"github.com/tomz197/chaosjump/internal/vmath"
)

const (
	// MaxStepDelta is the longest step simulated; longer frames move by zero.
	MaxStepDelta = 1.0

	// dampingCutoff snaps damped velocity components to zero.
	dampingCutoff = 1e-4

	// neverMoved is the last-move frame of a body that has not moved yet.
	neverMoved = math.MaxUint64
)

// Controller runs before a body's own tick. Returning false skips the tick.
type Controller interface {
	Control(b *Body, dt float64) bool
}

// ControllerFunc adapts a function to Controller.
type ControllerFunc func(b *Body, dt float64) bool

// Control calls f(b, dt).
func (f ControllerFunc) Control(b *Body, dt float64) bool {
	return f(b, dt)
}

// ContactHandler receives contact events. other is NoBody for the window border.
type ContactHandler interface {
	// OnHit fires after the elastic response of a blocking or border contact.
	OnHit(b *Body, other BodyID, normal vmath.Vector2)
	// OnBegin fires once when a non-blocking contact starts being tracked.
	OnBegin(b *Body, other BodyID, normal vmath.Vector2)
	// OnUpdate fires every tick a tracked contact persists.
	OnUpdate(b *Body, other BodyID, normal vmath.Vector2)
	// OnEnd fires once when a tracked contact separates or its counterpart is gone.
	OnEnd(b *Body, other BodyID)
}

// NopContactHandler implements ContactHandler with no-ops. Embed it to override a subset.
type NopContactHandler struct{}

func (NopContactHandler) OnHit(*Body, BodyID, vmath.Vector2)    {}
func (NopContactHandler) OnBegin(*Body, BodyID, vmath.Vector2)  {}
func (NopContactHandler) OnUpdate(*Body, BodyID, vmath.Vector2) {}
func (NopContactHandler) OnEnd(*Body, BodyID)                   {}

// Body is a simulated object: a shape placed in the world with velocity,
// mass and a collision category.
type Body struct {
	world *World
	id    BodyID
	shape Shape

	location vmath.Vector2
	velocity vmath.Vector2
	gravity  vmath.Vector2
	damping  vmath.Vector2 // Per second, per axis

	area    float64
	density float64

	category  Category
	responses ResponseConfig
	canMove   bool
	collideX  bool // Window border on the x axis
	collideY  bool // Window border on the y axis

	contacts      []BodyID // Tracked contacts, NoBody for the border
	lastMoveFrame uint64
	destroyed     bool

	handler    ContactHandler
	controller Controller
}

// ID returns the body's handle.
func (b *Body) ID() BodyID { return b.id }

// World returns the owning world.
func (b *Body) World() *World { return b.world }

// Shape returns the collision shape.
func (b *Body) Shape() Shape { return b.shape }

// Destroyed reports whether the body was removed from its world.
func (b *Body) Destroyed() bool { return b.destroyed }

func (b *Body) Location() vmath.Vector2      { return b.location }
func (b *Body) Velocity() vmath.Vector2      { return b.velocity }
func (b *Body) Gravity() vmath.Vector2       { return b.gravity }
func (b *Body) Damping() vmath.Vector2       { return b.damping }
func (b *Body) Category() Category           { return b.category }
func (b *Body) CanMove() bool                { return b.canMove }
func (b *Body) Area() float64                { return b.area }
func (b *Body) Density() float64             { return b.density }
func (b *Body) Responses() ResponseConfig    { return b.responses }
func (b *Body) Response(c Category) Response { return b.responses[c] }

// Mass returns area times density.
func (b *Body) Mass() float64 { return b.area * b.density }

func (b *Body) SetLocation(l vmath.Vector2) { b.location = l }
func (b *Body) SetVelocity(v vmath.Vector2) { b.velocity = v }
func (b *Body) SetGravity(g vmath.Vector2)  { b.gravity = g }

// SetDamping sets the exponential velocity decay per second for each axis.
func (b *Body) SetDamping(d vmath.Vector2) { b.damping = d }

// SetCanMove toggles integration. Static bodies still block others.
func (b *Body) SetCanMove(canMove bool) { b.canMove = canMove }

// SetArea sets the area used for mass. Negative values clamp to zero.
func (b *Body) SetArea(area float64) { b.area = math.Max(area, 0) }

// SetDensity sets the density used for mass. Negative values clamp to zero.
func (b *Body) SetDensity(density float64) { b.density = math.Max(density, 0) }

// SetCanCollideWithWindowBorder enables the window border per axis.
func (b *Body) SetCanCollideWithWindowBorder(x, y bool) {
	b.collideX = x
	b.collideY = y
}

// CollidesWithWindowBorder returns the per-axis border flags.
func (b *Body) CollidesWithWindowBorder() (x, y bool) { return b.collideX, b.collideY }

// SetCategory moves the body to another bucket and resets its responses to
// that category's defaults.
func (b *Body) SetCategory(c Category) {
	responses := DefaultResponses(c)
	b.world.removeFromBucket(b)
	b.category = c
	b.responses = responses
	b.world.buckets[c] = append(b.world.buckets[c], b.id)
}

// SetResponse overrides this body's response to category c.
func (b *Body) SetResponse(c Category, r Response) { b.responses[c] = r }

// SetHandler sets the contact event receiver.
func (b *Body) SetHandler(h ContactHandler) { b.handler = h }

// SetController sets the hook run before each tick.
func (b *Body) SetController(c Controller) { b.controller = c }

// Contacts returns the tracked contacts. Do not modify.
func (b *Body) Contacts() []BodyID { return b.contacts }

// InContact reports whether other is a tracked contact.
func (b *Body) InContact(other BodyID) bool {
	return slices.Contains(b.contacts, other)
}

// Tick runs the controller, refreshes tracked contacts and moves the body.
func (b *Body) Tick(dt float64) {
	if b.controller != nil && !b.controller.Control(b, dt) {
		return
	}
	b.updateContacts(dt)
	if b.canMove {
		b.move(dt)
	}
}

// MoveLocation returns where the body would be after dt. A body that already
// moved this frame stays where it is.
func (b *Body) MoveLocation(dt float64) vmath.Vector2 {
	if b.lastMoveFrame == b.world.frame {
		return b.location
	}
	return b.location.Add(b.velocity.Scale(dt))
}

// CollisionAt queries the window border and every non-ignored bucket at location.
// Tracked contacts are skipped.
func (b *Body) CollisionAt(location vmath.Vector2) Result {
	if (b.collideX || b.collideY) && !b.InContact(NoBody) {
		if r := b.borderAt(location); r.Collided {
			return r
		}
	}

	w := b.world
	for c := range NumCategories {
		response := b.responses[c]
		if response == Ignore {
			continue
		}
		for _, id := range w.buckets[c] {
			if id == b.id || b.InContact(id) {
				continue
			}
			other := w.slots[id.index].body
			r := Collide(b.shape, location, other.shape, other.location)
			if !r.Collided {
				continue
			}
			if r.Normal.IsAlmostZero(vmath.Epsilon) {
				r.Normal = fallbackNormal(b.location, other.location)
			}
			r.Blocked = response == Block
			return r
		}
	}
	return Result{}
}

// borderAt tests the window border with the disabled axes masked out.
func (b *Body) borderAt(location vmath.Vector2) Result {
	n := BorderNormal(b.shape, location, b.world.view)
	if !b.collideX {
		n.X = 0
	}
	if !b.collideY {
		n.Y = 0
	}
	normal, ok := n.SafeNormalize()
	if !ok {
		return Result{}
	}
	return Result{Hit: NoBody, Collided: true, Normal: normal}
}

// fallbackNormal separates shapes that share a center using the pre-move locations.
func fallbackNormal(self, other vmath.Vector2) vmath.Vector2 {
	if n, ok := self.Sub(other).SafeNormalize(); ok {
		return n
	}
	return vmath.Vec(0, -1)
}

func (b *Body) updateContacts(dt float64) {
	if len(b.contacts) == 0 {
		return
	}
	location := b.MoveLocation(dt)

	var ended []BodyID
	for _, id := range b.contacts {
		var r Result
		if id.IsZero() {
			r = b.borderAt(location)
		} else if other := b.world.Body(id); other != nil {
			r = Collide(b.shape, location, other.shape, other.location)
		}
		if !r.Collided {
			ended = append(ended, id)
			continue
		}
		if b.handler != nil {
			b.handler.OnUpdate(b, id, r.Normal)
		}
	}

	for _, id := range ended {
		b.contacts = slices.DeleteFunc(b.contacts, func(c BodyID) bool { return c == id })
		if b.handler != nil {
			b.handler.OnEnd(b, id)
		}
	}
}

func (b *Body) move(dt float64) {
	if dt > MaxStepDelta {
		dt = 0
	}

	location := b.MoveLocation(dt)
	r := b.CollisionAt(location)

	b.velocity = applyDamping(b.velocity, b.damping, dt)
	b.lastMoveFrame = b.world.frame

	if !r.Blocked {
		b.location = location
		b.velocity.AddInPlace(b.gravity.Scale(dt))
	}
	if !r.Collided {
		return
	}

	// Both sides respond to the velocities from before the collision.
	selfVelocity := b.velocity
	other := b.world.Body(r.Hit)
	counter := counterpart{static: true}
	if other != nil {
		counter = counterpart{velocity: other.velocity, mass: other.Mass(), static: !other.canMove}
		if inverted := b.inverted(r, other); inverted.Collided {
			other.beginContact(inverted, counterpart{velocity: selfVelocity, mass: b.Mass(), static: !b.canMove})
		}
	}
	b.beginContact(r, counter)

	if r.Blocked && counter.static {
		b.velocity = stopInto(b.velocity, r.Normal)
	}
}

// inverted builds the counterpart's view of r using its own response table.
func (b *Body) inverted(r Result, other *Body) Result {
	response := other.responses[b.category]
	inv := Result{
		Hit:      b.id,
		Collided: response != Ignore,
		Blocked:  response == Block,
	}
	if inv.Collided {
		inv.Normal = r.Normal.Neg()
	}
	return inv
}

// counterpart is the state of the other side of a contact, captured before either responds.
type counterpart struct {
	velocity vmath.Vector2
	mass     float64
	static   bool
}

// beginContact records a new contact. Blocking contacts fire OnHit, overlaps
// fire OnBegin, and the window border fires both.
func (b *Body) beginContact(r Result, c counterpart) {
	if b.InContact(r.Hit) {
		return
	}
	b.contacts = append(b.contacts, r.Hit)

	if r.Blocked || r.Hit.IsZero() {
		if b.canMove {
			b.velocity = elasticResponse(b.Mass(), b.velocity, c, r.Normal)
		}
		if b.handler != nil {
			b.handler.OnHit(b, r.Hit, r.Normal)
		}
	}
	if b.handler != nil && !r.Blocked {
		b.handler.OnBegin(b, r.Hit, r.Normal)
	}
}

// elasticResponse returns the post-collision velocity of a body with mass m
// and velocity v hitting c along normal n. Separating bodies are unchanged.
func elasticResponse(m float64, v vmath.Vector2, c counterpart, n vmath.Vector2) vmath.Vector2 {
	counterVelocity := c.velocity
	factor := 2.0
	if c.static {
		counterVelocity = vmath.Zero
	} else if total := m + c.mass; total > 0 {
		factor = 2 * c.mass / total
	} else {
		factor = 1
	}

	approach := v.Sub(counterVelocity).Dot(n)
	if approach >= 0 {
		return v
	}
	return v.Sub(n.Scale(factor * approach))
}

// stopInto zeroes the velocity components that point against the normal.
func stopInto(v, n vmath.Vector2) vmath.Vector2 {
	if (n.X > 0 && v.X < 0) || (n.X < 0 && v.X > 0) {
		v.X = 0
	}
	if (n.Y > 0 && v.Y < 0) || (n.Y < 0 && v.Y > 0) {
		v.Y = 0
	}
	return v
}

// applyDamping decays each axis by e^(-d*dt), snapping to zero below the cutoff.
func applyDamping(v, damping vmath.Vector2, dt float64) vmath.Vector2 {
	return vmath.Vec(dampAxis(v.X, damping.X, dt), dampAxis(v.Y, damping.Y, dt))
}

func dampAxis(v, d, dt float64) float64 {
	if d <= 0 {
		return v
	}
	factor := math.Exp(-d * dt)
	if factor < dampingCutoff {
		return 0
	}
	v *= factor
	if math.Abs(v) < dampingCutoff {
		return 0
	}
	return v
}
