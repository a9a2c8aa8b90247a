package physics

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tomz197/chaosjump/internal/tick"
	"github.com/tomz197/chaosjump/internal/vmath"
)

// BodyTickOrder is the scheduler order bodies are registered with.
const BodyTickOrder uint8 = 100

// DefaultGravity is the gravity new bodies start with, in units per second squared.
var DefaultGravity = vmath.Vec(0, 981)

// BodyID is a generation-checked handle to a body in a World.
// The zero value never refers to a live body.
type BodyID struct {
	index uint32
	gen   uint32
}

// NoBody is the zero handle. As a contact it stands for the window border.
var NoBody BodyID

// IsZero reports whether id is NoBody.
func (id BodyID) IsZero() bool {
	return id == NoBody
}

// String implements fmt.Stringer.
func (id BodyID) String() string {
	if id.IsZero() {
		return "border"
	}
	return fmt.Sprintf("body#%d.%d", id.index, id.gen)
}

type slot struct {
	body *Body
	gen  uint32
}

// World owns bodies, their category buckets and the tick scheduler.
// It is not safe for concurrent use; the simulation runs on a single goroutine.
type World struct {
	slots     []slot
	free      []uint32
	buckets   [NumCategories][]BodyID
	scheduler *tick.Scheduler
	view      View
	frame     uint64
	gravity   vmath.Vector2
	logger    *zap.Logger
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

// WithGravity sets the gravity new bodies start with.
func WithGravity(g vmath.Vector2) Option {
	return func(w *World) {
		w.gravity = g
	}
}

// WithView sets the initial window border.
func WithView(v View) Option {
	return func(w *World) {
		w.view = v
	}
}

// NewWorld creates an empty world.
func NewWorld(opts ...Option) *World {
	w := &World{
		scheduler: tick.NewScheduler(),
		gravity:   DefaultGravity,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scheduler returns the tick scheduler bodies and gameplay objects run on.
func (w *World) Scheduler() *tick.Scheduler {
	return w.scheduler
}

// Logger returns the world's logger.
func (w *World) Logger() *zap.Logger {
	return w.logger
}

// Frame returns the number of completed Step calls.
func (w *World) Frame() uint64 {
	return w.frame
}

// View returns the current window border.
func (w *World) View() View {
	return w.view
}

// SetView moves the window border.
func (w *World) SetView(v View) {
	w.view = v
}

// Step advances the frame counter and runs one tick pass.
func (w *World) Step(dt float64) {
	w.frame++
	w.scheduler.Tick(dt)
}

// NewBody creates a body of category Obstacle owning shape and registers it
// with its bucket and the scheduler. It panics if shape already has an owner.
func (w *World) NewBody(shape Shape) *Body {
	if shape == nil {
		panic("physics: body needs a shape")
	}
	if !shape.Owner().IsZero() {
		panic(fmt.Sprintf("physics: shape already owned by %s", shape.Owner()))
	}

	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		index = uint32(len(w.slots))
		w.slots = append(w.slots, slot{})
	}
	s := &w.slots[index]
	s.gen++ // Starts at 1 so no live handle equals NoBody

	b := &Body{
		world:     w,
		id:        BodyID{index: index, gen: s.gen},
		shape:     shape,
		gravity:   w.gravity,
		area:      shape.Area(),
		density:   1,
		category:  Obstacle,
		responses: DefaultResponses(Obstacle),
		canMove:   true,

		lastMoveFrame: neverMoved,
	}
	s.body = b
	shape.setOwner(b.id)

	w.buckets[b.category] = append(w.buckets[b.category], b.id)
	w.scheduler.AddWithOrder(b, BodyTickOrder)

	w.logger.Debug("body created",
		zap.Stringer("id", b.id),
		zap.Stringer("shape", shape.Kind()),
	)
	return b
}

// Body resolves a handle. It returns nil for NoBody and for destroyed bodies.
func (w *World) Body(id BodyID) *Body {
	if id.IsZero() || int(id.index) >= len(w.slots) {
		return nil
	}
	s := w.slots[id.index]
	if s.gen != id.gen || s.body == nil {
		return nil
	}
	return s.body
}

// Alive reports whether id refers to a live body.
func (w *World) Alive(id BodyID) bool {
	return w.Body(id) != nil
}

// Bodies returns the live bodies of a category in creation order. Do not modify.
func (w *World) Bodies(c Category) []BodyID {
	return w.buckets[c]
}

// Count returns the number of live bodies.
func (w *World) Count() int {
	n := 0
	for _, b := range w.buckets {
		n += len(b)
	}
	return n
}

// Destroy removes a body from its bucket and the scheduler and invalidates its handle.
// Contacts other bodies hold on it end on their next tick. Destroying twice panics.
func (w *World) Destroy(b *Body) {
	if b == nil || b.destroyed {
		panic("physics: body destroyed twice")
	}
	w.removeFromBucket(b)
	w.scheduler.Remove(b)

	s := &w.slots[b.id.index]
	s.body = nil
	s.gen++
	w.free = append(w.free, b.id.index)
	b.destroyed = true

	w.logger.Debug("body destroyed", zap.Stringer("id", b.id))
}

func (w *World) removeFromBucket(b *Body) {
	bucket := w.buckets[b.category]
	for i, id := range bucket {
		if id == b.id {
			w.buckets[b.category] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("physics: %s missing from %s bucket", b.id, b.category))
}
