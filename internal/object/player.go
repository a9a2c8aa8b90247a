package object

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/tomz197/chaosjump/internal/draw"
	"github.com/tomz197/chaosjump/internal/input"
	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

// PlayerTypeID identifies players in replication frames.
const PlayerTypeID uint8 = 5

// playerPayloadSize is the location (2x float64) plus the dead flag.
const playerPayloadSize = 17

// hitDamping scales the player's velocity on every non-fatal hit.
const hitDamping = 0.8

// movementKeys maps each movement key to its input direction.
var movementKeys = map[input.Key]vmath.Vector2{
	input.Key('a'): {X: -1},
	input.KeyLeft:  {X: -1},
	input.Key('d'): {X: 1},
	input.KeyRight: {X: 1},
	input.Key('s'): {Y: 1},
	input.KeyDown:  {Y: 1},
}

// pentagon is the player outline at size 1.
var pentagon = []vmath.Vector2{
	{X: 0, Y: -50},
	{X: -47.5528, Y: -15.4508},
	{X: -29.3893, Y: 40.4508},
	{X: 29.3893, Y: 40.4508},
	{X: 47.5528, Y: -15.4508},
}

// PlayerConfig tunes the player.
type PlayerConfig struct {
	Size            float64
	Spawn           vmath.Vector2
	Speed           float64       // Input acceleration, units per second squared
	MinJumpVelocity float64       // Upward speed enforced when bouncing off a surface
	Damping         vmath.Vector2 // Per second, per axis
}

// DefaultPlayerConfig returns the standard player tuning.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		Size:            1,
		Spawn:           vmath.Vec(0, 200),
		Speed:           5000,
		MinJumpVelocity: 500,
		Damping:         vmath.Vec(5, 0),
	}
}

// Player is the jumping pentagon. A locally owned player reads input and
// simulates; a remote one only follows replicated state.
type Player struct {
	*Object
	physics.NopContactHandler
	input.NopReceiver

	cfg           PlayerConfig
	held          map[input.Key]bool
	movement      vmath.Vector2 // Input direction, x in [-1, 1], y in {0, 1}
	reachedHeight float64
	dead          bool
	local         bool
}

// NewPlayer creates a remote player at the spawn location. Call SetLocallyOwned
// to simulate it.
func NewPlayer(w *physics.World, cfg PlayerConfig) *Player {
	vertices := make([]vmath.Vector2, len(pentagon))
	for i, v := range pentagon {
		vertices[i] = v.Scale(cfg.Size)
	}

	p := &Player{
		Object: NewPolygon(w, vertices),
		cfg:    cfg,
		held:   make(map[input.Key]bool, len(movementKeys)),
	}
	p.SetCategory(physics.Player)
	p.SetDamping(cfg.Damping)
	p.SetLocation(cfg.Spawn)
	p.SetHandler(p)
	p.SetController(p)
	p.setDead(false)
	return p
}

// TypeID implements netplay.Replicable.
func (p *Player) TypeID() uint8 {
	return PlayerTypeID
}

// Dead reports whether the player fell out of the view.
func (p *Player) Dead() bool {
	return p.dead
}

// ReachedHeight returns the best height above spawn, in hundreds of units.
func (p *Player) ReachedHeight() float64 {
	return p.reachedHeight
}

// LocallyOwned reports whether this side simulates the player.
func (p *Player) LocallyOwned() bool {
	return p.local
}

// SetLocallyOwned switches between simulating the player and following
// replicated state. Only the owner collides with the window border.
func (p *Player) SetLocallyOwned(local bool) {
	p.local = local
	p.SetCanCollideWithWindowBorder(local, local)
}

// Reset puts the player back on the spawn location, alive and at rest.
func (p *Player) Reset() {
	p.reachedHeight = 0
	clear(p.held)
	p.movement = vmath.Zero
	p.SetLocation(p.cfg.Spawn)
	p.SetVelocity(vmath.Zero)
	p.SetCanMove(true)
	p.setDead(false)
}

func (p *Player) setDead(dead bool) {
	p.dead = dead
	if dead {
		p.SetColor(draw.Red)
	} else {
		p.SetColor(draw.Green)
	}
}

// Control runs before the body's tick. Remote and dead players skip it.
func (p *Player) Control(b *physics.Body, dt float64) bool {
	height := (-b.Location().Y - p.cfg.Spawn.Y) / 100
	p.reachedHeight = math.Max(p.reachedHeight, height)

	if !p.local || p.dead {
		return false
	}

	v := b.Velocity().Add(p.movement.Scale(p.cfg.Speed * dt))
	b.SetVelocity(v)

	// Jump up through platforms, land on them on the way down.
	if v.Y < 0 {
		b.SetResponse(physics.Ground, physics.Overlap)
	} else {
		b.SetResponse(physics.Ground, physics.Block)
	}
	return true
}

// OnHit kills the player on the bottom border and bounces it off everything else.
func (p *Player) OnHit(b *physics.Body, other physics.BodyID, normal vmath.Vector2) {
	if other.IsZero() && normal == vmath.Vec(0, -1) {
		p.setDead(true)
		b.SetCanMove(false)
		return
	}

	v := b.Velocity().Scale(hitDamping)
	if normal.Y < 0 {
		v.Y = math.Min(-p.cfg.MinJumpVelocity, v.Y)
	}
	b.SetVelocity(v)
}

func (p *Player) HandleKeyPressed(k input.Key) {
	if _, ok := movementKeys[k]; ok {
		p.held[k] = true
		p.updateMovement()
	}
}

func (p *Player) HandleKeyReleased(k input.Key) {
	if p.held[k] {
		delete(p.held, k)
		p.updateMovement()
	}
}

// updateMovement rebuilds the input direction from the held keys. Releasing a
// key that was pressed before Reset changes nothing.
func (p *Player) updateMovement() {
	var m vmath.Vector2
	for k := range p.held {
		m.AddInPlace(movementKeys[k])
	}
	p.movement = m.Clamp(vmath.Vec(-1, 0), vmath.Vec(1, 1))
}

// Serialize encodes location and the dead flag, little endian.
func (p *Player) Serialize() []byte {
	buf := make([]byte, playerPayloadSize)
	loc := p.Location()
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(loc.X))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(loc.Y))
	if p.dead {
		buf[16] = 1
	}
	return buf
}

// Deserialize applies a payload from Serialize. The dead flag is optional.
func (p *Player) Deserialize(data []byte) error {
	if len(data) < 16 {
		return errors.Wrapf(ErrShortPayload, "player: got %d bytes", len(data))
	}

	p.SetLocation(vmath.Vec(
		math.Float64frombits(binary.LittleEndian.Uint64(data[0:])),
		math.Float64frombits(binary.LittleEndian.Uint64(data[8:])),
	))

	if len(data) > 16 {
		if dead := data[16] != 0; dead != p.dead {
			p.setDead(dead)
			p.SetCanMove(!dead)
		}
	}
	return nil
}
