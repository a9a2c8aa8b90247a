package object

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/chaosjump/internal/draw"
	"github.com/tomz197/chaosjump/internal/input"
	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

const frame = 1.0 / 60

func newTestWorld() *physics.World {
	return physics.NewWorld(physics.WithView(physics.View{
		Location: vmath.Vec(-640, -144),
		Size:     vmath.Vec(1280, 720),
	}))
}

func newLocalPlayer(w *physics.World) *Player {
	p := NewPlayer(w, DefaultPlayerConfig())
	p.SetLocallyOwned(true)
	return p
}

func TestPlayerBouncesOffPlatform(t *testing.T) {
	w := newTestWorld()
	p := newLocalPlayer(w)
	platform := NewPlatform(w, vmath.Vec(150, 15))
	platform.SetLocation(vmath.Vec(0, 500))

	for range 120 {
		w.Step(frame)
		if p.Velocity().Y < 0 {
			break
		}
	}

	require.Less(t, p.Velocity().Y, 0.0, "bounced")
	assert.LessOrEqual(t, p.Velocity().Y, -DefaultPlayerConfig().MinJumpVelocity)
	assert.False(t, p.Dead())
	assert.Less(t, p.Location().Y, 500.0)
	assert.Equal(t, vmath.Vec(0, 500), platform.Location(), "platforms never move")
}

func TestPlayerJumpsThroughPlatformFromBelow(t *testing.T) {
	w := newTestWorld()
	p := newLocalPlayer(w)
	p.SetVelocity(vmath.Vec(0, -900))
	platform := NewPlatform(w, vmath.Vec(150, 15))
	platform.SetLocation(vmath.Vec(0, 150))

	w.Step(frame)
	assert.Equal(t, physics.Overlap, p.Response(physics.Ground))
	assert.True(t, p.InContact(platform.ID()))
	assert.Less(t, p.Location().Y, 200.0, "not blocked")
}

func TestPlayerDiesOnBottomBorder(t *testing.T) {
	w := newTestWorld()
	p := newLocalPlayer(w)

	for range 300 {
		w.Step(frame)
		if p.Dead() {
			break
		}
	}

	require.True(t, p.Dead())
	assert.False(t, p.CanMove())
	assert.Equal(t, draw.Red, p.Color())

	at := p.Location()
	w.Step(frame)
	assert.Equal(t, at, p.Location(), "dead players stay put")
}

func TestPlayerSideHitKeepsVertical(t *testing.T) {
	w := newTestWorld()
	p := newLocalPlayer(w)
	p.SetVelocity(vmath.Vec(100, 200))

	p.OnHit(p.Body, physics.NoBody, vmath.Vec(1, 0))
	assert.Equal(t, vmath.Vec(80, 160), p.Velocity())
	assert.False(t, p.Dead())

	p.SetVelocity(vmath.Vec(100, -1000))
	p.OnHit(p.Body, physics.NoBody, vmath.Vec(0, -1).Add(vmath.Vec(1, 0)).Normalized())
	assert.Equal(t, vmath.Vec(80, -800), p.Velocity(), "faster than the minimum jump is kept")
}

func TestRemotePlayerOnlyTracksHeight(t *testing.T) {
	w := newTestWorld()
	p := NewPlayer(w, DefaultPlayerConfig())
	p.SetLocation(vmath.Vec(0, -300))

	w.Step(frame)
	assert.Equal(t, vmath.Vec(0, -300), p.Location())
	assert.Equal(t, 1.0, p.ReachedHeight())
	x, y := p.CollidesWithWindowBorder()
	assert.False(t, x || y)

	p.SetLocation(vmath.Vec(0, 0))
	w.Step(frame)
	assert.Equal(t, 1.0, p.ReachedHeight(), "height never decreases")
}

func TestPlayerInput(t *testing.T) {
	w := physics.NewWorld(physics.WithGravity(vmath.Zero))
	p := newLocalPlayer(w)
	p.SetCanCollideWithWindowBorder(false, false)

	var router input.Router
	router.Add(p)

	router.Dispatch(input.Input{Pressed: []input.Key{input.KeyRight}}, frame)
	w.Step(frame)
	assert.Greater(t, p.Velocity().X, 0.0)

	router.Dispatch(input.Input{Released: []input.Key{input.KeyRight}, Pressed: []input.Key{input.Key('a')}}, frame)
	assert.Equal(t, vmath.Vec(-1, 0), p.movement)

	router.Dispatch(input.Input{Pressed: []input.Key{input.KeyDown}}, frame)
	assert.Equal(t, vmath.Vec(-1, 1), p.movement)
	router.Dispatch(input.Input{Pressed: []input.Key{input.KeyLeft, input.Key('s')}}, frame)
	assert.Equal(t, vmath.Vec(-1, 1), p.movement, "direction stays within one unit per axis")
	router.Dispatch(input.Input{Released: []input.Key{input.KeyDown, input.Key('a')}}, frame)
	assert.Equal(t, vmath.Vec(-1, 1), p.movement, "the other two keys are still held")
	router.Dispatch(input.Input{Released: []input.Key{input.KeyLeft, input.Key('s')}}, frame)
	assert.Equal(t, vmath.Zero, p.movement)
}

func TestPlayerResetDropsHeldKeys(t *testing.T) {
	w := physics.NewWorld(physics.WithGravity(vmath.Zero))
	p := newLocalPlayer(w)
	p.SetCanCollideWithWindowBorder(false, false)

	var router input.Router
	router.Add(p)

	router.Dispatch(input.Input{Pressed: []input.Key{input.Key('a')}}, frame)
	require.Equal(t, vmath.Vec(-1, 0), p.movement)

	p.Reset()
	router.Dispatch(input.Input{Released: []input.Key{input.Key('a')}}, frame)
	assert.Equal(t, vmath.Zero, p.movement)

	w.Step(frame)
	assert.Equal(t, vmath.Zero, p.Velocity(), "no drift after the key is released")
}

func TestPlayerReplication(t *testing.T) {
	w := newTestWorld()
	src := newLocalPlayer(w)
	src.SetLocation(vmath.Vec(12.5, -340.25))
	src.setDead(true)

	data := src.Serialize()
	require.Len(t, data, playerPayloadSize)

	dst := NewPlayer(w, DefaultPlayerConfig())
	require.NoError(t, dst.Deserialize(data))
	assert.Equal(t, src.Location(), dst.Location())
	assert.True(t, dst.Dead())
	assert.False(t, dst.CanMove())

	// Location only: the dead flag is left alone.
	require.NoError(t, dst.Deserialize(data[:16]))
	assert.True(t, dst.Dead())
}

func TestPlayerDeserializeShortPayload(t *testing.T) {
	w := newTestWorld()
	p := NewPlayer(w, DefaultPlayerConfig())
	before := p.Location()

	err := p.Deserialize(make([]byte, 15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortPayload))
	assert.Equal(t, before, p.Location())
}

func TestPlayerReset(t *testing.T) {
	w := newTestWorld()
	p := newLocalPlayer(w)
	p.SetLocation(vmath.Vec(30, -900))
	p.SetVelocity(vmath.Vec(1, 1))
	w.Step(frame)
	p.setDead(true)
	p.SetCanMove(false)

	p.Reset()
	assert.Equal(t, DefaultPlayerConfig().Spawn, p.Location())
	assert.Equal(t, vmath.Zero, p.Velocity())
	assert.Zero(t, p.ReachedHeight())
	assert.False(t, p.Dead())
	assert.True(t, p.CanMove())
	assert.Equal(t, draw.Green, p.Color())
}
