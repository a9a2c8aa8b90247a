package game

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/chaosjump/internal/input"
	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

const frame = 1.0 / 60

func newTestMode(seed uint32) (*physics.World, *Mode) {
	w := physics.NewWorld()
	m := NewMode(w, DefaultConfig(), WithSeedSource(func() uint32 { return seed }))
	return w, m
}

func kill(m *Mode) {
	p := m.LocalPlayer()
	p.OnHit(p.Body, physics.NoBody, vmath.Vec(0, -1))
}

func TestModeStartsFromMenu(t *testing.T) {
	w, m := newTestMode(7)
	assert.Equal(t, Menu, m.State())
	assert.Empty(t, m.Drawables())
	assert.False(t, m.LocalPlayer().CanMove(), "parked in the menu")

	w.Step(frame)
	assert.Equal(t, Menu, m.State(), "nothing starts by itself")

	m.HandleKeyPressed(input.KeyEnter)
	w.Step(frame)
	require.Equal(t, Playing, m.State())
	assert.Equal(t, uint32(7), m.Seed())
	assert.True(t, m.LocalPlayer().CanMove())

	// The start platform plus three chunks.
	cfg := DefaultConfig()
	assert.Equal(t, 1+3*cfg.PlatformsPerChunk, m.PlatformCount())
	assert.Equal(t, 3*cfg.ObstaclesPerChunk, m.ObstacleCount())
	assert.Equal(t, 2, m.generator.Highest())
	assert.Equal(t, m.PlatformCount()+m.ObstacleCount()+1, w.Count())
	assert.Len(t, m.Drawables(), w.Count())

	start := m.platforms[0]
	assert.Equal(t, vmath.Vec(0, 500), start.Location())
	assert.Equal(t, physics.Ground, start.Category())

	for _, o := range m.obstacles {
		assert.Equal(t, physics.Obstacle, o.Category())
		assert.Equal(t, vmath.Zero, o.Gravity())
		x, y := o.CollidesWithWindowBorder()
		assert.True(t, x && y)
	}
}

func TestSoloGameOver(t *testing.T) {
	w, m := newTestMode(1)
	m.RequestStart()
	w.Step(frame)
	require.Equal(t, Playing, m.State())

	m.LocalPlayer().SetLocation(vmath.Vec(0, -1000))
	w.Step(frame)
	kill(m)
	w.Step(frame)

	require.Equal(t, GameOver, m.State())
	assert.GreaterOrEqual(t, m.Best(), 8.0)
	assert.False(t, m.LocalPlayer().CanMove())
	host, client := m.Scores()
	assert.Zero(t, host+client, "solo rounds are not scored")

	w.Step(frame)
	assert.Equal(t, GameOver, m.State(), "no automatic restart")

	m.HandleKeyPressed(input.KeySpace)
	w.Step(frame)
	assert.Equal(t, Playing, m.State())
	assert.False(t, m.LocalPlayer().Dead())
	assert.Zero(t, m.LocalPlayer().ReachedHeight())
}

func TestEndPhaseScoresTheHigherPlayer(t *testing.T) {
	w, m := newTestMode(3)
	remote := m.NewRemotePlayer()
	m.PeerJoined()
	assert.Equal(t, Host, m.Role())

	w.Step(frame)
	require.Equal(t, Playing, m.State())
	require.Len(t, m.Players(), 2)

	remote.SetLocation(vmath.Vec(0, -800))
	kill(m)

	steps := 0
	for ; steps < 1000 && m.State() == Playing; steps++ {
		w.Step(frame)
		if steps == 0 {
			assert.InDelta(t, EndPhaseSeconds, m.EndPhase(), 1e-9)
		}
	}

	require.Equal(t, GameOver, m.State())
	assert.InDelta(t, EndPhaseSeconds, float64(steps)*frame, 0.1)

	hostHeight, clientHeight := m.Heights()
	assert.Zero(t, hostHeight)
	assert.Equal(t, 6.0, clientHeight)

	host, client := m.Scores()
	assert.Equal(t, uint32(0), host)
	assert.Equal(t, uint32(1), client)
}

func TestAllDeadEndsImmediately(t *testing.T) {
	w, m := newTestMode(3)
	remote := m.NewRemotePlayer()
	m.PeerJoined()
	w.Step(frame)

	data := remote.Serialize()
	data[16] = 1
	require.NoError(t, remote.Deserialize(data))
	kill(m)
	w.Step(frame)

	assert.Equal(t, GameOver, m.State())
	host, client := m.Scores()
	assert.Zero(t, host+client, "tie")
}

func TestClientFollowsHost(t *testing.T) {
	hw, host := newTestMode(1234)
	cw, client := newTestMode(99)
	client.SetRole(Client)

	host.PeerJoined()
	hw.Step(frame)
	require.NoError(t, client.Deserialize(host.Serialize()))
	cw.Step(frame)

	require.Equal(t, Playing, client.State())
	assert.Equal(t, host.Seed(), client.Seed())
	require.Equal(t, host.PlatformCount(), client.PlatformCount())
	for i := range host.platforms {
		assert.Equal(t, host.platforms[i].Location(), client.platforms[i].Location())
	}

	// The client never decides on game over by itself.
	kill(client)
	cw.Step(frame)
	assert.Equal(t, Playing, client.State())

	kill(host)
	hw.Step(frame)
	require.Equal(t, GameOver, host.State())
	require.NoError(t, client.Deserialize(host.Serialize()))
	assert.Equal(t, GameOver, client.State())

	client.HandleKeyPressed(input.KeyEnter)
	cw.Step(frame)
	assert.Equal(t, GameOver, client.State(), "only the host restarts")
}

func TestStreamingAndCleanup(t *testing.T) {
	w, m := newTestMode(5)
	m.RequestStart()
	w.Step(frame)

	p := m.LocalPlayer()
	p.SetLocation(vmath.Vec(0, -3000))
	p.SetVelocity(vmath.Zero)
	w.Step(frame)
	// Chunks streamed in on the first frame are swept on the next.
	w.Step(frame)

	view := w.View()
	require.Less(t, view.Location.Y, -3000.0)
	current := int(-view.Location.Y / view.Size.Y)
	assert.Equal(t, current+2, m.generator.Highest())

	for _, o := range m.platforms {
		assert.LessOrEqual(t, o.Location().Y, view.Location.Y+view.Size.Y)
	}
	for _, o := range m.obstacles {
		assert.LessOrEqual(t, o.Location().Y, view.Location.Y+3*view.Size.Y)
	}
	assert.Equal(t, m.PlatformCount()+m.ObstacleCount()+1, w.Count())
}

func TestModeSerialize(t *testing.T) {
	_, m := newTestMode(0xDEADBEEF)
	m.PeerJoined()
	m.hostScore = 3
	m.clientScore = 258

	data := m.Serialize()
	assert.Equal(t, []byte{
		1, 0,
		0xEF, 0xBE, 0xAD, 0xDE,
		3, 0, 0, 0,
		2, 1, 0, 0,
	}, data)
	assert.Equal(t, ModeTypeID, m.TypeID())
}

func TestModeDeserializeShortPayload(t *testing.T) {
	_, m := newTestMode(1)
	err := m.Deserialize(make([]byte, modePayloadSize-1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShortPayload))
	assert.Equal(t, Menu, m.State())
}

func TestReleaseRemotePlayer(t *testing.T) {
	w, m := newTestMode(1)
	remote := m.NewRemotePlayer()
	require.Len(t, m.Players(), 2)
	assert.False(t, remote.LocallyOwned())

	remote.Release()
	assert.Len(t, m.Players(), 1)
	assert.True(t, remote.Destroyed())
	assert.Equal(t, 1, w.Count())
}

func TestLeavingSessionEndsRound(t *testing.T) {
	w, m := newTestMode(1)
	m.NewRemotePlayer()
	m.PeerJoined()
	w.Step(frame)
	m.hostScore = 2

	m.SetRole(Solo)
	assert.Equal(t, GameOver, m.State())
	host, client := m.Scores()
	assert.Zero(t, host+client)
}

func TestPeerJoiningRestartsRound(t *testing.T) {
	seeds := []uint32{1, 2}
	w := physics.NewWorld()
	m := NewMode(w, DefaultConfig(), WithSeedSource(func() uint32 {
		s := seeds[0]
		seeds = seeds[1:]
		return s
	}))
	m.RequestStart()
	w.Step(frame)
	require.Equal(t, Playing, m.State())

	m.NewRemotePlayer()
	m.PeerJoined()
	assert.Equal(t, GameOver, m.State())
	w.Step(frame)
	assert.Equal(t, Playing, m.State())
	assert.Equal(t, uint32(2), m.Seed())
	host, client := m.Scores()
	assert.Zero(t, host+client, "the solo round is not scored")
}

func TestJoiningAsClientEndsSoloRound(t *testing.T) {
	w, m := newTestMode(1)
	m.RequestStart()
	w.Step(frame)

	m.SetRole(Client)
	assert.Equal(t, GameOver, m.State())

	// The host's running round takes over.
	host := []byte{1, 0, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	require.NoError(t, m.Deserialize(host))
	w.Step(frame)
	assert.Equal(t, Playing, m.State())
	assert.Equal(t, uint32(9), m.Seed())
}
