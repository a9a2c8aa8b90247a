// Package game implements the Chaos Jump rules: start, chunk streaming,
// cleanup, game over and scoring, plus the replicated mode state.
package game

import (
	"encoding/binary"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tomz197/chaosjump/internal/chunk"
	"github.com/tomz197/chaosjump/internal/input"
	"github.com/tomz197/chaosjump/internal/object"
	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

// ModeTypeID identifies the mode state in replication frames.
const ModeTypeID uint8 = 200

// ModeTickOrder runs the mode after bodies and the camera.
const ModeTickOrder uint8 = object.CameraTickOrder + 50

// EndPhaseSeconds is how long the survivor keeps climbing after the first death.
const EndPhaseSeconds = 10.0

// modePayloadSize is two flags, the seed and two scores.
const modePayloadSize = 14

// ErrShortPayload is returned when a mode payload is too small to decode.
var ErrShortPayload = errors.New("game: payload too short")

// State is the mode's phase.
type State uint8

const (
	Menu State = iota
	Playing
	GameOver
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Menu:
		return "menu"
	case Playing:
		return "playing"
	case GameOver:
		return "game over"
	default:
		return "unknown"
	}
}

// Role is this side's part in a session.
type Role uint8

const (
	Solo   Role = iota
	Host        // Owns the mode state and scores
	Client      // Follows the host's mode state
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case Solo:
		return "solo"
	case Host:
		return "host"
	case Client:
		return "client"
	default:
		return "unknown"
	}
}

// Config tunes the mode.
type Config struct {
	Window              vmath.Vector2 // Also the chunk size
	Player              object.PlayerConfig
	PlatformSize        vmath.Vector2
	PlatformsPerChunk   int
	ObstaclesPerChunk   int
	ChunksAhead         int     // Chunks kept generated above the current one
	StartPlatformOffset float64 // Distance from spawn down to the first platform
}

// DefaultConfig returns the standard rules.
func DefaultConfig() Config {
	return Config{
		Window:              vmath.Vec(1280, 720),
		Player:              object.DefaultPlayerConfig(),
		PlatformSize:        vmath.Vec(150, 15),
		PlatformsPerChunk:   8,
		ObstaclesPerChunk:   1,
		ChunksAhead:         3,
		StartPlatformOffset: 300,
	}
}

// Mode runs one Chaos Jump session on a world.
type Mode struct {
	input.NopReceiver

	world  *physics.World
	cfg    Config
	logger *zap.Logger
	role   Role
	seeds  func() uint32

	state     State
	gameTime  float64
	endPhase  float64 // Seconds left after the first death, negative when not running
	best      float64 // Best solo height
	generator *chunk.Generator

	// Replicated
	wantsToStart bool
	gameOver     bool
	seed         uint32
	hostScore    uint32
	clientScore  uint32

	local     *object.Player
	players   []*object.Player
	camera    *object.Camera
	platforms []*object.Object
	obstacles []*object.Object
}

// Option configures a Mode.
type Option func(*Mode)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Mode) {
		m.logger = logger
	}
}

// WithSeedSource replaces the random source of world seeds.
func WithSeedSource(seeds func() uint32) Option {
	return func(m *Mode) {
		m.seeds = seeds
	}
}

// NewMode creates the mode, the local player and the camera, and registers them
// with the world's scheduler. The world's view is sized to the window.
func NewMode(w *physics.World, cfg Config, opts ...Option) *Mode {
	m := &Mode{
		world:    w,
		cfg:      cfg,
		logger:   zap.NewNop(),
		seeds:    rand.Uint32,
		endPhase: -1,
	}
	for _, opt := range opts {
		opt(m)
	}

	w.SetView(physics.View{Size: cfg.Window})

	m.local = object.NewPlayer(w, cfg.Player)
	m.local.SetLocallyOwned(true)
	m.local.SetCanMove(false) // Parked until the first start
	m.players = append(m.players, m.local)

	m.camera = object.NewCamera(w, m.local.Body)
	w.Scheduler().AddWithOrder(m.camera, object.CameraTickOrder)
	w.Scheduler().AddWithOrder(m, ModeTickOrder)
	return m
}

// TypeID implements netplay.Replicable.
func (m *Mode) TypeID() uint8 { return ModeTypeID }

func (m *Mode) State() State                { return m.state }
func (m *Mode) Role() Role                  { return m.role }
func (m *Mode) Seed() uint32                { return m.seed }
func (m *Mode) LocalPlayer() *object.Player { return m.local }
func (m *Mode) Players() []*object.Player   { return m.players }
func (m *Mode) Camera() *object.Camera      { return m.camera }

// GameTime returns the seconds since the mode was created.
func (m *Mode) GameTime() float64 { return m.gameTime }

// EndPhase returns the seconds left in the end phase, or a negative value.
func (m *Mode) EndPhase() float64 { return m.endPhase }

// Scores returns the rounds won by host and client.
func (m *Mode) Scores() (host, client uint32) { return m.hostScore, m.clientScore }

// Best returns the best height reached in solo rounds.
func (m *Mode) Best() float64 { return m.best }

// ObstacleCount returns the number of live obstacles.
func (m *Mode) ObstacleCount() int { return len(m.obstacles) }

// PlatformCount returns the number of live platforms.
func (m *Mode) PlatformCount() int { return len(m.platforms) }

// Heights returns the reached heights of the host's and the client's player.
// In a solo session the client height is zero.
func (m *Mode) Heights() (host, client float64) {
	for _, p := range m.players {
		if (p == m.local) == (m.role != Client) {
			host = p.ReachedHeight()
		} else {
			client = p.ReachedHeight()
		}
	}
	return host, client
}

// SetRole switches the session role. Leaving a session or joining one as a
// client ends a running round.
func (m *Mode) SetRole(r Role) {
	if m.role == r {
		return
	}
	m.logger.Info("role changed", zap.Stringer("from", m.role), zap.Stringer("to", r))
	m.role = r
	if r == Solo {
		m.hostScore, m.clientScore = 0, 0
	}
	if r != Host && m.state == Playing {
		m.endRound()
	}
}

// PeerJoined ends a solo round and starts a new one with a fresh seed once the
// second player is in.
func (m *Mode) PeerJoined() {
	if m.state == Playing {
		m.endRound()
	}
	m.SetRole(Host)
	m.RequestStart()
}

// RequestStart asks for a new round on the next tick. Clients wait for the host.
func (m *Mode) RequestStart() {
	if m.role == Client || m.state == Playing {
		return
	}
	m.wantsToStart = true
	m.gameOver = false
	m.seed = m.seeds()
}

// HandleKeyPressed starts a round from the menu or the game over screen.
func (m *Mode) HandleKeyPressed(k input.Key) {
	if k == input.KeyEnter || k == input.KeySpace {
		m.RequestStart()
	}
}

// NewRemotePlayer creates a player that follows a peer's replicated state.
// Releasing it removes it from the mode.
func (m *Mode) NewRemotePlayer() *RemotePlayer {
	p := object.NewPlayer(m.world, m.cfg.Player)
	m.players = append(m.players, p)
	return &RemotePlayer{Player: p, mode: m}
}

// RemotePlayer is a peer's player as seen by this side.
type RemotePlayer struct {
	*object.Player
	mode *Mode
}

// Release implements netplay.Releasable.
func (r *RemotePlayer) Release() {
	r.mode.players = slices.DeleteFunc(r.mode.players, func(p *object.Player) bool { return p == r.Player })
	r.Destroy()
}

// Start clears the level, resets the players and generates the first chunk.
func (m *Mode) Start() {
	for _, o := range m.platforms {
		o.Destroy()
	}
	for _, o := range m.obstacles {
		o.Destroy()
	}
	m.platforms = m.platforms[:0]
	m.obstacles = m.obstacles[:0]

	m.state = Playing
	m.gameOver = false
	m.endPhase = -1

	for _, p := range m.players {
		p.Reset()
	}
	m.camera.SetHeight(0)

	start := object.NewPlatform(m.world, m.cfg.PlatformSize)
	start.SetLocation(m.cfg.Player.Spawn.Add(vmath.Vec(0, m.cfg.StartPlatformOffset)))
	m.platforms = append(m.platforms, start)

	m.generator = chunk.NewGenerator(chunk.Config{
		Size:              m.cfg.Window,
		PlatformsPerChunk: m.cfg.PlatformsPerChunk,
		ObstaclesPerChunk: m.cfg.ObstaclesPerChunk,
		PlatformSize:      m.cfg.PlatformSize,
		Seed:              m.seed,
	})
	m.generate(0)

	m.logger.Info("game started",
		zap.Stringer("role", m.role),
		zap.Uint32("seed", m.seed),
		zap.Int("players", len(m.players)),
	)
}

// Tick starts requested rounds and runs the rules of a running one.
func (m *Mode) Tick(dt float64) {
	if m.wantsToStart && m.state != Playing {
		m.Start()
	}

	m.gameTime += dt
	if m.state != Playing {
		return
	}

	m.checkDeaths(dt)
	if m.state != Playing {
		return
	}

	view := m.world.View()
	m.clearBelow(view.Location.Y)
	m.streamChunks(view.Location.Y)
}

func (m *Mode) checkDeaths(dt float64) {
	dead := 0
	for _, p := range m.players {
		if p.Dead() {
			dead++
		}
	}

	switch {
	case dead == 0:
		m.endPhase = -1
		return
	case dead == len(m.players):
		m.endPhase = -1
	default:
		// The survivor gets a last chance to climb higher.
		if m.endPhase < 0 {
			m.endPhase = EndPhaseSeconds
		} else {
			m.endPhase -= dt
		}
		if m.endPhase >= 0 {
			return
		}
	}

	// The client follows the host's verdict.
	if m.role != Client {
		m.endRound()
	}
}

// endRound moves to the game over screen and scores the round.
func (m *Mode) endRound() {
	m.state = GameOver
	m.gameOver = true
	m.wantsToStart = false
	m.endPhase = -1
	m.local.SetCanMove(false)

	host, client := m.Heights()
	switch {
	case m.role == Solo:
		m.best = math.Max(m.best, host)
	case m.role == Host && host > client:
		m.hostScore++
	case m.role == Host && client > host:
		m.clientScore++
	}

	m.logger.Info("game over",
		zap.Float64("host_height", host),
		zap.Float64("client_height", client),
		zap.Uint32("host_score", m.hostScore),
		zap.Uint32("client_score", m.clientScore),
	)
}

// clearBelow drops platforms below the view and obstacles far below it.
func (m *Mode) clearBelow(viewY float64) {
	chunkHeight := m.cfg.Window.Y
	m.platforms = dropBelow(m.platforms, viewY+chunkHeight)
	m.obstacles = dropBelow(m.obstacles, viewY+3*chunkHeight)
}

func dropBelow(objects []*object.Object, limit float64) []*object.Object {
	return slices.DeleteFunc(objects, func(o *object.Object) bool {
		if o.Location().Y <= limit {
			return false
		}
		o.Destroy()
		return true
	})
}

// streamChunks keeps ChunksAhead chunks generated from the current one.
func (m *Mode) streamChunks(viewY float64) {
	current := int(math.Abs(viewY) / m.cfg.Window.Y)
	for i := m.generator.Highest() + 1; i < current+m.cfg.ChunksAhead; i++ {
		m.generate(i)
	}
}

func (m *Mode) generate(index int) {
	spawns := m.generator.Generate(index)
	for _, s := range spawns {
		m.spawn(s)
	}
	m.logger.Debug("chunk generated", zap.Int("index", index), zap.Int("objects", len(spawns)))
}

func (m *Mode) spawn(s chunk.Spawn) {
	if s.Kind == chunk.Platform {
		p := object.NewPlatform(m.world, s.Size)
		p.SetLocation(s.Location)
		p.SetColor(s.Color)
		m.platforms = append(m.platforms, p)
		return
	}

	var o *object.Object
	switch s.Kind {
	case chunk.Circle:
		o = object.NewCircle(m.world, s.Radius)
	case chunk.Rectangle:
		o = object.NewRectangle(m.world, s.Size.X, s.Size.Y)
	case chunk.Polygon:
		o = object.NewPolygon(m.world, s.Vertices)
	default:
		m.logger.Warn("unknown spawn kind", zap.Stringer("kind", s.Kind))
		return
	}
	o.SetLocation(s.Location)
	o.SetVelocity(s.Velocity)
	o.SetColor(s.Color)
	o.SetGravity(vmath.Zero)
	o.SetCanCollideWithWindowBorder(true, true)
	m.obstacles = append(m.obstacles, o)
}

// Drawables returns everything to render, back to front.
func (m *Mode) Drawables() []object.Drawable {
	out := make([]object.Drawable, 0, len(m.platforms)+len(m.obstacles)+len(m.players))
	for _, p := range m.platforms {
		out = append(out, p)
	}
	for _, o := range m.obstacles {
		out = append(out, o)
	}
	if m.state != Menu {
		for _, p := range m.players {
			out = append(out, p)
		}
	}
	return out
}

// Serialize encodes the replicated state: wantsToStart and gameOver flags,
// then seed, host score and client score, little endian.
func (m *Mode) Serialize() []byte {
	buf := make([]byte, modePayloadSize)
	if m.wantsToStart {
		buf[0] = 1
	}
	if m.gameOver {
		buf[1] = 1
	}
	binary.LittleEndian.PutUint32(buf[2:], m.seed)
	binary.LittleEndian.PutUint32(buf[6:], m.hostScore)
	binary.LittleEndian.PutUint32(buf[10:], m.clientScore)
	return buf
}

// Deserialize applies the host's state. A game over flag ends the running round.
func (m *Mode) Deserialize(data []byte) error {
	if len(data) < modePayloadSize {
		return errors.Wrapf(ErrShortPayload, "mode: got %d bytes", len(data))
	}

	m.wantsToStart = data[0] != 0
	m.gameOver = data[1] != 0
	m.seed = binary.LittleEndian.Uint32(data[2:])
	m.hostScore = binary.LittleEndian.Uint32(data[6:])
	m.clientScore = binary.LittleEndian.Uint32(data[10:])

	if m.gameOver && m.state == Playing {
		m.endRound()
	}
	return nil
}
