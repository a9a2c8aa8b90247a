// Package chunk generates the platforms and obstacles of the endless climb,
// one window-sized chunk at a time, deterministically from a shared seed.
package chunk

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/chaosjump/internal/vmath"
)

// Kind is what a Spawn describes.
type Kind uint8

const (
	Platform Kind = iota
	Circle
	Rectangle
	Polygon
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Platform:
		return "platform"
	case Circle:
		return "circle"
	case Rectangle:
		return "rectangle"
	case Polygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Spawn describes one object to create.
type Spawn struct {
	Kind     Kind
	Location vmath.Vector2
	Velocity vmath.Vector2
	Color    colorful.Color
	Radius   float64         // Circle
	Size     vmath.Vector2   // Platform, Rectangle
	Vertices []vmath.Vector2 // Polygon; shared, do not modify
}

// Obstacle ranges.
const (
	minCircleRadius  = 25
	maxCircleRadius  = 75
	minRectSide      = 50
	maxRectSide      = 200
	maxObstacleSpeed = 1000
)

// obstacleShapes are the convex polygons obstacles pick from.
var obstacleShapes = [][]vmath.Vector2{
	{{X: 43.2635, Y: 6.8604}, {X: 55.0929, Y: -9.3619}, {X: 8.2399, Y: -52.0017}, {X: -48.6525, Y: 4.1456}},
	{{X: -18.3162, Y: 45.2245}, {X: 52.7055, Y: -5.7648}, {X: 29.5635, Y: -44.2779}, {X: -29.4444, Y: 39.4642}},
	{{X: -41.6380, Y: 14.0692}, {X: 37.0215, Y: 23.5764}, {X: 39.4071, Y: -26.6079}, {X: 2.3210, Y: -56.8108}, {X: -51.8513, Y: -18.9697}},
	{{X: -12.3984, Y: 53.5238}, {X: 35.1011, Y: 36.6958}, {X: -9.3180, Y: -54.6367}, {X: -51.3585, Y: 6.5760}},
	{{X: -40.5856, Y: 25.3067}, {X: 30.7374, Y: 32.7841}, {X: 51.4345, Y: -19.5136}, {X: 20.8666, Y: -44.6675}, {X: -4.0400, Y: -43.3833}, {X: -39.2438, Y: -35.2537}, {X: -41.8348, Y: -32.5844}, {X: -52.0016, Y: -7.5905}},
}

// ObstacleShapes returns the predefined obstacle polygons.
func ObstacleShapes() [][]vmath.Vector2 {
	return obstacleShapes
}

// Config sizes a generator.
type Config struct {
	Size              vmath.Vector2 // Chunk size, normally the window size
	PlatformsPerChunk int
	ObstaclesPerChunk int
	PlatformSize      vmath.Vector2
	Seed              uint32
}

// Generator produces chunks. Chunk i is centered on y = -i * height, so chunks
// stack upward from the start.
type Generator struct {
	cfg     Config
	highest int
}

// NewGenerator creates a generator. Nothing is generated yet.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg, highest: -1}
}

// Highest returns the highest chunk index generated so far, or -1.
func (g *Generator) Highest() int {
	return g.highest
}

// Seed returns the world seed.
func (g *Generator) Seed() uint32 {
	return g.cfg.Seed
}

// rng derives an independent stream for (seed, index) so a chunk's contents
// don't depend on which chunks were generated before it.
func (g *Generator) rng(index int) *rand.Rand {
	var key [12]byte
	binary.LittleEndian.PutUint32(key[0:], g.cfg.Seed)
	binary.LittleEndian.PutUint64(key[4:], uint64(int64(index)))
	h := xxhash.Sum64(key[:])
	return rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))
}

// Generate returns the spawns of chunk index and records it as generated.
func (g *Generator) Generate(index int) []Spawn {
	g.highest = max(g.highest, index)
	rng := g.rng(index)

	w, h := g.cfg.Size.X, g.cfg.Size.Y
	centerY := float64(index) * -h

	spawns := make([]Spawn, 0, g.cfg.PlatformsPerChunk+g.cfg.ObstaclesPerChunk)
	for range g.cfg.PlatformsPerChunk {
		spawns = append(spawns, Spawn{
			Kind: Platform,
			Location: vmath.Vec(
				math.Round(uniform(rng, -w/2, w/2)),
				math.Round(centerY+uniform(rng, -h/2, h/2)),
			),
			Color: randomColor(rng),
			Size:  g.cfg.PlatformSize,
		})
	}

	for range g.cfg.ObstaclesPerChunk {
		spawns = append(spawns, g.obstacle(rng, centerY))
	}
	return spawns
}

func (g *Generator) obstacle(rng *rand.Rand, centerY float64) Spawn {
	s := Spawn{Kind: Kind(1 + rng.IntN(3))}

	// extent keeps the whole shape inside the chunk.
	var extent vmath.Vector2
	switch s.Kind {
	case Circle:
		s.Radius = float64(minCircleRadius + rng.IntN(maxCircleRadius-minCircleRadius+1))
		extent = vmath.Vec(s.Radius, s.Radius)
	case Rectangle:
		s.Size = vmath.Vec(
			float64(minRectSide+rng.IntN(maxRectSide-minRectSide+1)),
			float64(minRectSide+rng.IntN(maxRectSide-minRectSide+1)),
		)
		extent = s.Size.Scale(0.5)
	case Polygon:
		s.Vertices = obstacleShapes[rng.IntN(len(obstacleShapes))]
		r := farthest(s.Vertices)
		extent = vmath.Vec(r, r)
	}

	half := g.cfg.Size.Scale(0.5)
	s.Location = vmath.Vec(
		math.Round(uniform(rng, -half.X+extent.X, half.X-extent.X)),
		math.Round(centerY+uniform(rng, -half.Y+extent.Y, half.Y-extent.Y)),
	)
	s.Velocity = vmath.Vec(
		float64(rng.IntN(2*maxObstacleSpeed+1)-maxObstacleSpeed),
		float64(rng.IntN(2*maxObstacleSpeed+1)-maxObstacleSpeed),
	)
	s.Color = randomColor(rng)
	return s
}

// uniform returns a value in [lo, hi]. An empty range collapses to its midpoint.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + rng.Float64()*(hi-lo)
}

// randomColor picks a bright color so objects stand out on a dark terminal.
func randomColor(rng *rand.Rand) colorful.Color {
	return colorful.Hsv(rng.Float64()*360, 0.5+rng.Float64()*0.5, 0.7+rng.Float64()*0.3)
}

func farthest(vertices []vmath.Vector2) float64 {
	var r float64
	for _, v := range vertices {
		r = math.Max(r, v.Len())
	}
	return r
}
