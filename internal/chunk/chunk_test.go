package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/chaosjump/internal/vmath"
)

func testConfig(seed uint32) Config {
	return Config{
		Size:              vmath.Vec(1280, 720),
		PlatformsPerChunk: 8,
		ObstaclesPerChunk: 1,
		PlatformSize:      vmath.Vec(150, 15),
		Seed:              seed,
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := NewGenerator(testConfig(42))
	b := NewGenerator(testConfig(42))

	// Order of generation does not matter.
	a3 := a.Generate(3)
	b.Generate(1)
	b.Generate(2)
	assert.Equal(t, a3, b.Generate(3))

	c := NewGenerator(testConfig(43))
	assert.NotEqual(t, a3, c.Generate(3))
	assert.NotEqual(t, a.Generate(4), a3)
}

func TestHighest(t *testing.T) {
	g := NewGenerator(testConfig(1))
	assert.Equal(t, -1, g.Highest())
	g.Generate(2)
	g.Generate(0)
	assert.Equal(t, 2, g.Highest())
	assert.Equal(t, uint32(1), g.Seed())
}

func TestGenerateLayout(t *testing.T) {
	cfg := testConfig(7)
	g := NewGenerator(cfg)

	for index := range 50 {
		spawns := g.Generate(index)
		require.Len(t, spawns, cfg.PlatformsPerChunk+cfg.ObstaclesPerChunk)

		centerY := float64(index) * -cfg.Size.Y
		for i, s := range spawns {
			assert.InDelta(t, 0, s.Location.X, cfg.Size.X/2, "x")
			assert.InDelta(t, centerY, s.Location.Y, cfg.Size.Y/2, "y")

			if i < cfg.PlatformsPerChunk {
				assert.Equal(t, Platform, s.Kind)
				assert.Equal(t, cfg.PlatformSize, s.Size)
				assert.Equal(t, vmath.Zero, s.Velocity)
				continue
			}

			assert.NotEqual(t, Platform, s.Kind)
			assert.LessOrEqual(t, max(s.Velocity.X, -s.Velocity.X), 1000.0)
			assert.LessOrEqual(t, max(s.Velocity.Y, -s.Velocity.Y), 1000.0)
			switch s.Kind {
			case Circle:
				assert.GreaterOrEqual(t, s.Radius, 25.0)
				assert.LessOrEqual(t, s.Radius, 75.0)
				assert.InDelta(t, 0, s.Location.X, cfg.Size.X/2-s.Radius+0.5)
			case Rectangle:
				for _, side := range []float64{s.Size.X, s.Size.Y} {
					assert.GreaterOrEqual(t, side, 50.0)
					assert.LessOrEqual(t, side, 200.0)
				}
			case Polygon:
				assert.Contains(t, ObstacleShapes(), s.Vertices)
			}
		}
	}
}

func TestObstacleKindsAllAppear(t *testing.T) {
	g := NewGenerator(testConfig(99))
	seen := map[Kind]bool{}
	for index := range 200 {
		for _, s := range g.Generate(index) {
			seen[s.Kind] = true
		}
	}
	assert.Len(t, seen, 4)
}
