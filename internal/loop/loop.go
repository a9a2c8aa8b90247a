// Package loop runs the per-terminal frame loop: input, networking, the
// physics step and rendering.
package loop

import (
	"bufio"
	"io"

	"go.uber.org/zap"

	"github.com/tomz197/chaosjump/internal/config"
	"github.com/tomz197/chaosjump/internal/draw"
	"github.com/tomz197/chaosjump/internal/game"
	"github.com/tomz197/chaosjump/internal/object"
	"github.com/tomz197/chaosjump/internal/vmath"
)

// defaultHostAddr is used by the host key when no address is configured.
const defaultHostAddr = ":7777"

// Options configures a game session.
type Options struct {
	Config       config.Config
	Logger       *zap.Logger
	TermSizeFunc draw.TermSizeFunc // Defaults to the size of os.Stdout
	Hub          *Hub              // Notifies the session of a server shutdown
	Username     string
	AllowHost    bool // The h key starts hosting on Config.Net.HostAddr
}

// Run runs one game session on the terminal behind r and w until the player
// quits, goes idle or the hub shuts down.
func Run(r *bufio.Reader, w io.Writer, opts Options) error {
	return NewClient(r, w, opts).Run()
}

// gameConfig maps the file configuration onto the mode's rules.
func gameConfig(cfg config.Config) game.Config {
	return game.Config{
		Window: vmath.Vec(cfg.Window.Width, cfg.Window.Height),
		Player: object.PlayerConfig{
			Size:            cfg.Player.Size,
			Spawn:           vmath.Vec(cfg.Player.SpawnX, cfg.Player.SpawnY),
			Speed:           cfg.Player.Speed,
			MinJumpVelocity: cfg.Player.MinJumpVelocity,
			Damping:         vmath.Vec(cfg.Player.DampingX, 0),
		},
		PlatformSize:        vmath.Vec(cfg.Chunk.PlatformWidth, cfg.Chunk.PlatformHeight),
		PlatformsPerChunk:   cfg.Chunk.PlatformsPerChunk,
		ObstaclesPerChunk:   cfg.Chunk.ObstaclesPerChunk,
		ChunksAhead:         cfg.Chunk.ChunksAhead,
		StartPlatformOffset: cfg.Chunk.StartPlatformOffset,
	}
}
