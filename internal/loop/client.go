package loop

import (
	"bufio"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/tomz197/chaosjump/internal/config"
	"github.com/tomz197/chaosjump/internal/draw"
	"github.com/tomz197/chaosjump/internal/game"
	"github.com/tomz197/chaosjump/internal/input"
	"github.com/tomz197/chaosjump/internal/physics"
	"github.com/tomz197/chaosjump/internal/vmath"
)

// Client runs the game for a single terminal.
type Client struct {
	cfg          config.Config
	logger       *zap.Logger
	world        *physics.World
	mode         *game.Mode
	net          *netSession
	router       input.Router
	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	termSizeFunc draw.TermSizeFunc
	hub          *Hub
	hubID        int
	shutdown     <-chan struct{}
	allowHost    bool
	text         []textSpan
}

// NewClient sets up the world, the mode and the terminal for one session.
func NewClient(r *bufio.Reader, w io.Writer, opts Options) *Client {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Username != "" {
		logger = logger.With(zap.String("user", opts.Username))
	}
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}

	world := physics.NewWorld(
		physics.WithLogger(logger),
		physics.WithGravity(vmath.Vec(0, cfg.Physics.Gravity)),
	)
	modeOpts := []game.Option{game.WithLogger(logger)}
	if seed := cfg.Net.Seed; seed != 0 {
		modeOpts = append(modeOpts, game.WithSeedSource(func() uint32 { return seed }))
	}
	mode := game.NewMode(world, gameConfig(cfg), modeOpts...)

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight, _ := termSizeFunc()
	renderWidth, renderHeight, offsetCol, offsetRow := draw.ClampTermSize(termWidth, termHeight, cfg.Loop.MaxTermWidth, cfg.Loop.MaxTermHeight)
	canvas := draw.NewScaledCanvas(renderWidth, renderHeight, cfg.Window.Width, cfg.Window.Height)
	canvas.SetOffset(offsetCol, offsetRow)

	c := &Client{
		cfg:          cfg,
		logger:       logger,
		world:        world,
		mode:         mode,
		net:          newNetSession(mode, logger),
		state:        NewClientState(),
		canvas:       canvas,
		chunkWriter:  draw.NewChunkWriter(w, offsetCol, offsetRow),
		writer:       w,
		inputStream:  input.StartStream(r, cfg.Loop.KeyHold),
		termSizeFunc: termSizeFunc,
		hub:          opts.Hub,
		allowHost:    opts.AllowHost,
	}
	c.router.Add(mode.LocalPlayer())
	c.router.Add(mode)

	if c.hub != nil {
		c.hubID, c.shutdown = c.hub.register(opts.Username)
	}
	if url := cfg.Net.JoinURL; url != "" {
		c.net.Join(url)
	} else if addr := cfg.Net.HostAddr; addr != "" {
		c.net.Host(addr)
	}
	return c
}

// Run starts the frame loop. Blocks until the player quits, goes idle or the
// server stops.
func (c *Client) Run() error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	defer func() {
		if err := c.net.Close(); err != nil {
			c.logger.Warn("closing network session", zap.Error(err))
		}
		if c.hub != nil {
			c.hub.unregister(c.hubID)
		}
	}()

	frameTime := c.cfg.Loop.FrameTime()
	lastTime := time.Now()

	for c.state.Running {
		frameStart := time.Now()
		dt := frameStart.Sub(lastTime).Seconds()
		lastTime = frameStart

		c.processInput(input.ReadInput(c.inputStream), dt)
		c.processHubEvents()
		c.updateScreen()
		c.update(dt)

		if err := c.drawFrame(); err != nil {
			return err
		}

		elapsed := time.Since(frameStart)
		if elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}

	draw.ClearScreen(c.writer)
	return nil
}

// processInput tracks inactivity and routes keys to the player and the mode.
func (c *Client) processInput(in input.Input, dt float64) {
	now := time.Now()
	if len(in.Pressed) > 0 {
		c.state.lastInput = now
	}
	idle := now.Sub(c.state.lastInput)
	warn, disconnect := c.cfg.Loop.InactivityWarn, c.cfg.Loop.InactivityDisconnect
	c.state.inactive = warn > 0 && idle > warn
	if disconnect > 0 && idle > disconnect {
		c.logger.Info("disconnecting idle player", zap.Duration("idle", idle))
		c.state.Running = false
	}

	if in.Quit {
		c.state.Running = false
		return
	}

	if c.allowHost && in.WasPressed(input.Key('h')) {
		addr := c.cfg.Net.HostAddr
		if addr == "" {
			addr = defaultHostAddr
		}
		c.net.Host(addr)
	}

	c.router.Dispatch(in, dt)
}

// processHubEvents starts the shutdown countdown once the hub shuts down.
func (c *Client) processHubEvents() {
	if c.state.shuttingDown {
		return
	}
	select {
	case <-c.shutdown:
		c.state.shuttingDown = true
		c.state.shutdownTimer = c.cfg.Loop.ShutdownDisplay.Seconds()
	default:
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area.
func (c *Client) updateScreen() {
	termWidth, termHeight, err := c.termSizeFunc()
	if err != nil {
		return
	}
	renderWidth, renderHeight, offsetCol, offsetRow := draw.ClampTermSize(termWidth, termHeight, c.cfg.Loop.MaxTermWidth, c.cfg.Loop.MaxTermHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
		c.text = c.text[:0]
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// update exchanges network state and advances the world by dt. A frame
// delta above physics.MaxStepDelta (a stall) advances nothing.
func (c *Client) update(dt float64) {
	if dt > physics.MaxStepDelta {
		dt = 0
	}

	if c.state.shuttingDown {
		c.state.shutdownTimer -= dt
		if c.state.shutdownTimer <= 0 {
			c.state.Running = false
		}
	}

	c.net.Poll()
	c.world.Step(dt)

	// A new round resets the player's movement, so drop held keys with it.
	mode := c.mode.State()
	if mode == game.Playing && c.state.prevMode != game.Playing {
		c.inputStream.Reset()
	}
	c.state.prevMode = mode
}
