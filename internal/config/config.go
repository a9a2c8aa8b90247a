package config

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds the game tuning. Fields missing from a loaded file keep
// their defaults.
type Config struct {
	Window  Window  `yaml:"window"`
	Physics Physics `yaml:"physics"`
	Player  Player  `yaml:"player"`
	Chunk   Chunk   `yaml:"chunk"`
	Loop    Loop    `yaml:"loop"`
	Net     Net     `yaml:"net"`
	Log     Log     `yaml:"log"`
}

// Window is the logical view size, also the size of a chunk.
type Window struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type Physics struct {
	Gravity float64 `yaml:"gravity"` // Downward, units per second squared
}

type Player struct {
	Size            float64 `yaml:"size"`
	SpawnX          float64 `yaml:"spawn_x"`
	SpawnY          float64 `yaml:"spawn_y"`
	Speed           float64 `yaml:"speed"`
	MinJumpVelocity float64 `yaml:"min_jump_velocity"`
	DampingX        float64 `yaml:"damping_x"`
}

type Chunk struct {
	PlatformsPerChunk   int     `yaml:"platforms_per_chunk"`
	ObstaclesPerChunk   int     `yaml:"obstacles_per_chunk"`
	PlatformWidth       float64 `yaml:"platform_width"`
	PlatformHeight      float64 `yaml:"platform_height"`
	ChunksAhead         int     `yaml:"chunks_ahead"`
	StartPlatformOffset float64 `yaml:"start_platform_offset"`
}

type Loop struct {
	TargetFPS            int           `yaml:"target_fps"`
	MaxTermWidth         int           `yaml:"max_term_width"`
	MaxTermHeight        int           `yaml:"max_term_height"`
	KeyHold              time.Duration `yaml:"key_hold"`
	InactivityWarn       time.Duration `yaml:"inactivity_warn"`
	InactivityDisconnect time.Duration `yaml:"inactivity_disconnect"`
	ShutdownDisplay      time.Duration `yaml:"shutdown_display"`
}

// FrameTime returns the target duration of one frame.
func (l Loop) FrameTime() time.Duration {
	return time.Second / time.Duration(l.TargetFPS)
}

type Net struct {
	HostAddr string `yaml:"host_addr"` // Listen here for a second player
	JoinURL  string `yaml:"join_url"`  // Or join a host at this websocket URL
	Seed     uint32 `yaml:"seed"`      // Fixed world seed; 0 picks one per round
}

type Log struct {
	Level string   `yaml:"level"`
	Paths []string `yaml:"paths"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		Window:  Window{Width: 1280, Height: 720},
		Physics: Physics{Gravity: 981},
		Player: Player{
			Size:            1,
			SpawnX:          0,
			SpawnY:          200,
			Speed:           5000,
			MinJumpVelocity: 500,
			DampingX:        5,
		},
		Chunk: Chunk{
			PlatformsPerChunk:   8,
			ObstaclesPerChunk:   1,
			PlatformWidth:       150,
			PlatformHeight:      15,
			ChunksAhead:         3,
			StartPlatformOffset: 300,
		},
		Loop: Loop{
			TargetFPS:            60,
			MaxTermWidth:         200,
			MaxTermHeight:        60,
			KeyHold:              120 * time.Millisecond,
			InactivityWarn:       90 * time.Second,
			InactivityDisconnect: 120 * time.Second,
			ShutdownDisplay:      10 * time.Second,
		},
		Log: Log{Level: "info", Paths: []string{"stderr"}},
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return errors.Wrapf(ErrInvalid, "window size %gx%g", c.Window.Width, c.Window.Height)
	case c.Player.Size <= 0:
		return errors.Wrapf(ErrInvalid, "player size %g", c.Player.Size)
	case c.Player.Speed < 0 || c.Player.MinJumpVelocity < 0 || c.Player.DampingX < 0:
		return errors.Wrap(ErrInvalid, "player tuning must not be negative")
	case c.Chunk.PlatformsPerChunk < 0 || c.Chunk.ObstaclesPerChunk < 0:
		return errors.Wrap(ErrInvalid, "chunk object counts must not be negative")
	case c.Chunk.PlatformWidth <= 0 || c.Chunk.PlatformHeight <= 0:
		return errors.Wrapf(ErrInvalid, "platform size %gx%g", c.Chunk.PlatformWidth, c.Chunk.PlatformHeight)
	case c.Chunk.ChunksAhead < 1:
		return errors.Wrapf(ErrInvalid, "chunks ahead %d", c.Chunk.ChunksAhead)
	case c.Loop.TargetFPS <= 0:
		return errors.Wrapf(ErrInvalid, "target fps %d", c.Loop.TargetFPS)
	case c.Loop.MaxTermWidth <= 0 || c.Loop.MaxTermHeight <= 0:
		return errors.Wrapf(ErrInvalid, "max terminal size %dx%d", c.Loop.MaxTermWidth, c.Loop.MaxTermHeight)
	case c.Loop.KeyHold <= 0:
		return errors.Wrapf(ErrInvalid, "key hold %s", c.Loop.KeyHold)
	case c.Loop.InactivityWarn > c.Loop.InactivityDisconnect:
		return errors.Wrap(ErrInvalid, "inactivity warning comes after the disconnect")
	case c.Net.HostAddr != "" && c.Net.JoinURL != "":
		return errors.Wrap(ErrInvalid, "cannot both host and join")
	case len(c.Log.Paths) == 0:
		return errors.Wrap(ErrInvalid, "no log output")
	}
	return nil
}

// Load decodes YAML over the defaults and validates the result. An empty
// document yields the defaults.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile loads a YAML file.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load %s", path)
	}
	return cfg, nil
}

// FromEnv loads the file named by CHAOSJUMP_CONFIG, or the defaults, and
// applies the CHAOSJUMP_* overrides.
func FromEnv() (Config, error) {
	cfg := Default()
	if path := GetEnv("CHAOSJUMP_CONFIG", ""); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Log.Level = GetEnv("CHAOSJUMP_LOG_LEVEL", cfg.Log.Level)
	if path := GetEnv("CHAOSJUMP_LOG_FILE", ""); path != "" {
		cfg.Log.Paths = []string{path}
	}
	cfg.Net.HostAddr = GetEnv("CHAOSJUMP_HOST_ADDR", cfg.Net.HostAddr)
	cfg.Net.JoinURL = GetEnv("CHAOSJUMP_JOIN_URL", cfg.Net.JoinURL)

	if s := GetEnv("CHAOSJUMP_SEED", ""); s != "" {
		seed, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "CHAOSJUMP_SEED %q", s)
		}
		cfg.Net.Seed = uint32(seed)
	}
	return nil
}
