package loop

import (
	"time"

	"github.com/tomz197/chaosjump/internal/game"
)

// screen is what the UI overlay shows. A change clears the terminal.
type screen int

const (
	screenMenu screen = iota
	screenPlaying
	screenGameOver
	screenInactive
	screenShutdown
)

// ClientState holds the per-terminal state around the game mode.
type ClientState struct {
	Running       bool
	screen        screen
	prevScreen    screen
	prevMode      game.State
	lastInput     time.Time
	inactive      bool
	shuttingDown  bool
	shutdownTimer float64 // Seconds until auto-disconnect after a shutdown notice
}

// NewClientState creates the state of a fresh client on the menu.
func NewClientState() *ClientState {
	return &ClientState{
		Running:    true,
		screen:     screenMenu,
		prevScreen: -1, // Forces a clear on the first frame
		lastInput:  time.Now(),
	}
}

// screenFor picks the overlay for the current situation.
func (s *ClientState) screenFor(mode game.State) screen {
	switch {
	case s.shuttingDown:
		return screenShutdown
	case s.inactive:
		return screenInactive
	case mode == game.Playing:
		return screenPlaying
	case mode == game.GameOver:
		return screenGameOver
	default:
		return screenMenu
	}
}
