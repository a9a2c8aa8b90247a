package loop

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/chaosjump/internal/draw"
	"github.com/tomz197/chaosjump/internal/game"
)

// titleArt is "CHAOS JUMP" in the figlet "small" font.
var titleArt = []string{
	`  ___  _  _    _     ___   ___       _  _   _  __  __  ___ `,
	` / __|| || |  /_\   / _ \ / __|   _ | || | | ||  \/  || _ \`,
	`| (__ | __ | / _ \ | (_) |\__ \  | || || |_| || |\/| ||  _/`,
	` \___||_||_|/_/ \_\ \___/ |___/   \__/  \___/ |_|  |_||_|  `,
}

var gameOverArt = []string{
	`  ___   _   __  __ ___    _____   _____ ___ `,
	` / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \`,
	`| (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   /`,
	` \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\`,
}

// textSpan is UI text written over the canvas in the previous frame.
type textSpan struct {
	col, row, n int
}

// drawFrame draws the world and the UI overlay for the current screen.
func (c *Client) drawFrame() error {
	// On screen transitions, do a full terminal clear so text from the
	// previous screen does not persist.
	scr := c.state.screenFor(c.mode.State())
	if scr != c.state.prevScreen {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevScreen = scr
		c.text = c.text[:0]
	}
	c.state.screen = scr

	c.canvas.Clear()
	view := c.world.View()
	for _, d := range c.mode.Drawables() {
		if !d.ShouldBeCulled(view) {
			d.Draw(c.canvas, view)
		}
	}

	for _, s := range c.text {
		c.canvas.MarkTextDirty(s.col, s.row, s.n)
	}
	c.text = c.text[:0]

	c.canvas.Render(c.chunkWriter)
	c.canvas.RenderBorder(c.chunkWriter)
	c.drawUI(scr)

	return c.chunkWriter.Flush()
}

func (c *Client) writeAt(col, row int, color colorful.Color, s string) {
	c.chunkWriter.WriteColorAt(col, row, color, s)
	c.text = append(c.text, textSpan{col: col, row: row, n: utf8.RuneCountInString(s)})
}

func (c *Client) writeCentered(centerCol, row int, color colorful.Color, s string) {
	c.writeAt(max(centerCol-utf8.RuneCountInString(s)/2, 1), row, color, s)
}

// drawUI draws the text overlay.
func (c *Client) drawUI(scr screen) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	switch scr {
	case screenShutdown:
		c.drawShutdownScreen(centerX, centerY)
	case screenInactive:
		c.drawInactivityScreen(centerX, centerY)
	case screenPlaying:
		c.drawPlayingHUD(termWidth, centerX)
	case screenGameOver:
		c.drawGameOverScreen(centerX, centerY)
	default:
		c.drawMenuScreen(centerX, centerY)
	}

	if status := c.net.Status(); status != "" && scr != screenShutdown {
		c.writeCentered(centerX, termHeight, draw.Gray, status)
	}
}

func (c *Client) drawArt(art []string, centerX, top int, color colorful.Color) {
	width := 0
	for _, line := range art {
		width = max(width, len(line))
	}
	for i, line := range art {
		c.writeAt(max(centerX-width/2, 1), top+i, color, line)
	}
}

// blink alternates every 600ms.
func blink() bool {
	return time.Now().UnixMilli()/600%2 == 0
}

// drawMenuScreen draws the title screen.
func (c *Client) drawMenuScreen(centerX, centerY int) {
	titleStartY := centerY - 8
	c.drawArt(titleArt, centerX, titleStartY, draw.Green)

	subtitle := "~ Jump as high as the chaos lets you ~"
	c.writeCentered(centerX, titleStartY+len(titleArt)+1, draw.White, subtitle)

	controlsY := titleStartY + len(titleArt) + 3
	c.writeCentered(centerX, controlsY, draw.White, "Controls")

	controlLines := []string{
		"A D / < >  . . . . Move",
		"S / v  . . .  Fall faster",
		"ENTER / SPACE  . . Start",
	}
	if c.allowHost {
		controlLines = append(controlLines, "H  . . . . . . . . . Host")
	}
	controlLines = append(controlLines, "Q  . . . . . . . . . Quit")
	for i, line := range controlLines {
		c.writeCentered(centerX, controlsY+2+i, draw.Gray, line)
	}

	promptY := controlsY + len(controlLines) + 4
	if c.mode.Role() == game.Client {
		c.writeCentered(centerX, promptY, draw.White, "Waiting for the host to start")
	} else if blink() {
		c.writeCentered(centerX, promptY, draw.White, ">> Press ENTER to start <<")
	}
}

// drawPlayingHUD draws height, scores and the end phase countdown.
func (c *Client) drawPlayingHUD(termWidth, centerX int) {
	height := c.mode.LocalPlayer().ReachedHeight()
	c.writeAt(2, 1, draw.White, fmt.Sprintf("Height: %7.1f", height))

	if c.mode.Role() == game.Solo {
		if best := c.mode.Best(); best > 0 {
			text := fmt.Sprintf("Best: %7.1f", best)
			c.writeAt(termWidth-len(text), 1, draw.Gray, text)
		}
	} else {
		host, client := c.mode.Scores()
		text := fmt.Sprintf("Score %d : %d", host, client)
		c.writeAt(termWidth-len(text), 1, draw.White, text)
	}

	if left := c.mode.EndPhase(); left >= 0 {
		c.writeCentered(centerX, 3, draw.Red, fmt.Sprintf("Round ends in %2d s", int(left)+1))
	}
	if c.mode.LocalPlayer().Dead() {
		c.writeCentered(centerX, 5, draw.Red, "You fell! Waiting for the other player")
	}
}

// drawGameOverScreen draws the heights of the round and the score.
func (c *Client) drawGameOverScreen(centerX, centerY int) {
	titleStartY := centerY - 6
	c.drawArt(gameOverArt, centerX, titleStartY, draw.Red)

	y := titleStartY + len(gameOverArt) + 2
	host, client := c.mode.Heights()
	switch c.mode.Role() {
	case game.Solo:
		c.writeCentered(centerX, y, draw.White, fmt.Sprintf("Height: %.1f", host))
		c.writeCentered(centerX, y+1, draw.Gray, fmt.Sprintf("Best: %.1f", c.mode.Best()))
	default:
		hostScore, clientScore := c.mode.Scores()
		c.writeCentered(centerX, y, draw.White, fmt.Sprintf("Host %.1f  -  Client %.1f", host, client))
		c.writeCentered(centerX, y+1, draw.Gray, fmt.Sprintf("Score %d : %d", hostScore, clientScore))
	}

	if c.mode.Role() == game.Client {
		c.writeCentered(centerX, y+3, draw.White, "Waiting for the host to restart")
	} else if blink() {
		c.writeCentered(centerX, y+3, draw.White, ">> Press ENTER to play again <<")
	}
}

// drawInactivityScreen draws the inactivity warning.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-2, draw.Red, "INACTIVITY WARNING")

	left := c.cfg.Loop.InactivityDisconnect - time.Since(c.state.lastInput)
	msg := fmt.Sprintf("You have been inactive for too long. You will be disconnected in %d seconds.", int(left.Seconds()))
	c.writeCentered(centerX, centerY, draw.White, msg)

	c.writeCentered(centerX, centerY+2, draw.Gray, "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notice.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-2, draw.Red, "SERVER SHUTTING DOWN")
	c.writeCentered(centerX, centerY, draw.White, "The server is restarting. Please reconnect in a moment.")
	msg := fmt.Sprintf("Disconnecting in %d seconds", int(c.state.shutdownTimer)+1)
	c.writeCentered(centerX, centerY+2, draw.Gray, msg)
}
