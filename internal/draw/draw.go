// Package draw renders colored shapes to an ANSI terminal using half-block
// characters for double vertical resolution.
package draw

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Block characters for drawing.
const (
	BlockFull      = '█'
	BlockEmpty     = ' '
	BlockUpperHalf = '▀'
	BlockLowerHalf = '▄'
)

// ANSI sequences used by the renderer.
const (
	resetStyle = "\033[0m"
	clearAll   = "\033[H\033[2J"
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
)

// Common colors.
var (
	White = colorful.Color{R: 1, G: 1, B: 1}
	Red   = colorful.Color{R: 1, G: 0, B: 0}
	Green = colorful.Color{R: 0, G: 1, B: 0}
	Gray  = colorful.Color{R: 0.5, G: 0.5, B: 0.5}
)

// rgb is a clamped 24-bit color, comparable for frame diffing.
type rgb [3]uint8

func toRGB(c colorful.Color) rgb {
	r, g, b := c.Clamped().RGB255()
	return rgb{r, g, b}
}

// appendSGR appends a truecolor select-graphic-rendition sequence.
// layer is 38 for foreground and 48 for background.
func appendSGR(sb *strings.Builder, layer int, c rgb) {
	var num [3]byte
	sb.WriteString("\033[")
	sb.Write(strconv.AppendInt(num[:0], int64(layer), 10))
	sb.WriteString(";2")
	for _, v := range c {
		sb.WriteByte(';')
		sb.Write(strconv.AppendInt(num[:0], int64(v), 10))
	}
	sb.WriteByte('m')
}

// Foreground returns the escape sequence that sets the text color.
func Foreground(c colorful.Color) string {
	var sb strings.Builder
	appendSGR(&sb, 38, toRGB(c))
	return sb.String()
}

// Colorize wraps s in a foreground color and a style reset.
func Colorize(c colorful.Color, s string) string {
	return Foreground(c) + s + resetStyle
}
