package draw

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// cell is what one terminal character shows: a glyph with foreground and
// optional background color.
type cell struct {
	ch    rune
	fg    rgb
	bg    rgb
	hasBg bool
}

// Canvas is a color drawing buffer with 2x vertical resolution using half-block characters.
// Supports scaling from logical coordinates to actual terminal pixels.
type Canvas struct {
	termWidth      int // Actual terminal columns
	termHeight     int // Actual terminal rows
	subPixelHeight int // termHeight * 2
	pixels         []rgb
	lit            []bool // Flat slice: [y * termWidth + x] - true if pixel is set
	pen            rgb    // Color used by subsequent drawing calls

	// Scaling from logical to pixel coordinates
	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// Offset for centering the render area when terminal is larger than max resolution.
	// These are 0-based terminal offsets (columns/rows to skip).
	offsetCol int
	offsetRow int

	// Previous frame for diff rendering
	prev        []cell
	forceRedraw bool

	// Reusable buffers to reduce allocations
	renderBuf       strings.Builder
	scaledBuf       []Point   // Reusable buffer for fillPolygon scaled points
	intersectionBuf []float64 // Reusable buffer for scanline intersections
	polygonBuf      []Point   // Reusable buffer for polygon point generation
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to terminal pixels.
// logicalWidth/Height define the coordinate space used by game objects.
// termWidth/Height are the actual terminal dimensions.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64) *Canvas {
	c := &Canvas{
		logicalWidth:  logicalWidth,
		logicalHeight: logicalHeight,
		pen:           toRGB(White),
	}
	c.Resize(termWidth, termHeight)
	return c
}

// Resize updates the canvas for new terminal dimensions while keeping logical size.
func (c *Canvas) Resize(termWidth, termHeight int) {
	termWidth = max(termWidth, 1)
	termHeight = max(termHeight, 1)
	subPixelHeight := termHeight * 2

	// Reallocate if size changed
	if termWidth != c.termWidth || termHeight != c.termHeight {
		c.pixels = make([]rgb, subPixelHeight*termWidth)
		c.lit = make([]bool, subPixelHeight*termWidth)
		c.prev = make([]cell, termWidth*termHeight)
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = subPixelHeight
		c.forceRedraw = true
	}

	c.scaleX = float64(termWidth) / c.logicalWidth
	c.scaleY = float64(subPixelHeight) / c.logicalHeight
}

// SetOffset sets the column and row offset for centering the canvas.
// Offsets are 0-based terminal positions: the canvas starts at (offsetCol+1, offsetRow+1).
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.forceRedraw = true
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render write every cell, e.g. after the terminal was cleared.
func (c *Canvas) ForceRedraw() {
	c.forceRedraw = true
}

// dirtyCell never matches a composed cell, so marked cells are rewritten.
const dirtyCell rune = -1

// MarkTextDirty makes the next Render rewrite n cells starting at the 1-based
// canvas position (col, row), so text written over the canvas does not linger.
func (c *Canvas) MarkTextDirty(col, row, n int) {
	if row < 1 || row > c.termHeight {
		return
	}
	start := max(col-1, 0)
	end := min(col-1+n, c.termWidth)
	for i := start; i < end; i++ {
		c.prev[(row-1)*c.termWidth+i] = cell{ch: dirtyCell}
	}
}

// Clear resets all pixels in the canvas.
func (c *Canvas) Clear() {
	clear(c.lit)
}

// SetColor sets the color used by subsequent drawing calls.
func (c *Canvas) SetColor(col colorful.Color) {
	c.pen = toRGB(col)
}

// setPixel sets a pixel at actual terminal coordinates (no scaling).
func (c *Canvas) setPixel(x, y int) {
	if x >= 0 && x < c.termWidth && y >= 0 && y < c.subPixelHeight {
		i := y*c.termWidth + x
		c.pixels[i] = c.pen
		c.lit[i] = true
	}
}

// SetFloat sets a pixel using float logical coordinates (applies scaling).
func (c *Canvas) SetFloat(x, y float64) {
	px := int(math.Round(x * c.scaleX))
	py := int(math.Round(y * c.scaleY))
	c.setPixel(px, py)
}

// maxChunkSize is the maximum bytes to write at once for optimal network flow.
// 1500 bytes matches typical MTU size for smooth SSH/network transmission.
const maxChunkSize = 1400

// cellAt composes the glyph for a terminal cell from its two sub-pixels.
func (c *Canvas) cellAt(col, row int) cell {
	top := row*2*c.termWidth + col
	bottom := top + c.termWidth
	topLit := c.lit[top]
	bottomLit := c.lit[bottom]

	switch {
	case topLit && bottomLit && c.pixels[top] == c.pixels[bottom]:
		return cell{ch: BlockFull, fg: c.pixels[top]}
	case topLit && bottomLit:
		return cell{ch: BlockUpperHalf, fg: c.pixels[top], bg: c.pixels[bottom], hasBg: true}
	case topLit:
		return cell{ch: BlockUpperHalf, fg: c.pixels[top]}
	case bottomLit:
		return cell{ch: BlockLowerHalf, fg: c.pixels[bottom]}
	default:
		return cell{ch: BlockEmpty}
	}
}

// Render outputs the cells that changed since the previous Render.
func (c *Canvas) Render(w io.Writer) {
	c.renderBuf.Reset()
	c.renderBuf.Grow(c.termWidth * c.termHeight * 4)

	var num [20]byte
	for row := 0; row < c.termHeight; row++ {
		for col := 0; col < c.termWidth; col++ {
			cur := c.cellAt(col, row)
			idx := row*c.termWidth + col
			if !c.forceRedraw && c.prev[idx] == cur {
				continue
			}
			c.prev[idx] = cur
			if c.forceRedraw && cur.ch == BlockEmpty {
				continue // Screen was cleared
			}

			c.renderBuf.WriteString("\033[")
			c.renderBuf.Write(strconv.AppendInt(num[:0], int64(row+1+c.offsetRow), 10))
			c.renderBuf.WriteByte(';')
			c.renderBuf.Write(strconv.AppendInt(num[:0], int64(col+1+c.offsetCol), 10))
			c.renderBuf.WriteByte('H')
			if cur.ch == BlockEmpty {
				c.renderBuf.WriteByte(' ')
				continue
			}
			appendSGR(&c.renderBuf, 38, cur.fg)
			if cur.hasBg {
				appendSGR(&c.renderBuf, 48, cur.bg)
			}
			c.renderBuf.WriteRune(cur.ch)
			c.renderBuf.WriteString(resetStyle)
		}
	}
	c.forceRedraw = false

	// Write output in chunks for optimal network flow
	data := c.renderBuf.String()
	for len(data) > 0 {
		chunk := data
		if len(chunk) > maxChunkSize {
			chunk = data[:maxChunkSize]
		}
		io.WriteString(w, chunk)
		data = data[len(chunk):]
	}
}

// RenderBorder draws a box border around the canvas area when the terminal
// exceeds the max render resolution on either axis.
func (c *Canvas) RenderBorder(w io.Writer) {
	hasH := c.offsetCol >= 1 // Room for left/right vertical bars
	hasV := c.offsetRow >= 1 // Room for top/bottom horizontal bars
	if !hasH && !hasV {
		return
	}

	// Border positions (1-based terminal coordinates)
	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1

	var buf strings.Builder
	line := strings.Repeat("─", c.termWidth)
	at := func(row, col int) {
		buf.WriteString("\033[" + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "H")
	}

	if hasV {
		if hasH {
			at(top, left)
			buf.WriteString("┌" + line + "┐")
			at(bottom, left)
			buf.WriteString("└" + line + "┘")
		} else {
			at(top, c.offsetCol+1)
			buf.WriteString(line)
			at(bottom, c.offsetCol+1)
			buf.WriteString(line)
		}
	}

	if hasH {
		startRow, endRow := top+1, bottom
		if !hasV {
			startRow = c.offsetRow + 1
			endRow = c.offsetRow + c.termHeight + 1
		}
		for row := startRow; row < endRow; row++ {
			at(row, left)
			buf.WriteString("│")
			at(row, right)
			buf.WriteString("│")
		}
	}

	io.WriteString(w, buf.String())
}

// LogicalWidth returns the logical width (target resolution).
func (c *Canvas) LogicalWidth() float64 {
	return c.logicalWidth
}

// LogicalHeight returns the logical height (target resolution).
func (c *Canvas) LogicalHeight() float64 {
	return c.logicalHeight
}

// TerminalWidth returns the actual terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the actual terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// LogicalToTerminal converts logical coordinates to 1-based canvas position (col, row).
func (c *Canvas) LogicalToTerminal(x, y float64) (col, row int) {
	px := int(math.Round(x * c.scaleX))
	py := int(math.Round(y * c.scaleY))
	return px + 1, py/2 + 1
}

// BorrowPoints returns a reusable slice of Points with the given length.
// The returned slice is only valid until the next call to BorrowPoints.
func (c *Canvas) BorrowPoints(n int) []Point {
	if cap(c.polygonBuf) < n {
		c.polygonBuf = make([]Point, n)
	}
	return c.polygonBuf[:n]
}
