package draw

import (
	"math"
	"slices"
)

// DrawLine draws a line on the canvas using Bresenham's algorithm.
// Coordinates are in logical space and get scaled to pixels.
func (c *Canvas) DrawLine(p1, p2 Point) {
	x1 := int(math.Round(p1.X * c.scaleX))
	y1 := int(math.Round(p1.Y * c.scaleY))
	x2 := int(math.Round(p2.X * c.scaleX))
	y2 := int(math.Round(p2.Y * c.scaleY))

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		c.setPixel(x1, y1)

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// DrawPolygon draws a polygon on the canvas.
// If filled is true, the interior is filled using scanline algorithm.
func (c *Canvas) DrawPolygon(points []Point, filled bool) {
	if len(points) < 3 {
		return
	}

	if filled {
		c.fillPolygon(points)
	}

	n := len(points)
	for i := 0; i < n; i++ {
		c.DrawLine(points[i], points[(i+1)%n])
	}
}

// fillPolygon fills a polygon using scanline algorithm in pixel space.
func (c *Canvas) fillPolygon(points []Point) {
	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]

	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
	}

	minY, maxY := scaled[0].Y, scaled[0].Y
	for _, p := range scaled {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	// Only scan rows that are on the canvas
	yStart := max(int(math.Floor(minY)), 0)
	yEnd := min(int(math.Ceil(maxY)), c.subPixelHeight-1)

	for y := yStart; y <= yEnd; y++ {
		scanY := float64(y) + 0.5

		intersections := c.intersectionBuf[:0]
		n := len(scaled)
		for i := 0; i < n; i++ {
			p1 := scaled[i]
			p2 := scaled[(i+1)%n]

			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				intersections = append(intersections, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = intersections

		slices.Sort(intersections)

		for i := 0; i+1 < len(intersections); i += 2 {
			xStart := max(int(math.Ceil(intersections[i])), 0)
			xEnd := min(int(math.Floor(intersections[i+1])), c.termWidth-1)
			for x := xStart; x <= xEnd; x++ {
				c.setPixel(x, y)
			}
		}
	}
}

// DrawCircle draws a circle around center. The radius is in logical units and
// scales per axis, so circles stay round when the terminal aspect differs.
func (c *Canvas) DrawCircle(center Point, radius float64, filled bool) {
	cx, cy := center.X*c.scaleX, center.Y*c.scaleY
	rx, ry := radius*c.scaleX, radius*c.scaleY
	if rx <= 0 || ry <= 0 {
		return
	}

	if filled {
		yStart := max(int(math.Floor(cy-ry)), 0)
		yEnd := min(int(math.Ceil(cy+ry)), c.subPixelHeight-1)
		for y := yStart; y <= yEnd; y++ {
			dy := (float64(y) + 0.5 - cy) / ry
			if dy < -1 || dy > 1 {
				continue
			}
			half := rx * math.Sqrt(1-dy*dy)
			xStart := max(int(math.Ceil(cx-half)), 0)
			xEnd := min(int(math.Floor(cx+half)), c.termWidth-1)
			for x := xStart; x <= xEnd; x++ {
				c.setPixel(x, y)
			}
		}
	}

	// Outline: enough samples that neighbours touch
	steps := max(int(2*math.Pi*math.Max(rx, ry)), 8)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		c.setPixel(int(math.Round(cx+rx*math.Cos(a))), int(math.Round(cy+ry*math.Sin(a))))
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
