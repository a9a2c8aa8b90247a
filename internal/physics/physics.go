// Package physics provides the 2D collision engine: shapes, the shape-pair
// resolver, bodies and the world that owns them.
package physics

import "fmt"

// Category is the gameplay tag that selects the collision response between bodies.
type Category uint8

const (
	Ground Category = iota
	Obstacle
	Player

	NumCategories
)

// String implements fmt.Stringer.
func (c Category) String() string {
	switch c {
	case Ground:
		return "ground"
	case Obstacle:
		return "obstacle"
	case Player:
		return "player"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Response is how a body reacts to another body of a given category.
type Response uint8

const (
	Overlap Response = iota // Detected, non-obstructing, tracked with begin/update/end
	Block                   // Physical collision
	Ignore                  // Not tested at all
)

// String implements fmt.Stringer.
func (r Response) String() string {
	switch r {
	case Overlap:
		return "overlap"
	case Block:
		return "block"
	case Ignore:
		return "ignore"
	default:
		return fmt.Sprintf("response(%d)", uint8(r))
	}
}

// ResponseConfig maps the other body's category to this body's response.
type ResponseConfig [NumCategories]Response

var defaultResponses = [NumCategories]ResponseConfig{
	Ground:   {Ground: Ignore, Obstacle: Ignore, Player: Ignore},
	Obstacle: {Ground: Ignore, Obstacle: Block, Player: Block},
	Player:   {Ground: Overlap, Obstacle: Block, Player: Block},
}

// DefaultResponses returns the response table a body of category c starts with.
func DefaultResponses(c Category) ResponseConfig {
	if c >= NumCategories {
		panic(fmt.Sprintf("physics: unknown category %d", c))
	}
	return defaultResponses[c]
}
