// Package input turns a raw terminal byte stream into key press, release and hold events.
package input

import (
	"bufio"
	"fmt"
	"slices"
	"time"
)

// DefaultHoldDuration is how long a key is considered "held" after its last byte.
// Terminals repeat held keys, so a key stays down while repeats keep arriving.
const DefaultHoldDuration = 120 * time.Millisecond

// Key identifies a key. Printable ASCII keys use their lowercase byte value.
type Key uint16

// Special keys live above the byte range.
const (
	KeyNone Key = iota + 256
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyInterrupt // Ctrl+C
	KeySpace     = Key(' ')
)

// String implements fmt.Stringer.
func (k Key) String() string {
	switch k {
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "escape"
	case KeyBackspace:
		return "backspace"
	case KeyInterrupt:
		return "ctrl+c"
	case KeySpace:
		return "space"
	}
	if k > ' ' && k < 0x7f {
		return string(rune(k))
	}
	return fmt.Sprintf("key(%d)", uint16(k))
}

// Input is the current frame's key edges and held keys.
type Input struct {
	Pressed  []Key // Keys that went down this frame
	Released []Key // Keys that went up this frame
	Held     []Key // Keys currently down, in press order
	Quit     bool  // q, Ctrl+C or end of stream
}

// WasPressed reports whether k went down this frame.
func (in Input) WasPressed(k Key) bool {
	return slices.Contains(in.Pressed, k)
}

// IsHeld reports whether k is down.
func (in Input) IsHeld(k Key) bool {
	return slices.Contains(in.Held, k)
}

// Stream delivers input bytes via a channel and tracks which keys are held.
type Stream struct {
	ch       chan byte
	closed   bool
	hold     time.Duration
	lastSeen map[Key]time.Time
	held     []Key
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader, hold time.Duration) *Stream {
	s := newStream(hold)
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream(hold time.Duration) *Stream {
	if hold <= 0 {
		hold = DefaultHoldDuration
	}
	return &Stream{
		ch:       make(chan byte, 128),
		hold:     hold,
		lastSeen: make(map[Key]time.Time),
	}
}

// ReadInput drains all available bytes from the stream (non-blocking) and
// returns the key edges since the previous call.
func ReadInput(s *Stream) Input {
	var buf []byte

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	in := s.apply(ParseKeys(buf), time.Now())
	in.Quit = in.Quit || s.closed
	return in
}

// Reset releases every held key without producing events, e.g. on a screen change.
func (s *Stream) Reset() {
	clear(s.lastSeen)
	s.held = s.held[:0]
}

// apply updates hold state with the keys seen at now.
func (s *Stream) apply(keys []Key, now time.Time) Input {
	var in Input
	for _, k := range keys {
		if k == Key('q') || k == KeyInterrupt {
			in.Quit = true
		}
		s.lastSeen[k] = now
		if !slices.Contains(s.held, k) {
			s.held = append(s.held, k)
			in.Pressed = append(in.Pressed, k)
		}
	}

	s.held = slices.DeleteFunc(s.held, func(k Key) bool {
		if now.Sub(s.lastSeen[k]) < s.hold {
			return false
		}
		delete(s.lastSeen, k)
		in.Released = append(in.Released, k)
		return true
	})
	in.Held = slices.Clone(s.held)
	return in
}

// ParseKeys decodes raw terminal bytes, including CSI arrow key sequences.
func ParseKeys(buf []byte) []Key {
	var keys []Key
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			k := KeyNone
			switch buf[i+2] {
			case 'A':
				k = KeyUp
			case 'B':
				k = KeyDown
			case 'C':
				k = KeyRight
			case 'D':
				k = KeyLeft
			}
			if k != KeyNone {
				keys = append(keys, k)
				i += 2
				continue
			}
		}

		switch {
		case b == '\x1b':
			keys = append(keys, KeyEscape)
		case b == '\r' || b == '\n':
			keys = append(keys, KeyEnter)
		case b == '\b' || b == '\x7f':
			keys = append(keys, KeyBackspace)
		case b == '\x03':
			keys = append(keys, KeyInterrupt)
		case b >= 'A' && b <= 'Z':
			keys = append(keys, Key(b-'A'+'a'))
		case b >= ' ' && b < 0x7f:
			keys = append(keys, Key(b))
		}
	}
	return keys
}
