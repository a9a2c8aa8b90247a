// Package netplay replicates game entities between two peers over a websocket.
//
// Each side owns some entities (its local ones) and sends their state every
// frame. The other side creates a remote copy from a registered factory when it
// first hears of an entity and applies every later update to it.
package netplay

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Kind is the frame type.
type Kind uint8

const (
	Spawn   Kind = iota + 1 // A new entity, with its full state
	Update                  // New state of a known entity
	Destroy                 // The entity is gone
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Spawn:
		return "spawn"
	case Update:
		return "update"
	case Destroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// headerSize is kind, type ID and entity ID.
const headerSize = 2 + 16

var (
	ErrShortFrame  = errors.New("netplay: frame too short")
	ErrUnknownKind = errors.New("netplay: unknown frame kind")
	ErrUnknownType = errors.New("netplay: no factory for type")
	ErrClosed      = errors.New("netplay: connection closed")
	ErrBusy        = errors.New("netplay: peer already connected")
)

// Frame is one replication message: [kind][type ID][entity ID][payload].
type Frame struct {
	Kind    Kind
	TypeID  uint8
	ID      uuid.UUID
	Payload []byte
}

// Marshal encodes the frame.
func (f Frame) Marshal() []byte {
	buf := make([]byte, headerSize+len(f.Payload))
	buf[0] = byte(f.Kind)
	buf[1] = f.TypeID
	copy(buf[2:headerSize], f.ID[:])
	copy(buf[headerSize:], f.Payload)
	return buf
}

// ParseFrame decodes a frame. The payload aliases data.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) < headerSize {
		return Frame{}, errors.Wrapf(ErrShortFrame, "got %d bytes", len(data))
	}

	f := Frame{
		Kind:    Kind(data[0]),
		TypeID:  data[1],
		Payload: data[headerSize:],
	}
	if f.Kind < Spawn || f.Kind > Destroy {
		return Frame{}, errors.Wrapf(ErrUnknownKind, "kind %d", data[0])
	}
	copy(f.ID[:], data[2:headerSize])
	return f, nil
}
