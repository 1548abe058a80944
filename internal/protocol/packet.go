// Package protocol implements the fixed-layout packet format spoken
// between roverctl and the robot's controller.
//
// Every packet starts with a one-byte type tag that fully determines how
// the remaining bytes are read.  Packets are not self-describing: the
// decoder knows the minimum size of each type up front and rejects
// anything shorter instead of reading past the buffer.
package protocol

import "fmt"

// Type is the leading discriminator byte of every packet.
type Type uint8

const (
	TypeError      Type = 0
	TypeStatus     Type = 1
	TypeMessage    Type = 2
	TypeCommand    Type = 3
	TypeColour     Type = 4
	TypeUltrasonic Type = 5
)

func (t Type) String() string {
	switch t {
	case TypeError:
		return "ERROR"
	case TypeStatus:
		return "STATUS"
	case TypeMessage:
		return "MESSAGE"
	case TypeCommand:
		return "COMMAND"
	case TypeColour:
		return "COLOUR"
	case TypeUltrasonic:
		return "ULTRASONIC"
	default:
		return fmt.Sprintf("TYPE(%d)", uint8(t))
	}
}

// ── Sizes ────────────────────────────────────────────────────────────

const (
	// CommandSize is the total length of an outbound COMMAND packet:
	// type, subcommand, and two little-endian int32 parameters.
	CommandSize = 1 + 1 + 4 + 4

	// MaxParams is the number of int32 slots an integer-array payload
	// can carry.
	MaxParams = 16

	// ReadBufferSize is the size of the buffer used for one inbound read.
	ReadBufferSize = 128

	// StatusFields is the number of odometry counters in a STATUS packet.
	StatusFields = 10

	// ColourFields is R, G, B and the classification code.
	ColourFields = 4
)

// MinSize returns the smallest buffer, type byte included, that can hold
// a packet of type t.  Unknown types report 1.
func MinSize(t Type) int {
	switch t {
	case TypeError:
		return 2
	case TypeStatus:
		return 1 + 4*StatusFields
	case TypeColour:
		return 1 + 4*ColourFields
	case TypeUltrasonic:
		return 1 + 4
	case TypeCommand:
		return CommandSize
	default:
		return 1
	}
}

// ── Response codes ───────────────────────────────────────────────────

// ResponseCode is the single payload byte of an ERROR packet.
type ResponseCode uint8

const (
	RespOK          ResponseCode = 0
	RespBadPacket   ResponseCode = 1
	RespBadChecksum ResponseCode = 2
	RespBadCommand  ResponseCode = 3
	RespBadResponse ResponseCode = 4
)

// Known reports whether c is one of the codes the controller defines.
func (c ResponseCode) Known() bool { return c <= RespBadResponse }

func (c ResponseCode) String() string {
	switch c {
	case RespOK:
		return "OK"
	case RespBadPacket:
		return "BAD_PACKET"
	case RespBadChecksum:
		return "BAD_CHECKSUM"
	case RespBadCommand:
		return "BAD_COMMAND"
	case RespBadResponse:
		return "BAD_RESPONSE"
	default:
		return fmt.Sprintf("RESP(%d)", uint8(c))
	}
}

// ── Decoded packets ──────────────────────────────────────────────────

// Packet is one decoded inbound packet.  The set of implementations is
// closed; use a type switch to handle them.
type Packet interface {
	Type() Type
	packet()
}

// ErrorPacket carries a response code reported by the controller.
type ErrorPacket struct {
	Code ResponseCode
}

// StatusPacket carries the odometry counters, in wire order.
type StatusPacket struct {
	LeftForwardTicks       int32
	RightForwardTicks      int32
	LeftReverseTicks       int32
	RightReverseTicks      int32
	LeftForwardTicksTurns  int32
	RightForwardTicksTurns int32
	LeftReverseTicksTurns  int32
	RightReverseTicksTurns int32
	ForwardDistance        int32
	ReverseDistance        int32
}

// Colour is the controller's classification of a colour reading.
type Colour int32

const (
	ColourRed   Colour = 0
	ColourGreen Colour = 1
	ColourWhite Colour = 2
)

// ClassifyColour maps the raw classification code onto a Colour.  Every
// value other than 0 and 1 is white.
func ClassifyColour(code int32) Colour {
	switch code {
	case 0:
		return ColourRed
	case 1:
		return ColourGreen
	default:
		return ColourWhite
	}
}

func (c Colour) String() string {
	switch c {
	case ColourRed:
		return "red"
	case ColourGreen:
		return "green"
	default:
		return "white"
	}
}

// ColourPacket carries one colour sensor reading.
type ColourPacket struct {
	Red, Green, Blue int32
	Code             int32 // raw classification code
}

// Colour returns the classification of the reading.
func (p ColourPacket) Colour() Colour { return ClassifyColour(p.Code) }

// UltrasonicPacket carries one distance reading in centimetres.
type UltrasonicPacket struct {
	DistanceCM int32
}

// MessagePacket carries free text from the controller.
type MessagePacket struct {
	Text string
}

// CommandPacket is a command as it appears on the wire.  The client only
// sends these; decoding exists for symmetry and tests.
type CommandPacket struct {
	Sub    byte
	Param0 int32
	Param1 int32
}

func (ErrorPacket) Type() Type      { return TypeError }
func (StatusPacket) Type() Type     { return TypeStatus }
func (ColourPacket) Type() Type     { return TypeColour }
func (UltrasonicPacket) Type() Type { return TypeUltrasonic }
func (MessagePacket) Type() Type    { return TypeMessage }
func (CommandPacket) Type() Type    { return TypeCommand }

func (ErrorPacket) packet()      {}
func (StatusPacket) packet()     {}
func (ColourPacket) packet()     {}
func (UltrasonicPacket) packet() {}
func (MessagePacket) packet()    {}
func (CommandPacket) packet()    {}

// Fields returns the counters in wire order.
func (s StatusPacket) Fields() [StatusFields]int32 {
	return [StatusFields]int32{
		s.LeftForwardTicks, s.RightForwardTicks,
		s.LeftReverseTicks, s.RightReverseTicks,
		s.LeftForwardTicksTurns, s.RightForwardTicksTurns,
		s.LeftReverseTicksTurns, s.RightReverseTicksTurns,
		s.ForwardDistance, s.ReverseDistance,
	}
}
