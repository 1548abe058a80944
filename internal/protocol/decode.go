package protocol

import (
	"bytes"
	"encoding/binary"
)

// Decode parses one inbound packet from buf.  buf must hold exactly the
// bytes produced by a single read; anything past what the type consumes
// is ignored.
//
// A buffer shorter than the type's minimum yields a *TruncatedError and
// an unrecognised tag yields ErrUnknownType.  Neither reads past len(buf).
func Decode(buf []byte) (Packet, error) {
	if len(buf) == 0 {
		return nil, &TruncatedError{Need: 1}
	}

	t := Type(buf[0])
	switch t {
	case TypeError, TypeStatus, TypeColour, TypeUltrasonic, TypeMessage, TypeCommand:
	default:
		return nil, ErrUnknownType
	}

	if need := MinSize(t); len(buf) < need {
		return nil, &TruncatedError{Type: t, Need: need, Got: len(buf)}
	}

	switch t {
	case TypeError:
		return ErrorPacket{Code: ResponseCode(buf[1])}, nil

	case TypeStatus:
		p := Params(buf[1:])
		return StatusPacket{
			LeftForwardTicks:       p[0],
			RightForwardTicks:      p[1],
			LeftReverseTicks:       p[2],
			RightReverseTicks:      p[3],
			LeftForwardTicksTurns:  p[4],
			RightForwardTicksTurns: p[5],
			LeftReverseTicksTurns:  p[6],
			RightReverseTicksTurns: p[7],
			ForwardDistance:        p[8],
			ReverseDistance:        p[9],
		}, nil

	case TypeColour:
		p := Params(buf[1:])
		return ColourPacket{Red: p[0], Green: p[1], Blue: p[2], Code: p[3]}, nil

	case TypeUltrasonic:
		p := Params(buf[1:])
		return UltrasonicPacket{DistanceCM: p[0]}, nil

	case TypeMessage:
		text := buf[1:]
		if i := bytes.IndexByte(text, 0); i >= 0 {
			text = text[:i]
		}
		return MessagePacket{Text: string(text)}, nil

	default: // TypeCommand
		return CommandPacket{
			Sub:    buf[1],
			Param0: int32(binary.LittleEndian.Uint32(buf[2:6])),
			Param1: int32(binary.LittleEndian.Uint32(buf[6:10])),
		}, nil
	}
}

// Params reads b as a run of little-endian int32 values.  At most
// MaxParams slots are filled; trailing bytes that do not make up a whole
// value are ignored and unfilled slots stay zero.
func Params(b []byte) [MaxParams]int32 {
	var out [MaxParams]int32
	for i := 0; i < MaxParams && 4*i+4 <= len(b); i++ {
		out[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}
