// Package command maps operator keystrokes onto outbound COMMAND packets.
package command

import (
	"errors"
	"strconv"
	"strings"

	"roverctl/internal/protocol"
)

// ErrBadCommand is returned for input that maps to no command.
var ErrBadCommand = errors.New("bad command")

// Drive holds the parameters sent with movement commands.
type Drive struct {
	Distance  int32 // cm, forward / reverse
	Power     int32 // percent, forward / reverse
	Angle     int32 // degrees, left / right
	TurnPower int32 // percent, left / right
}

// Intent is the result of mapping one line of operator input.
type Intent struct {
	Quit   bool
	Sub    byte
	Param0 int32
	Param1 int32
}

// Encode returns the wire form of the intent.  It must not be called on
// a quit intent.
func (i Intent) Encode() []byte {
	return protocol.EncodeCommand(i.Sub, i.Param0, i.Param1)
}

// Kind classifies a command letter by the parameters it takes.
type Kind int

const (
	KindInvalid Kind = iota
	KindQuit
	KindMove // distance + power
	KindTurn // angle + turn power
	KindBare // no parameters, sent as zeros
)

// Classify reports what kind of command ch is.
func Classify(ch byte) Kind {
	switch ch {
	case 'f', 'F', 'b', 'B':
		return KindMove
	case 'l', 'L', 'r', 'R':
		return KindTurn
	case 'h', 'v', 't', 's', 'S', 'c', 'C', 'g', 'G':
		return KindBare
	case 'q', 'Q':
		return KindQuit
	default:
		return KindInvalid
	}
}

// subcommand returns the letter put on the wire for ch.  Most letters go
// out as typed; the sensor queries are renamed.
func subcommand(ch byte) byte {
	switch ch {
	case 'v':
		return 'u' // ultrasonic
	case 't':
		return 'm'
	default:
		return ch
	}
}

// Mapper turns input lines into intents.
type Mapper struct {
	Defaults Drive

	// Inline lets "f 50 75" override the default distance and power for
	// movement commands.  Without it the rest of the line is discarded.
	Inline bool
}

// Map translates one line of input.  The first byte selects the command;
// anything after it is ignored unless Inline is set.
func (m *Mapper) Map(line Line) (Intent, error) {
	ch := line.Char
	switch Classify(ch) {
	case KindQuit:
		return Intent{Quit: true}, nil
	case KindMove:
		p0, p1 := m.Defaults.Distance, m.Defaults.Power
		if m.Inline {
			p0, p1 = inlineParams(line.Rest, p0, p1)
		}
		return Intent{Sub: ch, Param0: p0, Param1: p1}, nil
	case KindTurn:
		p0, p1 := m.Defaults.Angle, m.Defaults.TurnPower
		if m.Inline {
			p0, p1 = inlineParams(line.Rest, p0, p1)
		}
		return Intent{Sub: ch, Param0: p0, Param1: p1}, nil
	case KindBare:
		return Intent{Sub: subcommand(ch)}, nil
	default:
		return Intent{}, ErrBadCommand
	}
}

// WithParams returns a copy of i carrying explicit parameters.
func (i Intent) WithParams(p0, p1 int32) Intent {
	i.Param0, i.Param1 = p0, p1
	return i
}

// inlineParams parses "<a> <b>" from rest, falling back to the defaults
// when rest does not hold exactly two integers.
func inlineParams(rest string, d0, d1 int32) (int32, int32) {
	p0, p1, err := parseParams(rest)
	if err != nil {
		return d0, d1
	}
	return p0, p1
}

func parseParams(s string) (int32, int32, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, errors.New("expected two integers")
	}
	a, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(a), int32(b), nil
}
