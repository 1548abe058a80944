package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated   = errors.New("protocol: truncated packet")
	ErrUnknownType = errors.New("protocol: unknown packet type")
)

// TruncatedError reports a buffer too short for its packet type.  An
// empty buffer has no type and Got == 0.
type TruncatedError struct {
	Type Type
	Need int
	Got  int
}

func (e *TruncatedError) Error() string {
	if e.Got == 0 {
		return "protocol: empty packet (no type tag)"
	}
	return fmt.Sprintf("protocol: truncated %s packet (%d of %d bytes)", e.Type, e.Got, e.Need)
}

// Is lets errors.Is(err, ErrTruncated) match.
func (e *TruncatedError) Is(target error) bool { return target == ErrTruncated }
