// Package dispatch turns decoded inbound packets into operator-facing
// output.  It never touches the connection or the session's liveness;
// its only side effect is text written to Out.
package dispatch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"roverctl/internal/metrics"
	"roverctl/internal/protocol"
	"roverctl/util"
)

// Dispatcher routes packets to a handler by type tag.
type Dispatcher struct {
	Out     io.Writer
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// New returns a Dispatcher writing to out.  A nil out means os.Stdout.
func New(out io.Writer, logger *util.Logger, m *metrics.Collector) *Dispatcher {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Dispatcher{Out: out, Logger: logger, Metrics: m}
}

// Handle decodes one inbound read and dispatches it.  Truncated packets
// are dropped with a one-line warning; unknown type tags are ignored.
func (d *Dispatcher) Handle(buf []byte) {
	pkt, err := protocol.Decode(buf)
	switch {
	case err == nil:
		d.Dispatch(pkt)
	case errors.Is(err, protocol.ErrTruncated):
		d.Metrics.Truncated()
		d.printf("dropped packet: %v\n", err)
	case errors.Is(err, protocol.ErrUnknownType):
		d.Metrics.Ignored()
		d.Logger.Debug("ignoring packet with unknown type %d (%d bytes)", buf[0], len(buf))
	default:
		d.Logger.Warn("decode: %v", err)
	}
}

// Dispatch runs the handler for p.
func (d *Dispatcher) Dispatch(p protocol.Packet) {
	switch p := p.(type) {
	case protocol.ErrorPacket:
		d.handleError(p)
	case protocol.StatusPacket:
		d.handleStatus(p)
	case protocol.ColourPacket:
		d.handleColour(p)
	case protocol.UltrasonicPacket:
		d.printf("\nUltrasonic distance: %dcm\n", p.DistanceCM)
	case protocol.MessagePacket:
		d.printf("MESSAGE FROM ROBOT: %s\n", p.Text)
	case protocol.CommandPacket:
		// The controller never sends commands to us.
	}
}

// ── handlers ─────────────────────────────────────────────────────────

// ErrorText returns the diagnostic line for a response code.
func ErrorText(code protocol.ResponseCode) string {
	switch code {
	case protocol.RespOK:
		return "Command / Status OK"
	case protocol.RespBadPacket:
		return "BAD MAGIC NUMBER FROM CONTROLLER"
	case protocol.RespBadChecksum:
		return "BAD CHECKSUM FROM CONTROLLER"
	case protocol.RespBadCommand:
		return "CONTROLLER REJECTED A BAD COMMAND"
	case protocol.RespBadResponse:
		return "BAD RESPONSE FROM CONTROLLER"
	default:
		return fmt.Sprintf("UNRECOGNISED RESPONSE CODE %d", uint8(code))
	}
}

func (d *Dispatcher) handleError(p protocol.ErrorPacket) {
	d.printf("%s\n", ErrorText(p.Code))
}

// statusLabels name the STATUS fields in wire order.
var statusLabels = [protocol.StatusFields]string{
	"Left Forward Ticks:\t\t",
	"Right Forward Ticks:\t\t",
	"Left Reverse Ticks:\t\t",
	"Right Reverse Ticks:\t\t",
	"Left Forward Ticks Turns:\t",
	"Right Forward Ticks Turns:\t",
	"Left Reverse Ticks Turns:\t",
	"Right Reverse Ticks Turns:\t",
	"Forward Distance:\t\t",
	"Reverse Distance:\t\t",
}

func (d *Dispatcher) handleStatus(p protocol.StatusPacket) {
	d.printf("\n ------- ROBOT STATUS REPORT ------- \n\n")
	for i, v := range p.Fields() {
		d.printf("%s%d\n", statusLabels[i], v)
	}
	d.printf("\n-----------------------------------\n\n")
}

func (d *Dispatcher) handleColour(p protocol.ColourPacket) {
	d.printf("\nColour detected:\n")
	for i, v := range [3]int32{p.Red, p.Green, p.Blue} {
		d.printf("RGB %d: %d\n", i, v)
	}
	d.printf("Colour is %s\n", p.Colour())
}

func (d *Dispatcher) printf(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(d.Out, format, args...); err != nil {
		d.Logger.Debug("display write: %v", err)
	}
}
