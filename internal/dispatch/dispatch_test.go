package dispatch

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roverctl/internal/metrics"
	"roverctl/internal/protocol"
	"roverctl/util"
)

func newTestDispatcher() (*Dispatcher, *bytes.Buffer, *metrics.Collector) {
	var out bytes.Buffer
	m := metrics.New()
	return New(&out, util.NewLogger(0), m), &out, m
}

func intsPacket(t protocol.Type, vals ...int32) []byte {
	buf := make([]byte, 1+4*len(vals))
	buf[0] = byte(t)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[1+4*i:], uint32(v))
	}
	return buf
}

func TestHandle_Status(t *testing.T) {
	d, out, _ := newTestDispatcher()

	d.Handle(intsPacket(protocol.TypeStatus, 10, 12, 0, 0, 0, 0, 0, 0, 100, 0))

	report := out.String()
	assert.Contains(t, report, "Left Forward Ticks:\t\t10\n")
	assert.Contains(t, report, "Right Forward Ticks:\t\t12\n")
	assert.Contains(t, report, "Forward Distance:\t\t100\n")
	assert.Contains(t, report, "Reverse Distance:\t\t0\n")
	assert.Contains(t, report, "Left Reverse Ticks Turns:\t0\n")
}

func TestHandle_StatusOrder(t *testing.T) {
	d, out, _ := newTestDispatcher()

	d.Handle(intsPacket(protocol.TypeStatus, -1, -2, -3, -4, -5, -6, -7, -8, -9, -10))

	var got []string
	for _, line := range strings.Split(out.String(), "\n") {
		if i := strings.LastIndexByte(line, '\t'); i >= 0 {
			got = append(got, line[i+1:])
		}
	}
	assert.Equal(t, []string{"-1", "-2", "-3", "-4", "-5", "-6", "-7", "-8", "-9", "-10"}, got)
}

func TestHandle_ErrorCodes(t *testing.T) {
	tests := []struct {
		code protocol.ResponseCode
		want string
	}{
		{protocol.RespOK, "OK"},
		{protocol.RespBadPacket, "MAGIC NUMBER"},
		{protocol.RespBadChecksum, "CHECKSUM"},
		{protocol.RespBadCommand, "BAD COMMAND"},
		{protocol.RespBadResponse, "BAD RESPONSE"},
		{protocol.ResponseCode(42), "UNRECOGNISED"},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			d, out, _ := newTestDispatcher()
			d.Handle([]byte{byte(protocol.TypeError), byte(tt.code)})
			assert.Contains(t, out.String(), tt.want)
			assert.Equal(t, 1, strings.Count(out.String(), "\n"), "one line per error")
		})
	}
}

func TestHandle_Colour(t *testing.T) {
	tests := []struct {
		code int32
		want string
	}{
		{0, "Colour is red"},
		{1, "Colour is green"},
		{2, "Colour is white"},
		{-7, "Colour is white"},
	}
	for _, tt := range tests {
		d, out, _ := newTestDispatcher()
		d.Handle(intsPacket(protocol.TypeColour, 255, 128, 3, tt.code))

		s := out.String()
		assert.Contains(t, s, "RGB 0: 255\n")
		assert.Contains(t, s, "RGB 1: 128\n")
		assert.Contains(t, s, "RGB 2: 3\n")
		assert.Contains(t, s, tt.want)
	}
}

func TestHandle_Ultrasonic(t *testing.T) {
	d, out, _ := newTestDispatcher()
	d.Handle(intsPacket(protocol.TypeUltrasonic, 42))
	assert.Contains(t, out.String(), "Ultrasonic distance: 42cm")
}

func TestHandle_Message(t *testing.T) {
	d, out, _ := newTestDispatcher()
	d.Handle(append([]byte{byte(protocol.TypeMessage)}, "battery low\x00\x00"...))
	assert.Equal(t, "MESSAGE FROM ROBOT: battery low\n", out.String())
}

func TestHandle_CommandIsNoop(t *testing.T) {
	d, out, _ := newTestDispatcher()
	d.Handle(protocol.EncodeCommand('f', 5, 50))
	assert.Empty(t, out.String())
}

func TestHandle_UnknownIgnored(t *testing.T) {
	d, out, m := newTestDispatcher()
	d.Handle([]byte{0xee, 1, 2, 3})
	assert.Empty(t, out.String())
	assert.Equal(t, int64(1), m.IgnoredCount())
}

func TestHandle_TruncatedWarns(t *testing.T) {
	d, out, m := newTestDispatcher()

	require.NotPanics(t, func() {
		d.Handle(intsPacket(protocol.TypeStatus, 1, 2))
	})
	assert.Contains(t, out.String(), "truncated STATUS packet")
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.Equal(t, int64(1), m.TruncatedCount())

	out.Reset()
	d.Handle([]byte{byte(protocol.TypeError)})
	assert.Contains(t, out.String(), "truncated ERROR packet")
}

func TestErrorText_Checksum(t *testing.T) {
	assert.Contains(t, strings.ToLower(ErrorText(protocol.RespBadChecksum)), "checksum")
}
