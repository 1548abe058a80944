package protocol

import "encoding/binary"

// EncodeCommand builds an outbound COMMAND packet.  Subcommands that take
// no arguments still carry both parameters, set to zero by the caller.
func EncodeCommand(sub byte, param0, param1 int32) []byte {
	buf := make([]byte, CommandSize)
	buf[0] = byte(TypeCommand)
	buf[1] = sub
	binary.LittleEndian.PutUint32(buf[2:6], uint32(param0))
	binary.LittleEndian.PutUint32(buf[6:10], uint32(param1))
	return buf
}
