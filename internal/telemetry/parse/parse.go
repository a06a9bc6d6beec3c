// Package parse validates raw datagrams against the telemetry frame layout
// and hands back a typed view of the header and payload.
package parse

import (
	"encoding/binary"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/wire"
)

// ErrorCode enumerates the ways a frame can fail validation. Checks run in
// this order and the first failure wins.
type ErrorCode int

const (
	OK ErrorCode = iota
	TooShort
	BadVersion
	BadMsgType
	PayloadTooLong
	Truncated
	CRCMismatch
)

func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "OK"
	case TooShort:
		return "TOO_SHORT"
	case BadVersion:
		return "BAD_VERSION"
	case BadMsgType:
		return "BAD_MSG_TYPE"
	case PayloadTooLong:
		return "PAYLOAD_TOO_LONG"
	case Truncated:
		return "TRUNCATED"
	case CRCMismatch:
		return "CRC_MISMATCH"
	}
	return "UNKNOWN"
}

// Frame is the validated view of a raw datagram. Payload aliases the input
// buffer; callers that keep the frame past the buffer's reuse must copy it.
type Frame struct {
	Header  wire.Header
	Payload []byte
	CRC     uint32
	HasCRC  bool
}

// Parse validates buf as one telemetry frame. With crcEnabled the frame must
// carry a trailing CRC-32 over header + payload. The returned code is OK on
// success; any other code leaves the frame contents unspecified.
func Parse(buf []byte, crcEnabled bool) (Frame, ErrorCode) {
	var f Frame

	if len(buf) < telemetry.FrameHeaderSize {
		return f, TooShort
	}

	f.Header = wire.ParseHeader(buf)

	if f.Header.Version != telemetry.ProtocolVersion {
		return f, BadVersion
	}
	if !f.Header.MsgType.Valid() {
		return f, BadMsgType
	}
	if int(f.Header.PayloadLen) > telemetry.MaxPayloadSize {
		return f, PayloadTooLong
	}

	expected := telemetry.FrameHeaderSize + int(f.Header.PayloadLen)
	if crcEnabled {
		expected += telemetry.FrameCRCSize
	}
	if len(buf) < expected {
		return f, Truncated
	}

	body := telemetry.FrameHeaderSize + int(f.Header.PayloadLen)
	f.Payload = buf[telemetry.FrameHeaderSize:body]

	f.HasCRC = crcEnabled
	if crcEnabled {
		f.CRC = binary.LittleEndian.Uint32(buf[body : body+telemetry.FrameCRCSize])
		if computed := wire.Checksum(buf[:body]); computed != f.CRC {
			return f, CRCMismatch
		}
	}

	return f, OK
}
