// Package control implements the operator control channel: length-prefixed
// framing over TCP, the GET/SET command grammar, the accept-and-fan-out
// server, and a small client for the CLI.
package control

import (
	"encoding/binary"
)

// MaxFrameLen is the desynchronization threshold: a decoded length beyond
// this clears the buffer and decoding resumes fresh.
const MaxFrameLen = 10 * 1024 * 1024

// Encode prepends the 4-byte big-endian length to payload.
func Encode(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out[:4], uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

// EncodeString frames a text payload.
func EncodeString(payload string) []byte {
	return Encode([]byte(payload))
}

// Framer is a streaming decoder. Feed appends bytes and extracts every
// complete frame into a FIFO of ready payloads; partial frames stay
// buffered indefinitely pending more input.
type Framer struct {
	buf   []byte
	ready [][]byte
}

// Feed appends data and extracts all complete frames.
func (f *Framer) Feed(data []byte) {
	f.buf = append(f.buf, data...)
	for len(f.buf) >= 4 {
		frameLen := binary.BigEndian.Uint32(f.buf[:4])
		if frameLen > MaxFrameLen {
			// Protocol desync: discard everything and start over.
			f.buf = f.buf[:0]
			return
		}
		total := 4 + int(frameLen)
		if len(f.buf) < total {
			return
		}
		payload := make([]byte, frameLen)
		copy(payload, f.buf[4:total])
		f.ready = append(f.ready, payload)
		f.buf = append(f.buf[:0], f.buf[total:]...)
	}
}

// HasFrame reports whether a complete frame is ready.
func (f *Framer) HasFrame() bool {
	return len(f.ready) > 0
}

// PopFrame returns the oldest ready payload, or nil when none is ready.
func (f *Framer) PopFrame() []byte {
	if len(f.ready) == 0 {
		return nil
	}
	frame := f.ready[0]
	f.ready = f.ready[1:]
	return frame
}

// Reset drops the buffer and any ready frames.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.ready = nil
}

// BufferedBytes reports how many undecoded bytes are held.
func (f *Framer) BufferedBytes() int {
	return len(f.buf)
}
