// Package recorder provides the append-only frame record format and its
// deterministic, speed-controlled replay source.
//
// The file is a bare sequence of records, each {rx_timestamp_ns u64 LE,
// frame_len u32 LE, frame_bytes}. No header, no index; end of stream is end
// of file.
package recorder

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
)

// Recorder appends frame records to a file opened in truncate-and-write
// mode. It is owned by the gateway loop and not internally synchronized.
type Recorder struct {
	file       *os.File
	path       string
	sessionID  string
	frameCount uint64
}

// Open creates (or truncates) the record file at path.
func Open(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	r := &Recorder{file: f, path: path, sessionID: uuid.NewString()}
	log.Printf("recording session %s to %s", r.sessionID, path)
	return r, nil
}

// Record appends one frame with its receive timestamp. The frame counter
// advances only when the whole record reaches the file. Zero-length frames
// are legal.
func (r *Recorder) Record(rxTimestampNs uint64, frame []byte) error {
	if r.file == nil {
		return fmt.Errorf("recorder is closed")
	}

	var hdr [12]byte
	binary.LittleEndian.PutUint64(hdr[0:8], rxTimestampNs)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(frame)))

	if _, err := r.file.Write(hdr[:]); err != nil {
		return fmt.Errorf("write record header: %w", err)
	}
	if len(frame) > 0 {
		if _, err := r.file.Write(frame); err != nil {
			return fmt.Errorf("write record frame: %w", err)
		}
	}

	r.frameCount++
	return nil
}

// FrameCount reports how many records have been written.
func (r *Recorder) FrameCount() uint64 { return r.frameCount }

// Close flushes and closes the file. Safe to call twice.
func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return fmt.Errorf("close record file: %w", err)
	}
	log.Printf("recording session %s closed: %d frames", r.sessionID, r.frameCount)
	return nil
}
