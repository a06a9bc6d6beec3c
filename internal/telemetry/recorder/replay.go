package recorder

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// ReplaySource reads a record file sequentially and implements the gateway's
// frame-source contract. Two passes over the same file produce identical
// frame byte sequences.
type ReplaySource struct {
	file   *os.File
	rd     *bufio.Reader
	speed  float64
	done   bool
	frames uint64

	firstFrame   bool
	firstTsNs    uint64
	replayStart  time.Time
	sleep        func(time.Duration)
	monotonicNow func() time.Time
}

// OpenReplay opens a record file for playback at real-time speed.
func OpenReplay(path string) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	return &ReplaySource{
		file:         f,
		rd:           bufio.NewReader(f),
		speed:        1.0,
		firstFrame:   true,
		sleep:        time.Sleep,
		monotonicNow: time.Now,
	}, nil
}

// SetSpeed sets the playback multiplier. 0 disables pacing entirely; any
// positive value scales the recorded inter-frame intervals, measured against
// a monotonic clock anchored at the first frame.
func (s *ReplaySource) SetSpeed(multiplier float64) {
	s.speed = multiplier
}

// Receive reads the next recorded frame into buf and returns the frame
// length. ok is false at end of stream, on a short read, or when the
// recorded frame does not fit buf; Done reports true afterwards.
func (s *ReplaySource) Receive(buf []byte) (int, bool) {
	if s.file == nil || s.done {
		return 0, false
	}

	var hdr [12]byte
	if _, err := io.ReadFull(s.rd, hdr[:]); err != nil {
		s.done = true
		return 0, false
	}
	tsNs := binary.LittleEndian.Uint64(hdr[0:8])
	frameLen := binary.LittleEndian.Uint32(hdr[8:12])

	if int(frameLen) > len(buf) {
		s.done = true
		return 0, false
	}
	if frameLen > 0 {
		if _, err := io.ReadFull(s.rd, buf[:frameLen]); err != nil {
			s.done = true
			return 0, false
		}
	}

	s.pace(tsNs)
	s.frames++

	// Peek ahead so Done flips exactly after the final record.
	if _, err := s.rd.Peek(1); err != nil {
		s.done = true
	}
	return int(frameLen), true
}

// pace sleeps until the frame's scheduled playback offset when a positive
// speed multiplier is set.
func (s *ReplaySource) pace(tsNs uint64) {
	if s.speed <= 0 {
		return
	}
	if s.firstFrame {
		s.firstFrame = false
		s.firstTsNs = tsNs
		s.replayStart = s.monotonicNow()
		return
	}
	offset := time.Duration(float64(tsNs-s.firstTsNs) / s.speed)
	elapsed := s.monotonicNow().Sub(s.replayStart)
	if wait := offset - elapsed; wait > 0 {
		s.sleep(wait)
	}
}

// Done reports whether the stream is exhausted or failed.
func (s *ReplaySource) Done() bool { return s.done }

// FramesReplayed reports how many frames Receive has returned.
func (s *ReplaySource) FramesReplayed() uint64 { return s.frames }

// Close releases the file. Subsequent Receive calls return false.
func (s *ReplaySource) Close() error {
	s.done = true
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
