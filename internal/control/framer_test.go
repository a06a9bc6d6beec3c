package control

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeLayout(t *testing.T) {
	frame := EncodeString("HELLO")
	require.Len(t, frame, 9)
	require.Equal(t, []byte{0, 0, 0, 5}, frame[:4])
	require.Equal(t, "HELLO", string(frame[4:]))
}

func TestFragmentedFeed(t *testing.T) {
	frame := EncodeString("HELLO")
	var f Framer

	// Three bytes at a time: no frame until the last chunk lands.
	for i := 0; i < len(frame); i += 3 {
		end := i + 3
		if end > len(frame) {
			end = len(frame)
		}
		f.Feed(frame[i:end])
		if end < len(frame) {
			require.False(t, f.HasFrame(), "premature frame at offset %d", end)
		}
	}
	require.True(t, f.HasFrame())
	require.Equal(t, "HELLO", string(f.PopFrame()))
	require.False(t, f.HasFrame())
}

func TestMultipleFramesOneFeed(t *testing.T) {
	var data []byte
	payloads := []string{"A", "BB", "", "CCCC"}
	for _, p := range payloads {
		data = append(data, EncodeString(p)...)
	}

	var f Framer
	f.Feed(data)

	for _, want := range payloads {
		require.True(t, f.HasFrame())
		require.Equal(t, want, string(f.PopFrame()))
	}
	require.False(t, f.HasFrame())
	require.Zero(t, f.BufferedBytes())
}

func TestArbitraryChunkingPreservesOrder(t *testing.T) {
	payloads := []string{"alpha", "bravo", "charlie", "delta"}
	var stream []byte
	for _, p := range payloads {
		stream = append(stream, EncodeString(p)...)
	}

	for _, chunk := range []int{1, 2, 5, 7, len(stream)} {
		var f Framer
		for i := 0; i < len(stream); i += chunk {
			end := i + chunk
			if end > len(stream) {
				end = len(stream)
			}
			f.Feed(stream[i:end])
		}
		var got []string
		for f.HasFrame() {
			got = append(got, string(f.PopFrame()))
		}
		require.Equal(t, payloads, got, "chunk size %d", chunk)
	}
}

func TestOversizeLengthResetsBuffer(t *testing.T) {
	var f Framer

	var desync [4]byte
	binary.BigEndian.PutUint32(desync[:], MaxFrameLen+1)
	f.Feed(desync[:])
	f.Feed([]byte("garbage that should be discarded"))

	require.False(t, f.HasFrame())
	require.Zero(t, f.BufferedBytes())

	// Decoding resumes fresh after the reset.
	f.Feed(EncodeString("RECOVERED"))
	require.True(t, f.HasFrame())
	require.Equal(t, "RECOVERED", string(f.PopFrame()))
}

func TestPartialFrameStaysBuffered(t *testing.T) {
	var f Framer
	frame := EncodeString("LATER")
	f.Feed(frame[:6])
	require.False(t, f.HasFrame())
	require.Equal(t, 6, f.BufferedBytes())

	f.Feed(frame[6:])
	require.Equal(t, "LATER", string(f.PopFrame()))
}

func TestPopEmptyReturnsNil(t *testing.T) {
	var f Framer
	require.Nil(t, f.PopFrame())
}

func TestReset(t *testing.T) {
	var f Framer
	f.Feed(EncodeString("X"))
	f.Feed([]byte{0, 0})
	f.Reset()
	require.False(t, f.HasFrame())
	require.Zero(t, f.BufferedBytes())
}
