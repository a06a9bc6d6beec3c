// The replayer streams a recorded session back at the gateway over UDP, or
// prints frame summaries with --dry-run.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/network"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/recorder"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/wire"
)

var (
	filePath = flag.String("file", "", "Recorded file to replay (required)")
	speed    = flag.Float64("speed", 1.0, "Playback speed (1.0 = real-time, 0.0 = fast)")
	host     = flag.String("host", "127.0.0.1", "Target host")
	port     = flag.Uint16("port", 5000, "Target UDP port")
	dryRun   = flag.Bool("dry-run", false, "Print frame summaries without sending")
)

func summarize(frame []byte) string {
	if len(frame) < telemetry.FrameHeaderSize {
		return fmt.Sprintf("short frame (%d bytes)", len(frame))
	}
	h := wire.ParseHeader(frame)
	return fmt.Sprintf("%-10s src=%d seq=%d ts=%dns payload=%dB",
		h.MsgType, h.SrcID, h.Seq, h.TsNs, h.PayloadLen)
}

func run() error {
	if *filePath == "" {
		return fmt.Errorf("--file is required")
	}

	replay, err := recorder.OpenReplay(*filePath)
	if err != nil {
		return err
	}
	defer replay.Close()
	replay.SetSpeed(*speed)

	var sink *network.UDPSink
	if !*dryRun {
		sink, err = network.DialUDP(*host, *port)
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	buf := make([]byte, telemetry.MaxDatagramSize)
	var sent uint64
	for !replay.Done() {
		n, ok := replay.Receive(buf)
		if !ok {
			break
		}
		frame := buf[:n]

		if *dryRun {
			fmt.Printf("[%6d] %s\n", replay.FramesReplayed(), summarize(frame))
			continue
		}
		if sink.Send(frame) {
			sent++
		}
	}

	if *dryRun {
		fmt.Printf("Replayed %d frames (dry run)\n", replay.FramesReplayed())
	} else {
		fmt.Printf("Replayed %d frames, sent %d\n", replay.FramesReplayed(), sent)
	}
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}
}
