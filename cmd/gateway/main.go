// The gateway daemon ingests telemetry datagrams (or a recorded session),
// tracks sequence integrity, and exposes the control channel and monitor
// endpoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/sentinel-fabric/telemetry/internal/config"
	"github.com/sentinel-fabric/telemetry/internal/control"
	"github.com/sentinel-fabric/telemetry/internal/monitor"
	"github.com/sentinel-fabric/telemetry/internal/oplog"
	"github.com/sentinel-fabric/telemetry/internal/telemetry"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/gateway"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/network"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/recorder"
)

var (
	port        = flag.Uint16("port", 5000, "UDP port to listen on")
	crc         = flag.Bool("crc", true, "Enable CRC validation")
	noCRC       = flag.Bool("no-crc", false, "Disable CRC validation")
	recordPath  = flag.String("record", "", "Record frames to file")
	replayPath  = flag.String("replay", "", "Replay frames from file instead of UDP")
	logLevel    = flag.String("log-level", "INFO", "Log level: DEBUG, INFO, WARN, ALARM, ERROR, FATAL")
	configPath  = flag.String("config", "", "Gateway YAML config file")
	controlPort = flag.Uint16("control-port", 5100, "TCP port for the control channel (0 disables)")
	monitorAddr = flag.String("monitor", "", "HTTP monitor listen address (empty disables)")
)

func resolveSettings() (config.Settings, error) {
	s := config.Defaults()

	if *configPath != "" {
		f, err := config.Load(*configPath)
		if err != nil {
			return s, err
		}
		f.Apply(&s)
	}

	// Explicit flags win over the config file.
	if flag.CommandLine.Changed("port") {
		s.Port = *port
	}
	if flag.CommandLine.Changed("crc") {
		s.CRC = *crc
	}
	if *noCRC {
		s.CRC = false
	}
	if flag.CommandLine.Changed("record") {
		s.RecordPath = *recordPath
	}
	if flag.CommandLine.Changed("replay") {
		s.ReplayPath = *replayPath
	}
	if flag.CommandLine.Changed("log-level") {
		level, ok := telemetry.ParseSeverity(*logLevel)
		if !ok {
			return s, fmt.Errorf("invalid log level %q", *logLevel)
		}
		s.LogLevel = level
	}
	if flag.CommandLine.Changed("control-port") {
		s.ControlPort = *controlPort
	}
	if flag.CommandLine.Changed("monitor") {
		s.MonitorAddr = *monitorAddr
	}
	return s, nil
}

func run() error {
	settings, err := resolveSettings()
	if err != nil {
		return err
	}

	logger := oplog.Default()
	logger.SetLevel(settings.LogLevel)

	var rec *recorder.Recorder
	if settings.RecordPath != "" {
		rec, err = recorder.Open(settings.RecordPath)
		if err != nil {
			return err
		}
	}

	var source gateway.FrameSource
	if settings.ReplayPath != "" {
		replay, err := recorder.OpenReplay(settings.ReplayPath)
		if err != nil {
			return err
		}
		replay.SetSpeed(0)
		source = replay
		fmt.Printf("Replaying from: %s\n", settings.ReplayPath)
	} else {
		udp, err := network.ListenUDP(settings.Port)
		if err != nil {
			return err
		}
		source = udp
		fmt.Printf("Starting gateway on UDP port %d\n", settings.Port)
	}
	defer source.Close()

	if settings.RecordPath != "" {
		fmt.Printf("Recording to: %s\n", settings.RecordPath)
	}
	fmt.Printf("CRC validation: %s\n", onOff(settings.CRC))

	gw := gateway.New(gateway.Config{
		Source:     source,
		Recorder:   rec,
		Logger:     logger,
		CRCEnabled: settings.CRC,
	})

	if settings.ControlPort != 0 {
		ctrl := control.NewServer(settings.ControlPort, gw.Stats(), logger, gw)
		if err := ctrl.Start(); err != nil {
			return err
		}
		defer ctrl.Stop()
	}

	if settings.MonitorAddr != "" {
		mon := monitor.NewWebServer(monitor.WebServerConfig{
			Address: settings.MonitorAddr,
			Stats:   gw.Stats(),
			Events:  gw.Events(),
		})
		if err := mon.Start(); err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			mon.Shutdown(ctx)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		gw.Stop()
	}()

	gw.Run()

	g := gw.Stats().GetGlobal()
	fmt.Printf("\n=== Final Statistics ===\n")
	fmt.Printf("Frames received: %d\n", g.RxTotal)
	fmt.Printf("Malformed:       %d\n", g.MalformedTotal)
	fmt.Printf("CRC failures:    %d\n", g.CRCFailTotal)
	fmt.Printf("Sequence gaps:   %d\n", g.GapTotal)
	fmt.Printf("Reorders:        %d\n", g.ReorderTotal)
	fmt.Printf("Duplicates:      %d\n", g.DuplicateTotal)
	return nil
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}
