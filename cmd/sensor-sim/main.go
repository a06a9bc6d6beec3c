// The sensor simulator populates a synthetic world from a scenario profile
// and streams measurement frames at the gateway, optionally through the
// fault injector.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/sentinel-fabric/telemetry/internal/sim"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/network"
)

var (
	profileName  = flag.String("profile", "patrol", "Scenario profile: idle, patrol, raid, stress")
	profileFile  = flag.String("profile-file", "", "Load profile from JSON file")
	host         = flag.String("host", "127.0.0.1", "Target host")
	port         = flag.Uint16("port", 5000, "Target UDP port")
	rateHz       = flag.Float64("rate", 50, "Tick rate in Hz")
	durationS    = flag.Float64("duration", 10, "Duration in seconds")
	seed         = flag.Uint64("seed", 42, "Random seed")
	srcID        = flag.Uint16("src-id", 1, "Source id stamped on emitted frames")
	lossPct      = flag.Float64("loss", 0, "Packet loss percentage")
	reorderPct   = flag.Float64("reorder", 0, "Reorder percentage")
	duplicatePct = flag.Float64("duplicate", 0, "Duplicate percentage")
	corruptPct   = flag.Float64("corrupt", 0, "Corruption percentage")
)

// heartbeatEveryTicks paces subsystem liveness at one frame per 50 ticks.
const heartbeatEveryTicks = 50

func run() error {
	var profile sim.Profile
	var err error
	switch {
	case *profileFile != "":
		profile, err = sim.LoadProfile(*profileFile)
		if err != nil {
			return err
		}
	default:
		var ok bool
		profile, ok = sim.BuiltinProfile(*profileName)
		if !ok {
			return fmt.Errorf("unknown profile %q", *profileName)
		}
	}
	if *rateHz <= 0 {
		return fmt.Errorf("rate must be positive")
	}

	fmt.Printf("=== Sensor Simulator ===\n")
	fmt.Printf("Profile:   %s\n", profile.Name)
	fmt.Printf("Target:    %s:%d\n", *host, *port)
	fmt.Printf("Rate:      %g Hz\n", *rateHz)
	fmt.Printf("Duration:  %g s\n", *durationS)
	fmt.Printf("Seed:      %d\n", *seed)
	fmt.Printf("Faults:    loss=%g%% reorder=%g%% dup=%g%% corrupt=%g%%\n\n",
		*lossPct, *reorderPct, *duplicatePct, *corruptPct)

	generator := sim.NewObjectGenerator(profile, *seed)
	world := sim.NewWorld()
	measurer := sim.NewMeasurementGenerator(*srcID, *seed+100)
	injector := sim.NewFaultInjector(sim.FaultConfig{
		LossPct:      *lossPct,
		ReorderPct:   *reorderPct,
		DuplicatePct: *duplicatePct,
		CorruptPct:   *corruptPct,
	}, *seed+200)

	sink, err := network.DialUDP(*host, *port)
	if err != nil {
		return err
	}
	defer sink.Close()

	for _, obj := range generator.GenerateInitial() {
		world.Add(obj)
	}
	fmt.Printf("Initial objects: %d\n", world.ActiveCount())
	fmt.Printf("Starting simulation...\n\n")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	dt := 1.0 / *rateHz
	totalTicks := int(*durationS * *rateHz)
	tickInterval := time.Duration(dt * float64(time.Second))

	progressEvery := int(*rateHz)
	if progressEvery < 1 {
		progressEvery = 1
	}

	var sent, dropped, reordered, duplicated, corrupted uint64
	start := time.Now()
	nextTick := start

	tick := 0
loop:
	for tick < totalTicks {
		select {
		case <-sigCh:
			break loop
		default:
		}

		currentTimeS := float64(tick) * dt
		timestampNs := uint64(currentTimeS * 1e9)

		if obj, ok := generator.MaybeSpawn(currentTimeS); ok {
			world.Add(obj)
		}
		world.Tick(dt, currentTimeS)

		frames := measurer.GenerateTracks(world.Objects(), timestampNs)
		frames = append(frames, measurer.GeneratePlots(world.Objects(), timestampNs)...)
		if tick%heartbeatEveryTicks == 0 {
			frames = append(frames, measurer.GenerateHeartbeat(timestampNs))
		}

		frames = injector.Apply(frames)
		fs := injector.LastStats()
		dropped += uint64(fs.Dropped)
		reordered += uint64(fs.Reordered)
		duplicated += uint64(fs.Duplicated)
		corrupted += uint64(fs.Corrupted)

		for _, frame := range frames {
			if sink.Send(frame) {
				sent++
			}
		}

		tick++

		nextTick = nextTick.Add(tickInterval)
		if wait := time.Until(nextTick); wait > 0 {
			time.Sleep(wait)
		}

		if tick%progressEvery == 0 {
			fmt.Printf("Progress: %d/%d ticks, %d frames sent\r", tick, totalTicks, sent)
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("\n\n=== Summary ===\n")
	fmt.Printf("Ticks:           %d\n", tick)
	fmt.Printf("Frames sent:     %d\n", sent)
	fmt.Printf("Frames dropped:  %d\n", dropped)
	fmt.Printf("Reordered:       %d\n", reordered)
	fmt.Printf("Duplicated:      %d\n", duplicated)
	fmt.Printf("Corrupted:       %d\n", corrupted)
	fmt.Printf("Elapsed:         %s\n", elapsed.Round(time.Millisecond))
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sensor-sim: %v\n", err)
		os.Exit(1)
	}
}
