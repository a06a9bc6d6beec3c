// Package sim is the synthetic sensor pipeline: scenario-driven object
// generation, kinematic world propagation, measurement frame synthesis, and
// transport fault injection. Every randomized stage (objects, measurements,
// faults) draws from a PRNG seeded once at construction, and world
// propagation draws nothing, so identical configuration and seed reproduce
// identical output byte for byte.
package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

// Profile parameterizes the object generator for one scenario.
type Profile struct {
	Name               string
	MinObjects         int
	MaxObjects         int
	AllowedTypes       []telemetry.TrackClass
	SpawnRateHz        float64
	MinRangeM          float64
	MaxRangeM          float64
	MinSpeedMps        float64
	MaxSpeedMps        float64
	HostileProbability float64
}

// Built-in profiles, in increasing order of chaos.

func ProfileIdle() Profile {
	return Profile{
		Name:         "idle",
		MinObjects:   0,
		MaxObjects:   2,
		AllowedTypes: []telemetry.TrackClass{telemetry.ClassBird, telemetry.ClassUnknown},
		SpawnRateHz:  0.01,
		MinRangeM:    1000, MaxRangeM: 15000,
		MinSpeedMps: 5, MaxSpeedMps: 30,
		HostileProbability: 0.0,
	}
}

func ProfilePatrol() Profile {
	return Profile{
		Name:       "patrol",
		MinObjects: 3,
		MaxObjects: 8,
		AllowedTypes: []telemetry.TrackClass{
			telemetry.ClassFixedWing, telemetry.ClassRotaryWing, telemetry.ClassUAVSmall,
		},
		SpawnRateHz: 0.1,
		MinRangeM:   5000, MaxRangeM: 30000,
		MinSpeedMps: 50, MaxSpeedMps: 300,
		HostileProbability: 0.3,
	}
}

func ProfileRaid() Profile {
	return Profile{
		Name:       "raid",
		MinObjects: 10,
		MaxObjects: 30,
		AllowedTypes: []telemetry.TrackClass{
			telemetry.ClassUAVSmall, telemetry.ClassMissile, telemetry.ClassRocketArtillery,
		},
		SpawnRateHz: 1.0,
		MinRangeM:   3000, MaxRangeM: 25000,
		MinSpeedMps: 100, MaxSpeedMps: 600,
		HostileProbability: 0.8,
	}
}

func ProfileStress() Profile {
	return Profile{
		Name:       "stress",
		MinObjects: 50,
		MaxObjects: 100,
		AllowedTypes: []telemetry.TrackClass{
			telemetry.ClassFixedWing, telemetry.ClassRotaryWing, telemetry.ClassUAVSmall,
			telemetry.ClassUAVLarge, telemetry.ClassMissile, telemetry.ClassRocketArtillery,
			telemetry.ClassBird, telemetry.ClassDecoy, telemetry.ClassUnknown,
		},
		SpawnRateHz: 10.0,
		MinRangeM:   1000, MaxRangeM: 40000,
		MinSpeedMps: 10, MaxSpeedMps: 800,
		HostileProbability: 0.5,
	}
}

// BuiltinProfile resolves a profile name. ok is false for unknown names.
func BuiltinProfile(name string) (Profile, bool) {
	switch name {
	case "idle":
		return ProfileIdle(), true
	case "patrol":
		return ProfilePatrol(), true
	case "raid":
		return ProfileRaid(), true
	case "stress":
		return ProfileStress(), true
	}
	return Profile{}, false
}

// scenarioFile is the JSON shape of a scenario profile on disk.
type scenarioFile struct {
	Name               string   `json:"name"`
	MinObjects         int      `json:"min_objects"`
	MaxObjects         int      `json:"max_objects"`
	AllowedTypes       []string `json:"allowed_types"`
	SpawnRateHz        float64  `json:"spawn_rate_hz"`
	MinRangeM          float64  `json:"min_range_m"`
	MaxRangeM          float64  `json:"max_range_m"`
	MinSpeedMps        float64  `json:"min_speed_mps"`
	MaxSpeedMps        float64  `json:"max_speed_mps"`
	HostileProbability float64  `json:"hostile_probability"`
}

// LoadProfile reads a scenario JSON file. Missing name, missing or empty
// allowed_types, and unknown class names are load errors; they never reach
// the pipeline.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates scenario JSON.
func ParseProfile(data []byte) (Profile, error) {
	var sf scenarioFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return Profile{}, fmt.Errorf("parse scenario: %w", err)
	}
	if sf.Name == "" {
		return Profile{}, fmt.Errorf("scenario missing %q field", "name")
	}
	if len(sf.AllowedTypes) == 0 {
		return Profile{}, fmt.Errorf("scenario missing or empty %q", "allowed_types")
	}

	p := Profile{
		Name:               sf.Name,
		MinObjects:         sf.MinObjects,
		MaxObjects:         sf.MaxObjects,
		SpawnRateHz:        sf.SpawnRateHz,
		MinRangeM:          sf.MinRangeM,
		MaxRangeM:          sf.MaxRangeM,
		MinSpeedMps:        sf.MinSpeedMps,
		MaxSpeedMps:        sf.MaxSpeedMps,
		HostileProbability: sf.HostileProbability,
	}
	for _, name := range sf.AllowedTypes {
		class, ok := telemetry.ParseTrackClass(name)
		if !ok {
			return Profile{}, fmt.Errorf("scenario: unknown track class %q", name)
		}
		p.AllowedTypes = append(p.AllowedTypes, class)
	}
	return p, nil
}
