package sim

import (
	"math"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/wire"
)

// MeasurementGenerator turns world objects into telemetry frames. One
// sequence counter covers every emitted frame regardless of type, so the
// gateway sees a single per-source ordering.
type MeasurementGenerator struct {
	srcID             uint16
	seq               uint32
	d                 draws
	plotID            uint32
	trackUpdateCounts map[uint32]uint16
}

// NewMeasurementGenerator seeds a generator emitting frames for srcID.
func NewMeasurementGenerator(srcID uint16, seed uint64) *MeasurementGenerator {
	return &MeasurementGenerator{
		srcID:             srcID,
		d:                 newDraws(seed),
		plotID:            1,
		trackUpdateCounts: make(map[uint32]uint16),
	}
}

// Seq reports the next sequence number to be assigned.
func (m *MeasurementGenerator) Seq() uint32 { return m.seq }

func (m *MeasurementGenerator) buildFrame(msgType telemetry.MsgType, payload []byte, timestampNs uint64) []byte {
	h := wire.Header{
		Version: telemetry.ProtocolVersion,
		MsgType: msgType,
		SrcID:   m.srcID,
		Seq:     m.seq,
		TsNs:    timestampNs,
	}
	m.seq++
	return wire.BuildFrame(h, payload, false)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// GeneratePlots emits raw-detection frames. Each object is detected with
// probability clamp(rcs_linear / range_km², 0.1, 1.0); misses emit nothing
// and consume exactly one draw.
func (m *MeasurementGenerator) GeneratePlots(objects []Object, timestampNs uint64) [][]byte {
	frames := make([][]byte, 0, len(objects))

	for _, obj := range objects {
		rcsLinear := math.Pow(10, obj.RcsDbsm/10)
		rangeKm := obj.RangeM / 1000
		pDetect := clampFloat(rcsLinear/(rangeKm*rangeKm), 0.1, 1.0)

		if m.d.uniform(0, 1) > pDetect {
			continue
		}

		p := wire.Plot{
			PlotID:        m.plotID,
			AzimuthMdeg:   int32((obj.AzimuthDeg + m.d.normal(obj.NoiseStddev)*0.01) * 1000),
			ElevationMdeg: int32((obj.ElevationDeg + m.d.normal(obj.NoiseStddev)*0.01) * 1000),
			RangeM:        uint32(math.Max(0, obj.RangeM+m.d.normal(obj.NoiseStddev))),
			AmplitudeDb:   int16(obj.RcsDbsm*10 + m.d.normal(obj.NoiseStddev)*5),
			DopplerMps:    int16(-obj.SpeedMps * math.Cos(obj.HeadingDeg*math.Pi/180)),
			Quality:       uint8(clampFloat(pDetect*100, 10, 100)),
		}
		m.plotID++

		payload := make([]byte, wire.PlotPayloadSize)
		wire.PutPlot(payload, p)
		frames = append(frames, m.buildFrame(telemetry.MsgPlot, payload, timestampNs))
	}
	return frames
}

// threatFor derives the reported threat level from hostility and class.
func threatFor(obj Object) telemetry.ThreatLevel {
	if !obj.IsHostile {
		return telemetry.ThreatLow
	}
	switch obj.Classification {
	case telemetry.ClassMissile, telemetry.ClassRocketArtillery:
		return telemetry.ThreatCritical
	case telemetry.ClassUAVSmall, telemetry.ClassUAVLarge:
		return telemetry.ThreatHigh
	}
	return telemetry.ThreatMedium
}

// GenerateTracks emits one associated-track frame per object.
func (m *MeasurementGenerator) GenerateTracks(objects []Object, timestampNs uint64) [][]byte {
	frames := make([][]byte, 0, len(objects))

	for _, obj := range objects {
		iff := telemetry.IFFFriend
		if obj.IsHostile {
			iff = telemetry.IFFFoe
		}

		m.trackUpdateCounts[obj.ID]++
		tr := wire.Track{
			TrackID:        obj.ID,
			Classification: obj.Classification,
			Threat:         threatFor(obj),
			IFF:            iff,
			AzimuthMdeg:    int32(obj.AzimuthDeg*1000 + m.d.normal(1)*obj.NoiseStddev*10),
			ElevationMdeg:  int32(obj.ElevationDeg*1000 + m.d.normal(1)*obj.NoiseStddev*10),
			RangeM:         uint32(math.Max(0, obj.RangeM+m.d.normal(1)*obj.NoiseStddev)),
			VelocityMps:    int16(-obj.SpeedMps * math.Cos(obj.HeadingDeg*math.Pi/180)),
			RcsDbsm:        int16(obj.RcsDbsm * 100),
			UpdateCount:    m.trackUpdateCounts[obj.ID],
		}

		payload := make([]byte, wire.TrackPayloadSize)
		wire.PutTrack(payload, tr)
		frames = append(frames, m.buildFrame(telemetry.MsgTrack, payload, timestampNs))
	}
	return frames
}

// GenerateHeartbeat emits one subsystem liveness frame.
func (m *MeasurementGenerator) GenerateHeartbeat(timestampNs uint64) []byte {
	hb := wire.Heartbeat{
		SubsystemID: m.srcID,
		State:       telemetry.SubsystemOK,
		CPUPct:      uint8(10 + m.d.intn(51)),
		MemPct:      uint8(20 + m.d.intn(51)),
		UptimeS:     uint32(timestampNs / 1_000_000_000),
	}
	payload := make([]byte, wire.HeartbeatPayloadSize)
	wire.PutHeartbeat(payload, hb)
	return m.buildFrame(telemetry.MsgHeartbeat, payload, timestampNs)
}

// GenerateEngagement emits a weapon status frame with caller-supplied
// fields.
func (m *MeasurementGenerator) GenerateEngagement(weaponID uint16, mode telemetry.WeaponMode,
	assignedTrack uint32, rounds uint16, barrelTempC int16, bursts uint16, timestampNs uint64) []byte {
	e := wire.Engagement{
		WeaponID:      weaponID,
		Mode:          mode,
		AssignedTrack: assignedTrack,
		Rounds:        rounds,
		BarrelTempC:   barrelTempC,
		BurstCount:    bursts,
	}
	payload := make([]byte, wire.EngagementPayloadSize)
	wire.PutEngagement(payload, e)
	return m.buildFrame(telemetry.MsgEngagement, payload, timestampNs)
}
