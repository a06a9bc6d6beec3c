// Package wire implements the packed little-endian telemetry frame layout
// and the CRC-32 engine that seals it. Field offsets are written out
// explicitly; nothing here depends on in-memory struct layout.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

// Header is the fixed 18-byte frame header.
type Header struct {
	Version    uint8
	MsgType    telemetry.MsgType
	SrcID      uint16
	Seq        uint32
	TsNs       uint64
	PayloadLen uint16
}

// PutHeader encodes h into the first FrameHeaderSize bytes of buf.
func PutHeader(buf []byte, h Header) {
	_ = buf[telemetry.FrameHeaderSize-1]
	buf[0] = h.Version
	buf[1] = uint8(h.MsgType)
	binary.LittleEndian.PutUint16(buf[2:4], h.SrcID)
	binary.LittleEndian.PutUint32(buf[4:8], h.Seq)
	binary.LittleEndian.PutUint64(buf[8:16], h.TsNs)
	binary.LittleEndian.PutUint16(buf[16:18], h.PayloadLen)
}

// ParseHeader decodes the first FrameHeaderSize bytes of buf.
func ParseHeader(buf []byte) Header {
	_ = buf[telemetry.FrameHeaderSize-1]
	return Header{
		Version:    buf[0],
		MsgType:    telemetry.MsgType(buf[1]),
		SrcID:      binary.LittleEndian.Uint16(buf[2:4]),
		Seq:        binary.LittleEndian.Uint32(buf[4:8]),
		TsNs:       binary.LittleEndian.Uint64(buf[8:16]),
		PayloadLen: binary.LittleEndian.Uint16(buf[16:18]),
	}
}

// Payload sizes on the wire.
const (
	PlotPayloadSize       = 21
	TrackPayloadSize      = 25
	HeartbeatPayloadSize  = 11
	EngagementPayloadSize = 13
)

// PayloadSize returns the packed size for a message type, or 0 if the type
// has no fixed payload.
func PayloadSize(t telemetry.MsgType) int {
	switch t {
	case telemetry.MsgPlot:
		return PlotPayloadSize
	case telemetry.MsgTrack:
		return TrackPayloadSize
	case telemetry.MsgHeartbeat:
		return HeartbeatPayloadSize
	case telemetry.MsgEngagement:
		return EngagementPayloadSize
	}
	return 0
}

// Plot is a raw detection: one sensor return before association.
type Plot struct {
	PlotID        uint32
	AzimuthMdeg   int32
	ElevationMdeg int32
	RangeM        uint32
	AmplitudeDb   int16
	DopplerMps    int16
	Quality       uint8
}

// PutPlot encodes p into the first PlotPayloadSize bytes of buf.
func PutPlot(buf []byte, p Plot) {
	_ = buf[PlotPayloadSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], p.PlotID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.AzimuthMdeg))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.ElevationMdeg))
	binary.LittleEndian.PutUint32(buf[12:16], p.RangeM)
	binary.LittleEndian.PutUint16(buf[16:18], uint16(p.AmplitudeDb))
	binary.LittleEndian.PutUint16(buf[18:20], uint16(p.DopplerMps))
	buf[20] = p.Quality
}

// ParsePlot decodes a plot payload. Errors if buf is short.
func ParsePlot(buf []byte) (Plot, error) {
	if len(buf) < PlotPayloadSize {
		return Plot{}, fmt.Errorf("plot payload: need %d bytes, have %d", PlotPayloadSize, len(buf))
	}
	return Plot{
		PlotID:        binary.LittleEndian.Uint32(buf[0:4]),
		AzimuthMdeg:   int32(binary.LittleEndian.Uint32(buf[4:8])),
		ElevationMdeg: int32(binary.LittleEndian.Uint32(buf[8:12])),
		RangeM:        binary.LittleEndian.Uint32(buf[12:16]),
		AmplitudeDb:   int16(binary.LittleEndian.Uint16(buf[16:18])),
		DopplerMps:    int16(binary.LittleEndian.Uint16(buf[18:20])),
		Quality:       buf[20],
	}, nil
}

// Track is an associated, classified detection history.
type Track struct {
	TrackID        uint32
	Classification telemetry.TrackClass
	Threat         telemetry.ThreatLevel
	IFF            telemetry.IFFStatus
	AzimuthMdeg    int32
	ElevationMdeg  int32
	RangeM         uint32
	VelocityMps    int16
	RcsDbsm        int16
	UpdateCount    uint16
}

// PutTrack encodes t into the first TrackPayloadSize bytes of buf.
func PutTrack(buf []byte, t Track) {
	_ = buf[TrackPayloadSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], t.TrackID)
	buf[4] = uint8(t.Classification)
	buf[5] = uint8(t.Threat)
	buf[6] = uint8(t.IFF)
	binary.LittleEndian.PutUint32(buf[7:11], uint32(t.AzimuthMdeg))
	binary.LittleEndian.PutUint32(buf[11:15], uint32(t.ElevationMdeg))
	binary.LittleEndian.PutUint32(buf[15:19], t.RangeM)
	binary.LittleEndian.PutUint16(buf[19:21], uint16(t.VelocityMps))
	binary.LittleEndian.PutUint16(buf[21:23], uint16(t.RcsDbsm))
	binary.LittleEndian.PutUint16(buf[23:25], t.UpdateCount)
}

// ParseTrack decodes a track payload. Errors if buf is short.
func ParseTrack(buf []byte) (Track, error) {
	if len(buf) < TrackPayloadSize {
		return Track{}, fmt.Errorf("track payload: need %d bytes, have %d", TrackPayloadSize, len(buf))
	}
	return Track{
		TrackID:        binary.LittleEndian.Uint32(buf[0:4]),
		Classification: telemetry.TrackClass(buf[4]),
		Threat:         telemetry.ThreatLevel(buf[5]),
		IFF:            telemetry.IFFStatus(buf[6]),
		AzimuthMdeg:    int32(binary.LittleEndian.Uint32(buf[7:11])),
		ElevationMdeg:  int32(binary.LittleEndian.Uint32(buf[11:15])),
		RangeM:         binary.LittleEndian.Uint32(buf[15:19]),
		VelocityMps:    int16(binary.LittleEndian.Uint16(buf[19:21])),
		RcsDbsm:        int16(binary.LittleEndian.Uint16(buf[21:23])),
		UpdateCount:    binary.LittleEndian.Uint16(buf[23:25]),
	}, nil
}

// Heartbeat is a subsystem liveness report.
type Heartbeat struct {
	SubsystemID uint16
	State       telemetry.SubsystemState
	CPUPct      uint8
	MemPct      uint8
	UptimeS     uint32
	ErrorCode   uint16
}

// PutHeartbeat encodes hb into the first HeartbeatPayloadSize bytes of buf.
func PutHeartbeat(buf []byte, hb Heartbeat) {
	_ = buf[HeartbeatPayloadSize-1]
	binary.LittleEndian.PutUint16(buf[0:2], hb.SubsystemID)
	buf[2] = uint8(hb.State)
	buf[3] = hb.CPUPct
	buf[4] = hb.MemPct
	binary.LittleEndian.PutUint32(buf[5:9], hb.UptimeS)
	binary.LittleEndian.PutUint16(buf[9:11], hb.ErrorCode)
}

// ParseHeartbeat decodes a heartbeat payload. Errors if buf is short.
func ParseHeartbeat(buf []byte) (Heartbeat, error) {
	if len(buf) < HeartbeatPayloadSize {
		return Heartbeat{}, fmt.Errorf("heartbeat payload: need %d bytes, have %d", HeartbeatPayloadSize, len(buf))
	}
	return Heartbeat{
		SubsystemID: binary.LittleEndian.Uint16(buf[0:2]),
		State:       telemetry.SubsystemState(buf[2]),
		CPUPct:      buf[3],
		MemPct:      buf[4],
		UptimeS:     binary.LittleEndian.Uint32(buf[5:9]),
		ErrorCode:   binary.LittleEndian.Uint16(buf[9:11]),
	}, nil
}

// Engagement is a weapon status report.
type Engagement struct {
	WeaponID      uint16
	Mode          telemetry.WeaponMode
	AssignedTrack uint32
	Rounds        uint16
	BarrelTempC   int16
	BurstCount    uint16
}

// PutEngagement encodes e into the first EngagementPayloadSize bytes of buf.
func PutEngagement(buf []byte, e Engagement) {
	_ = buf[EngagementPayloadSize-1]
	binary.LittleEndian.PutUint16(buf[0:2], e.WeaponID)
	buf[2] = uint8(e.Mode)
	binary.LittleEndian.PutUint32(buf[3:7], e.AssignedTrack)
	binary.LittleEndian.PutUint16(buf[7:9], e.Rounds)
	binary.LittleEndian.PutUint16(buf[9:11], uint16(e.BarrelTempC))
	binary.LittleEndian.PutUint16(buf[11:13], e.BurstCount)
}

// ParseEngagement decodes an engagement payload. Errors if buf is short.
func ParseEngagement(buf []byte) (Engagement, error) {
	if len(buf) < EngagementPayloadSize {
		return Engagement{}, fmt.Errorf("engagement payload: need %d bytes, have %d", EngagementPayloadSize, len(buf))
	}
	return Engagement{
		WeaponID:      binary.LittleEndian.Uint16(buf[0:2]),
		Mode:          telemetry.WeaponMode(buf[2]),
		AssignedTrack: binary.LittleEndian.Uint32(buf[3:7]),
		Rounds:        binary.LittleEndian.Uint16(buf[7:9]),
		BarrelTempC:   int16(binary.LittleEndian.Uint16(buf[9:11])),
		BurstCount:    binary.LittleEndian.Uint16(buf[11:13]),
	}, nil
}

// BuildFrame assembles header + payload into a fresh frame buffer. When
// withCRC is set, a CRC-32 over header and payload is appended little-endian.
// The header's PayloadLen is taken from len(payload).
func BuildFrame(h Header, payload []byte, withCRC bool) []byte {
	h.PayloadLen = uint16(len(payload))
	size := telemetry.FrameHeaderSize + len(payload)
	if withCRC {
		size += telemetry.FrameCRCSize
	}
	buf := make([]byte, size)
	PutHeader(buf, h)
	copy(buf[telemetry.FrameHeaderSize:], payload)
	if withCRC {
		crc := Checksum(buf[:telemetry.FrameHeaderSize+len(payload)])
		binary.LittleEndian.PutUint32(buf[telemetry.FrameHeaderSize+len(payload):], crc)
	}
	return buf
}
