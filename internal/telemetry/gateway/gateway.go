// Package gateway runs the ingest loop: pull frames from a source, record,
// parse, track sequence integrity, aggregate stats, and publish events.
package gateway

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/sentinel-fabric/telemetry/internal/oplog"
	"github.com/sentinel-fabric/telemetry/internal/telemetry"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/events"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/parse"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/recorder"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/seqtrack"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/stats"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/wire"
)

// FrameSource yields raw frames. The bounded Receive returns false on
// timeout so the loop can observe its stop flag; a replay source reports
// permanent exhaustion through Done.
type FrameSource interface {
	Receive(buf []byte) (int, bool)
	Close() error
}

// doneSource is the optional exhaustion signal of finite sources.
type doneSource interface {
	Done() bool
}

// Config parameterizes one gateway instance.
type Config struct {
	Source     FrameSource
	Recorder   *recorder.Recorder // nil disables recording
	Logger     *oplog.Logger      // nil falls back to oplog.Default()
	CRCEnabled bool
}

// Gateway owns the single-threaded ingest loop and the shared collaborators
// the control plane reads.
type Gateway struct {
	source   FrameSource
	rec      *recorder.Recorder
	logger   *oplog.Logger
	tracker  *seqtrack.Tracker
	stats    *stats.Aggregator
	bus      *events.Bus
	crc      atomic.Bool
	running  atomic.Bool
	stopFlag atomic.Bool
}

// New assembles a gateway around cfg.Source.
func New(cfg Config) *Gateway {
	logger := cfg.Logger
	if logger == nil {
		logger = oplog.Default()
	}
	g := &Gateway{
		source:  cfg.Source,
		rec:     cfg.Recorder,
		logger:  logger,
		tracker: seqtrack.New(),
		stats:   stats.New(),
		bus:     events.New(),
	}
	g.crc.Store(cfg.CRCEnabled)
	return g
}

// Stats exposes the aggregator for the control plane and monitor.
func (g *Gateway) Stats() *stats.Aggregator { return g.stats }

// Events exposes the bus for subscribers.
func (g *Gateway) Events() *events.Bus { return g.bus }

// Logger exposes the operator logger.
func (g *Gateway) Logger() *oplog.Logger { return g.logger }

// CRCEnabled reports the live CRC validation policy.
func (g *Gateway) CRCEnabled() bool { return g.crc.Load() }

// SetCRCEnabled flips the CRC validation policy; takes effect on the next
// frame.
func (g *Gateway) SetCRCEnabled(on bool) { g.crc.Store(on) }

// Running reports whether the ingest loop is active.
func (g *Gateway) Running() bool { return g.running.Load() }

// Stop signals the loop to exit after its current bounded receive.
// Idempotent and safe from any goroutine.
func (g *Gateway) Stop() { g.stopFlag.Store(true) }

// Run executes the ingest loop until Stop is called or a finite source is
// exhausted. It blocks the calling goroutine.
func (g *Gateway) Run() {
	if !g.running.CompareAndSwap(false, true) {
		return
	}
	defer g.running.Store(false)
	g.stopFlag.Store(false)

	g.publish(telemetry.EvtConfigChange, telemetry.CategoryControl, telemetry.SeverityInfo,
		fmt.Sprintf("gateway started crc=%t record=%t", g.crc.Load(), g.rec != nil))

	buf := make([]byte, telemetry.MaxDatagramSize)
	for !g.stopFlag.Load() {
		n, ok := g.source.Receive(buf)
		if !ok {
			if ds, finite := g.source.(doneSource); finite && ds.Done() {
				break
			}
			continue
		}
		g.processFrame(buf[:n], uint64(time.Now().UnixNano()))
	}

	if g.rec != nil {
		if err := g.rec.Close(); err != nil {
			log.Printf("recorder close: %v", err)
		}
	}

	g.publish(telemetry.EvtConfigChange, telemetry.CategoryControl, telemetry.SeverityInfo, "gateway stopped")
}

// processFrame threads one raw frame through record, parse, sequence
// tracking, stats, and event dispatch.
func (g *Gateway) processFrame(frame []byte, rxTimestampNs uint64) {
	if g.rec != nil {
		if err := g.rec.Record(rxTimestampNs, frame); err != nil {
			log.Printf("record frame: %v", err)
		}
	}

	f, code := parse.Parse(frame, g.crc.Load())
	if code != parse.OK {
		// Header fields are unreliable on a failed parse; malformed frames
		// are attributed to source 0.
		g.stats.RecordMalformed(0)
		if code == parse.CRCMismatch {
			g.stats.RecordCRCFail(0)
			g.publish(telemetry.EvtCRCFail, telemetry.CategoryNetwork, telemetry.SeverityWarn,
				fmt.Sprintf("error=%s", code))
		} else {
			g.publish(telemetry.EvtFrameMalformed, telemetry.CategoryNetwork, telemetry.SeverityWarn,
				fmt.Sprintf("error=%s len=%d", code, len(frame)))
		}
		return
	}

	seqEv := g.tracker.Track(f.Header.SrcID, f.Header.Seq)
	g.stats.RecordRx(f.Header.SrcID, f.Header.Seq, rxTimestampNs)

	switch seqEv.Result {
	case seqtrack.First:
		g.publish(telemetry.EvtSourceOnline, telemetry.CategoryNetwork, telemetry.SeverityInfo,
			fmt.Sprintf("src_id=%d", f.Header.SrcID))
	case seqtrack.Gap:
		g.stats.RecordGap(f.Header.SrcID, seqEv.GapSize)
		g.publish(telemetry.EvtSeqGap, telemetry.CategoryNetwork, telemetry.SeverityWarn,
			fmt.Sprintf("src_id=%d expected=%d actual=%d gap=%d",
				f.Header.SrcID, seqEv.Expected, seqEv.Actual, seqEv.GapSize))
	case seqtrack.Reorder:
		g.stats.RecordReorder(f.Header.SrcID)
		g.publish(telemetry.EvtSeqReorder, telemetry.CategoryNetwork, telemetry.SeverityWarn,
			fmt.Sprintf("src_id=%d expected=%d actual=%d",
				f.Header.SrcID, seqEv.Expected, seqEv.Actual))
	case seqtrack.Duplicate:
		// Counter only; duplicate floods would otherwise drown the log.
		g.stats.RecordDuplicate(f.Header.SrcID)
	case seqtrack.OK:
	}

	g.dispatchPayload(f)
}

// dispatchPayload publishes the payload-specific event for a parsed frame.
func (g *Gateway) dispatchPayload(f parse.Frame) {
	switch f.Header.MsgType {
	case telemetry.MsgTrack:
		track, err := wire.ParseTrack(f.Payload)
		if err != nil {
			return
		}
		g.publish(telemetry.EvtTrackUpdate, telemetry.CategoryTracking, telemetry.SeverityDebug,
			fmt.Sprintf("src_id=%d track_id=%d class=%d threat=%d",
				f.Header.SrcID, track.TrackID, track.Classification, track.Threat))

	case telemetry.MsgPlot:
		plot, err := wire.ParsePlot(f.Payload)
		if err != nil {
			return
		}
		g.publish(telemetry.EvtTrackNew, telemetry.CategoryTracking, telemetry.SeverityDebug,
			fmt.Sprintf("src_id=%d plot_id=%d range=%dm", f.Header.SrcID, plot.PlotID, plot.RangeM))

	case telemetry.MsgHeartbeat:
		hb, err := wire.ParseHeartbeat(f.Payload)
		if err != nil {
			return
		}
		id, sev := telemetry.EvtHeartbeatOK, telemetry.SeverityDebug
		switch hb.State {
		case telemetry.SubsystemDegraded:
			id, sev = telemetry.EvtHeartbeatDegrade, telemetry.SeverityWarn
		case telemetry.SubsystemError, telemetry.SubsystemOffline:
			id, sev = telemetry.EvtHeartbeatError, telemetry.SeverityAlarm
		}
		g.publish(id, telemetry.CategoryHealth, sev,
			fmt.Sprintf("subsystem=%d state=%d cpu=%d%% mem=%d%%",
				hb.SubsystemID, hb.State, hb.CPUPct, hb.MemPct))

	case telemetry.MsgEngagement:
		eng, err := wire.ParseEngagement(f.Payload)
		if err != nil {
			return
		}
		g.publish(telemetry.EvtWeaponStatus, telemetry.CategoryEngagement, telemetry.SeverityInfo,
			fmt.Sprintf("weapon=%d mode=%d track=%d rounds=%d",
				eng.WeaponID, eng.Mode, eng.AssignedTrack, eng.Rounds))
	}
}

// publish writes the event to the operator log and fans it out on the bus.
func (g *Gateway) publish(id telemetry.EventID, cat telemetry.Category, sev telemetry.Severity, detail string) {
	ev := telemetry.Event{
		ID:          id,
		Category:    cat,
		Severity:    sev,
		TimestampNs: uint64(time.Now().UnixNano()),
		Detail:      detail,
	}
	g.logger.Event(ev)
	g.bus.Publish(ev)
}
