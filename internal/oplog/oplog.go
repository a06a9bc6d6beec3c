// Package oplog writes the operator event log in its pinned column format:
//
//	2025-07-15T14:23:01.001Z [INFO ] [TRACKING  ] EVT_TRACK_NEW       detail
//
// The format is part of the external interface contract (downstream log
// scrapers key on the fixed columns), so the layout is produced byte for
// byte here rather than through a general-purpose logging library.
package oplog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

// eventNameWidth is the fixed width of the event-name column. Longer names
// are truncated, shorter ones right-padded with spaces.
const eventNameWidth = 20

// Logger is a level-filtered writer of operator log lines. A single mutex
// serializes writes; the output sink is caller-owned.
type Logger struct {
	mu    sync.Mutex
	level telemetry.Severity
	out   io.Writer
	now   func() time.Time
}

// New returns a logger writing to out at level INFO.
func New(out io.Writer) *Logger {
	return &Logger{level: telemetry.SeverityInfo, out: out, now: time.Now}
}

var (
	defaultOnce   sync.Once
	defaultLogger *Logger
)

// Default returns the process-wide logger, created on first use and writing
// to stdout. One creation at process start, reconfigured via SetLevel and
// SetOutput.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(os.Stdout)
	})
	return defaultLogger
}

// SetLevel changes the minimum severity that is written.
func (l *Logger) SetLevel(level telemetry.Severity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level reports the current minimum severity.
func (l *Logger) Level() telemetry.Severity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetOutput redirects subsequent lines to out.
func (l *Logger) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = out
}

// Log writes one line if sev passes the level filter.
func (l *Logger) Log(sev telemetry.Severity, cat telemetry.Category, eventName, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sev < l.level || l.out == nil {
		return
	}

	ts := l.now().UTC()
	name := eventName
	if len(name) > eventNameWidth {
		name = name[:eventNameWidth]
	}

	fmt.Fprintf(l.out, "%s.%03dZ [%s] [%s] %-*s%s\n",
		ts.Format("2006-01-02T15:04:05"),
		ts.Nanosecond()/1e6,
		sev.String(),
		cat.String(),
		eventNameWidth, name,
		detail)
}

// Event writes ev using its id's name as the event-name column.
func (l *Logger) Event(ev telemetry.Event) {
	l.Log(ev.Severity, ev.Category, ev.ID.String(), ev.Detail)
}
