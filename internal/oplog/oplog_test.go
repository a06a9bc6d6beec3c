package oplog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

func fixedClock() time.Time {
	return time.Date(2025, 7, 15, 14, 23, 1, 1_000_000, time.UTC)
}

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = fixedClock

	l.Log(telemetry.SeverityInfo, telemetry.CategoryTracking, "EVT_TRACK_NEW", "track_id=42")

	want := "2025-07-15T14:23:01.001Z [INFO ] [TRACKING  ] EVT_TRACK_NEW       track_id=42\n"
	require.Equal(t, want, buf.String())
}

func TestSeverityPadding(t *testing.T) {
	cases := map[telemetry.Severity]string{
		telemetry.SeverityDebug: "[DEBUG]",
		telemetry.SeverityInfo:  "[INFO ]",
		telemetry.SeverityWarn:  "[WARN ]",
		telemetry.SeverityAlarm: "[ALARM]",
		telemetry.SeverityError: "[ERROR]",
		telemetry.SeverityFatal: "[FATAL]",
	}
	for sev, want := range cases {
		var buf bytes.Buffer
		l := New(&buf)
		l.now = fixedClock
		l.SetLevel(telemetry.SeverityDebug)
		l.Log(sev, telemetry.CategoryHealth, "X", "")
		require.Contains(t, buf.String(), want, "severity %d", sev)
	}
}

func TestCategoryPadding(t *testing.T) {
	cases := map[telemetry.Category]string{
		telemetry.CategoryTracking:   "[TRACKING  ]",
		telemetry.CategoryThreat:     "[THREAT    ]",
		telemetry.CategoryIFF:        "[IFF       ]",
		telemetry.CategoryEngagement: "[ENGAGEMENT]",
		telemetry.CategoryNetwork:    "[NETWORK   ]",
		telemetry.CategoryHealth:     "[HEALTH    ]",
		telemetry.CategoryControl:    "[CONTROL   ]",
	}
	for cat, want := range cases {
		var buf bytes.Buffer
		l := New(&buf)
		l.now = fixedClock
		l.Log(telemetry.SeverityInfo, cat, "X", "")
		require.Contains(t, buf.String(), want, "category %d", cat)
	}
}

func TestEventNameColumn(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = fixedClock

	// Short names pad to 20 columns before the detail.
	l.Log(telemetry.SeverityInfo, telemetry.CategoryControl, "SHORT", "detail")
	require.Contains(t, buf.String(), " SHORT               detail\n")

	// Long names truncate to exactly 20.
	buf.Reset()
	l.Log(telemetry.SeverityInfo, telemetry.CategoryControl, "EVT_HEARTBEAT_DEGRADE_EXTRA", "d")
	require.Contains(t, buf.String(), " EVT_HEARTBEAT_DEGRADd\n")
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = fixedClock

	// Default level is INFO: DEBUG is suppressed.
	l.Log(telemetry.SeverityDebug, telemetry.CategoryHealth, "X", "")
	require.Empty(t, buf.String())

	l.SetLevel(telemetry.SeverityAlarm)
	require.Equal(t, telemetry.SeverityAlarm, l.Level())
	l.Log(telemetry.SeverityWarn, telemetry.CategoryHealth, "X", "")
	require.Empty(t, buf.String())
	l.Log(telemetry.SeverityError, telemetry.CategoryHealth, "X", "")
	require.NotEmpty(t, buf.String())
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	l := New(&first)
	l.now = fixedClock

	l.Log(telemetry.SeverityInfo, telemetry.CategoryControl, "A", "")
	l.SetOutput(&second)
	l.Log(telemetry.SeverityInfo, telemetry.CategoryControl, "B", "")

	require.True(t, strings.Contains(first.String(), " A "))
	require.False(t, strings.Contains(first.String(), " B "))
	require.True(t, strings.Contains(second.String(), " B "))
}

func TestEventHelper(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = fixedClock

	l.Event(telemetry.Event{
		ID:       telemetry.EvtSeqGap,
		Category: telemetry.CategoryNetwork,
		Severity: telemetry.SeverityWarn,
		Detail:   "src_id=1 gap=2",
	})
	require.Contains(t, buf.String(), "EVT_SEQ_GAP         src_id=1 gap=2")
}
