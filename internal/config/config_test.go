package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeConfig(t, `
port: 6000
crc: false
record_path: /tmp/session.bin
log_level: warn
control_port: 6100
monitor_addr: ":8080"
`)
	f, err := Load(path)
	require.NoError(t, err)

	s := Defaults()
	f.Apply(&s)

	require.EqualValues(t, 6000, s.Port)
	require.False(t, s.CRC)
	require.Equal(t, "/tmp/session.bin", s.RecordPath)
	require.Equal(t, telemetry.SeverityWarn, s.LogLevel)
	require.EqualValues(t, 6100, s.ControlPort)
	require.Equal(t, ":8080", s.MonitorAddr)
	// Unset keys keep their defaults.
	require.Empty(t, s.ReplayPath)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "port: 7000\n")
	f, err := Load(path)
	require.NoError(t, err)

	s := Defaults()
	f.Apply(&s)

	require.EqualValues(t, 7000, s.Port)
	require.True(t, s.CRC)
	require.EqualValues(t, 5100, s.ControlPort)
	require.Equal(t, telemetry.SeverityInfo, s.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "port: [nonsense\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "log_level: noisy\n"))
	require.Error(t, err)
}
