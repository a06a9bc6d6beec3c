// Package config loads the optional gateway configuration file. Fields are
// pointer-typed so an absent key leaves the corresponding flag default
// untouched; explicit CLI flags override file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
)

// File is the YAML shape of a gateway config file.
type File struct {
	Port        *uint16 `yaml:"port,omitempty"`
	CRC         *bool   `yaml:"crc,omitempty"`
	RecordPath  *string `yaml:"record_path,omitempty"`
	ReplayPath  *string `yaml:"replay_path,omitempty"`
	LogLevel    *string `yaml:"log_level,omitempty"`
	ControlPort *uint16 `yaml:"control_port,omitempty"`
	MonitorAddr *string `yaml:"monitor_addr,omitempty"`
}

// Settings is the resolved gateway configuration.
type Settings struct {
	Port        uint16
	CRC         bool
	RecordPath  string
	ReplayPath  string
	LogLevel    telemetry.Severity
	ControlPort uint16
	MonitorAddr string
}

// Defaults returns the stock gateway settings.
func Defaults() Settings {
	return Settings{
		Port:        5000,
		CRC:         true,
		LogLevel:    telemetry.SeverityInfo,
		ControlPort: 5100,
	}
}

// Load reads and validates a config file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config file: %w", err)
	}
	if f.LogLevel != nil {
		if _, ok := telemetry.ParseSeverity(*f.LogLevel); !ok {
			return File{}, fmt.Errorf("config: invalid log_level %q", *f.LogLevel)
		}
	}
	return f, nil
}

// Apply overlays the file's set fields onto s.
func (f File) Apply(s *Settings) {
	if f.Port != nil {
		s.Port = *f.Port
	}
	if f.CRC != nil {
		s.CRC = *f.CRC
	}
	if f.RecordPath != nil {
		s.RecordPath = *f.RecordPath
	}
	if f.ReplayPath != nil {
		s.ReplayPath = *f.ReplayPath
	}
	if f.LogLevel != nil {
		if level, ok := telemetry.ParseSeverity(*f.LogLevel); ok {
			s.LogLevel = level
		}
	}
	if f.ControlPort != nil {
		s.ControlPort = *f.ControlPort
	}
	if f.MonitorAddr != nil {
		s.MonitorAddr = *f.MonitorAddr
	}
}
