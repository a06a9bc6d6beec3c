package control

import (
	"fmt"
	"strings"

	"github.com/sentinel-fabric/telemetry/internal/oplog"
	"github.com/sentinel-fabric/telemetry/internal/telemetry"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/stats"
)

// CRCPolicy is the slice of the gateway the CRC command needs.
type CRCPolicy interface {
	CRCEnabled() bool
	SetCRCEnabled(bool)
}

// Handler parses one text command and produces the reply. Verbs are
// case-insensitive; SET keys are uppercased. A handler serves a single
// connection goroutine and is not internally synchronized.
type Handler struct {
	stats  *stats.Aggregator
	logger *oplog.Logger
	crc    CRCPolicy
	config map[string]string
}

// NewHandler wires a handler to the gateway's aggregator, logger, and CRC
// policy. crc may be nil when no gateway is attached (SET CRC still answers
// but only updates the stored config).
func NewHandler(agg *stats.Aggregator, logger *oplog.Logger, crc CRCPolicy) *Handler {
	return &Handler{
		stats:  agg,
		logger: logger,
		crc:    crc,
		config: make(map[string]string),
	}
}

// Handle processes one request payload and returns the reply payload.
func (h *Handler) Handle(command string) string {
	if command == "" {
		return "ERR EMPTY_COMMAND"
	}

	verb, rest, _ := strings.Cut(command, " ")
	rest = strings.TrimLeft(rest, " \t")

	switch strings.ToUpper(verb) {
	case "GET":
		return h.handleGet(rest)
	case "SET":
		return h.handleSet(rest)
	}
	return "ERR UNKNOWN_COMMAND"
}

func (h *Handler) handleGet(args string) string {
	switch strings.ToUpper(strings.TrimSpace(args)) {
	case "HEALTH":
		return "HEALTH " + h.stats.GetHealth().String()
	case "STATS":
		g := h.stats.GetGlobal()
		var b strings.Builder
		b.WriteString("STATS\n")
		fmt.Fprintf(&b, "rx_total=%d\n", g.RxTotal)
		fmt.Fprintf(&b, "malformed_total=%d\n", g.MalformedTotal)
		fmt.Fprintf(&b, "gap_total=%d\n", g.GapTotal)
		fmt.Fprintf(&b, "reorder_total=%d\n", g.ReorderTotal)
		fmt.Fprintf(&b, "duplicate_total=%d\n", g.DuplicateTotal)
		fmt.Fprintf(&b, "crc_fail_total=%d", g.CRCFailTotal)
		return b.String()
	}
	return "ERR UNKNOWN_COMMAND"
}

func (h *Handler) handleSet(args string) string {
	key, value, found := strings.Cut(args, "=")
	if !found {
		return "ERR INVALID_SET_SYNTAX"
	}
	key = strings.ToUpper(strings.Trim(key, " \t"))
	value = strings.Trim(value, " \t")

	switch key {
	case "LOG_LEVEL":
		upper := strings.ToUpper(value)
		level, ok := telemetry.ParseSeverity(upper)
		if !ok {
			return "ERR INVALID_LOG_LEVEL"
		}
		h.logger.SetLevel(level)
		h.config[key] = upper
		return "OK LOG_LEVEL=" + upper

	case "CRC":
		switch strings.ToUpper(value) {
		case "ON":
			if h.crc != nil {
				h.crc.SetCRCEnabled(true)
			}
			h.config[key] = "ON"
			return "OK CRC=ON"
		case "OFF":
			if h.crc != nil {
				h.crc.SetCRCEnabled(false)
			}
			h.config[key] = "OFF"
			return "OK CRC=OFF"
		}
		return "ERR INVALID_CRC_VALUE"
	}

	h.config[key] = value
	return "OK " + key + "=" + value
}

// ConfigValue returns the stored value for key, or "" when unset.
func (h *Handler) ConfigValue(key string) string {
	return h.config[key]
}
