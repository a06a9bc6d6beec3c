// Package monitor serves the HTTP observability surface of the gateway:
// JSON stats and health snapshots, Prometheus metrics, and a live event
// stream over websocket.
package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinel-fabric/telemetry/internal/telemetry"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/events"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/stats"
)

// WebServerConfig contains configuration options for the monitor server.
type WebServerConfig struct {
	Address string
	Stats   *stats.Aggregator
	Events  *events.Bus // nil disables the websocket stream
}

// WebServer handles the HTTP interface for gateway statistics.
type WebServer struct {
	address  string
	stats    *stats.Aggregator
	bus      *events.Bus
	server   *http.Server
	registry *prometheus.Registry
	upgrader websocket.Upgrader
	listener net.Listener
}

// NewWebServer creates a monitor server with the provided configuration.
func NewWebServer(cfg WebServerConfig) *WebServer {
	ws := &WebServer{
		address:  cfg.Address,
		stats:    cfg.Stats,
		bus:      cfg.Events,
		registry: prometheus.NewRegistry(),
	}
	ws.registry.MustRegister(newStatsCollector(cfg.Stats))
	ws.server = &http.Server{
		Addr:    cfg.Address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

func (ws *WebServer) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/health", ws.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(ws.registry, promhttp.HandlerOpts{}))
	if ws.bus != nil {
		mux.HandleFunc("/api/events/ws", ws.handleEventStream)
	}
	return mux
}

// Start binds the listener and serves until Shutdown.
func (ws *WebServer) Start() error {
	ln, err := net.Listen("tcp", ws.address)
	if err != nil {
		return err
	}
	ws.listener = ln
	go func() {
		if err := ws.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("monitor server: %v", err)
		}
	}()
	log.Printf("monitor server listening on %s", ln.Addr())
	return nil
}

// Addr reports the bound address, useful when started with port 0.
func (ws *WebServer) Addr() string {
	if ws.listener == nil {
		return ws.address
	}
	return ws.listener.Addr().String()
}

// Shutdown stops the server, waiting up to the context deadline.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

// statsResponse is the JSON shape of /api/stats.
type statsResponse struct {
	Global  stats.Global   `json:"global"`
	Sources []stats.Source `json:"sources"`
	Health  string         `json:"health"`
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Global:  ws.stats.GetGlobal(),
		Sources: ws.stats.GetAllSources(),
		Health:  ws.stats.GetHealth().String(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("encode stats response: %v", err)
	}
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := ws.stats.GetHealth()
	w.Header().Set("Content-Type", "application/json")
	if health == stats.HealthError {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]string{"health": health.String()})
}

// eventJSON is the websocket wire shape of one event.
type eventJSON struct {
	ID          uint16 `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	TimestampNs uint64 `json:"timestamp_ns"`
	Detail      string `json:"detail"`
}

// handleEventStream upgrades the connection and forwards bus events until
// the client goes away. A slow client drops events rather than stalling
// the publisher.
func (ws *WebServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	queue := make(chan telemetry.Event, 256)
	subID := ws.bus.SubscribeAll(func(ev telemetry.Event) {
		select {
		case queue <- ev:
		default:
		}
	})
	defer ws.bus.Unsubscribe(subID)

	// Read pump: the client sends nothing we care about, but reading is the
	// only way to notice it going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-queue:
			msg := eventJSON{
				ID:          uint16(ev.ID),
				Name:        ev.ID.String(),
				Category:    trimPad(ev.Category.String()),
				Severity:    trimPad(ev.Severity.String()),
				TimestampNs: ev.TimestampNs,
				Detail:      ev.Detail,
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// trimPad strips the fixed-width padding the log columns carry.
func trimPad(s string) string {
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func formatSrcID(id uint16) string {
	return strconv.FormatUint(uint64(id), 10)
}
