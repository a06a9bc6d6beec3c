package control

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sentinel-fabric/telemetry/internal/oplog"
	"github.com/sentinel-fabric/telemetry/internal/telemetry/stats"
)

func startTestServer(t *testing.T) (*Server, *stats.Aggregator) {
	t.Helper()
	agg := stats.New()
	srv := NewServer(0, agg, oplog.New(io.Discard), &fakeCRC{on: true})
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv, agg
}

func TestRequestReplyLoopback(t *testing.T) {
	srv, agg := startTestServer(t)
	agg.RecordRx(3, 9, 100)

	c, err := Dial("127.0.0.1", srv.Port())
	require.NoError(t, err)
	defer c.Close()

	reply, err := c.Send("GET HEALTH")
	require.NoError(t, err)
	require.Equal(t, "HEALTH OK", reply)

	reply, err = c.Send("GET STATS")
	require.NoError(t, err)
	require.Contains(t, reply, "rx_total=1")
}

func TestInvalidCommandKeepsConnectionOpen(t *testing.T) {
	srv, _ := startTestServer(t)

	c, err := Dial("127.0.0.1", srv.Port())
	require.NoError(t, err)
	defer c.Close()

	reply, err := c.Send("BOGUS")
	require.NoError(t, err)
	require.Equal(t, "ERR UNKNOWN_COMMAND", reply)

	// The connection survives the error reply.
	reply, err = c.Send("GET HEALTH")
	require.NoError(t, err)
	require.Equal(t, "HEALTH OK", reply)
}

func TestConcurrentClients(t *testing.T) {
	srv, _ := startTestServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := Dial("127.0.0.1", srv.Port())
			if err != nil {
				t.Error(err)
				return
			}
			defer c.Close()
			for j := 0; j < 20; j++ {
				reply, err := c.Send("GET HEALTH")
				if err != nil || reply != "HEALTH OK" {
					t.Errorf("reply=%q err=%v", reply, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestPerConnectionConfigIsolation(t *testing.T) {
	// Each connection runs its own handler, so generic keys do not leak
	// between clients; shared state (stats, log level, CRC) does.
	srv, _ := startTestServer(t)

	c1, err := Dial("127.0.0.1", srv.Port())
	require.NoError(t, err)
	defer c1.Close()
	c2, err := Dial("127.0.0.1", srv.Port())
	require.NoError(t, err)
	defer c2.Close()

	_, err = c1.Send("SET MARKER=one")
	require.NoError(t, err)
	reply, err := c2.Send("SET MARKER=two")
	require.NoError(t, err)
	require.Equal(t, "OK MARKER=two", reply)
}

func TestStopDisconnectsClients(t *testing.T) {
	srv, _ := startTestServer(t)

	c, err := Dial("127.0.0.1", srv.Port())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Send("GET HEALTH")
	require.NoError(t, err)

	srv.Stop()
	require.False(t, srv.Running())

	// Stop is idempotent.
	srv.Stop()

	// The dropped connection surfaces as a send/receive error.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := c.Send("GET HEALTH"); err != nil {
			return
		}
	}
	t.Fatal("connection stayed usable after server stop")
}

func TestStopBeforeStartIsNoOp(t *testing.T) {
	srv := NewServer(0, stats.New(), oplog.New(io.Discard), nil)
	srv.Stop()
}
