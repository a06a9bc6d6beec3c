package control

import (
	"fmt"
	"net"
	"time"
)

// replyTimeout bounds how long a client waits for one response frame.
const replyTimeout = 5 * time.Second

// Client is a framed request/response connection to a control server.
// One command is in flight at a time.
type Client struct {
	conn   net.Conn
	framer Framer
}

// Dial connects to a control server at host:port.
func Dial(host string, port uint16) (*Client, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), replyTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial control %s:%d: %w", host, port, err)
	}
	return &Client{conn: conn}, nil
}

// Send issues one command and waits for its reply.
func (c *Client) Send(command string) (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("client is closed")
	}

	if _, err := c.conn.Write(EncodeString(command)); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}

	deadline := time.Now().Add(replyTimeout)
	buf := make([]byte, 4096)
	for !c.framer.HasFrame() {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return "", err
		}
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.framer.Feed(buf[:n])
		}
		if err != nil && !c.framer.HasFrame() {
			return "", fmt.Errorf("read reply: %w", err)
		}
	}
	return string(c.framer.PopFrame()), nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
