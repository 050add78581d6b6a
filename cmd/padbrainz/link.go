package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Link failure taxonomy. Both are non-fatal for the control loop: it logs,
// keeps the last-known-good snapshot, and samples inputs as usual.
var (
	// ErrTransport marks a lost or refused connection.
	ErrTransport = errors.New("engine link: transport failure")
	// ErrDecode marks a reply that could not be parsed.
	ErrDecode = errors.New("engine link: malformed reply")
)

// StateLink is the control loop's view of the engine connection. The
// concrete client is EngineClient; tests substitute a fake.
type StateLink interface {
	// FetchState performs one synchronous round trip: an empty probe out,
	// a full SequencerState snapshot back.
	FetchState() (SequencerState, error)
	// Send serializes one command and blocks until the engine acknowledges
	// it. Failures are reported, never retried here.
	Send(cmd Command) error
	Close() error
}

// EngineClient manages the WebSocket connection to the sequencer engine.
// Both operations are synchronous round trips serialized by a mutex, so a
// request is always paired with its own reply.
type EngineClient struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	url         string
	logger      *slog.Logger
	readTimeout time.Duration
}

// NewEngineClient validates the URL and establishes the initial connection,
// retrying with a short delay so the daemon survives the engine starting a
// moment later.
func NewEngineClient(wsURL string, logger *slog.Logger, readTimeout time.Duration) (*EngineClient, error) {
	if _, err := url.Parse(wsURL); err != nil {
		return nil, fmt.Errorf("invalid engine URL: %w", err)
	}

	c := &EngineClient{
		url:         wsURL,
		logger:      logger,
		readTimeout: readTimeout,
	}

	if err := c.connectWithRetry(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *EngineClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	d := websocket.Dialer{
		HandshakeTimeout: 2 * time.Second,
	}
	conn, _, err := d.Dial(c.url, nil)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *EngineClient) connectWithRetry() error {
	var lastErr error
	for attempt := 0; attempt < 10; attempt++ {
		err := c.connect()
		if err == nil {
			c.logger.Info("connected to engine", "url", c.url)
			return nil
		}
		lastErr = err
		c.logger.Warn("engine connection failed; retrying...", "error", err, "attempt", attempt+1)
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("%w: failed to connect after 10 attempts: %v", ErrTransport, lastErr)
}

func (c *EngineClient) ensureConnected() error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.logger.Warn("engine connection lost; reconnecting...")
	return c.connectWithRetry()
}

// roundTrip writes one message and blocks for the reply, bounded by the
// read timeout. On any transport error the connection is marked broken so
// the next call reconnects.
func (c *EngineClient) roundTrip(payload []byte) ([]byte, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("%w: no connection", ErrTransport)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn = nil
		return nil, fmt.Errorf("%w: write: %v", ErrTransport, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	_, reply, err := c.conn.ReadMessage()
	if err != nil {
		c.conn = nil
		return nil, fmt.Errorf("%w: read: %v", ErrTransport, err)
	}
	return reply, nil
}

// FetchState sends the empty probe and decodes the snapshot reply.
func (c *EngineClient) FetchState() (SequencerState, error) {
	reply, err := c.roundTrip([]byte{})
	if err != nil {
		return SequencerState{}, fmt.Errorf("fetch state: %w", err)
	}

	var state SequencerState
	if err := json.Unmarshal(reply, &state); err != nil {
		return SequencerState{}, fmt.Errorf("%w: state snapshot: %v", ErrDecode, err)
	}
	return state, nil
}

// Send serializes one command, performs the round trip, and checks the
// acknowledgment. An engine-side rejection comes back as a plain error, not
// a transport or decode failure.
func (c *EngineClient) Send(cmd Command) error {
	payload, err := encodeCommand(cmd)
	if err != nil {
		return err
	}

	reply, err := c.roundTrip(payload)
	if err != nil {
		return fmt.Errorf("send %s: %w", cmd.commandName(), err)
	}

	var ack ackReply
	if err := json.Unmarshal(reply, &ack); err != nil {
		return fmt.Errorf("%w: %s ack: %v", ErrDecode, cmd.commandName(), err)
	}
	if !ack.OK {
		return fmt.Errorf("engine rejected %s: %s", cmd.commandName(), ack.Error)
	}

	c.logger.Debug("command acknowledged", "cmd", cmd.commandName())
	return nil
}

// Close closes the WebSocket connection.
func (c *EngineClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}
