package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// command is what a client may send: {"action":"subscribe","list_id":"..."}.
type command struct {
	Action string `json:"action"`
	ListID string `json:"list_id"`
}

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	send   chan []byte
	device string

	mu    sync.RWMutex
	lists map[string]struct{}
}

func NewClient(hub *Hub, conn *ws.Conn, device string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		device: device,
		lists:  make(map[string]struct{}),
	}
}

// wants reports whether a message for listID should reach this client.
func (c *Client) wants(listID string) bool {
	if listID == "" {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.lists) == 0 {
		return true
	}
	_, ok := c.lists[listID]
	return ok
}

func (c *Client) handle(cmd command) {
	if cmd.ListID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch cmd.Action {
	case "subscribe":
		c.lists[cmd.ListID] = struct{}{}
	case "unsubscribe":
		delete(c.lists, cmd.ListID)
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump applies subscription commands and ignores anything it cannot
// parse. It returns when the connection closes.
func (c *Client) readPump(ctx context.Context) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != ws.MessageText {
			continue
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.hub.logger.Debug("ignoring client message", "device", c.device, "error", err)
			continue
		}
		c.handle(cmd)
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
