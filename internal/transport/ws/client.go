package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/wordduel/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed between pongs before the peer is considered gone
	pongWait = 60 * time.Second

	// Must be less than pongWait
	pingPeriod = pongWait * 9 / 10

	// Voice offers carry SDP, so leave room for those
	maxMessageSize = 64 * 1024

	sendBufferSize = 256

	// Per-connection intent budget
	intentRate  = 10
	intentBurst = 20
)

// Client is one websocket connection
type Client struct {
	id          model.ConnID
	conn        *websocket.Conn
	send        chan []byte
	limiter     *rate.Limiter
	connectedAt time.Time
	closeOnce   sync.Once
}

// NewClient creates a client for an upgraded connection. conn may be nil in tests.
func NewClient(id model.ConnID, conn *websocket.Conn) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		limiter:     rate.NewLimiter(rate.Limit(intentRate), intentBurst),
		connectedAt: time.Now(),
	}
}

// ID returns the connection identity the engine knows this client by
func (c *Client) ID() model.ConnID {
	return c.id
}

// allow reports whether the client is within its intent budget
func (c *Client) allow() bool {
	return c.limiter.Allow()
}

// readPump reads frames until the connection fails and hands each to handle.
func (c *Client) readPump(handle func(frame []byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handle(frame)
	}
}

// writePump drains the send channel and keeps the connection alive with
// pings. It returns once the hub closes the channel or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
