package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftchat/driftchat/pkg/errs"
)

// Client is the handle for one live connection. It starts anonymous; a login
// event binds it to a user id, and the bound id is stored here so disconnect
// can unbind in O(1) instead of scanning the registry.
type Client struct {
	Hub       *Hub
	SessionID string
	Conn      *websocket.Conn

	mu     sync.Mutex
	userID int64
	closed bool
	send   chan []byte
}

func NewClient(h *Hub, conn *websocket.Conn, sessionID string) *Client {
	bufSize := 256
	if h != nil && h.cfg.SendBufferSize > 0 {
		bufSize = h.cfg.SendBufferSize
	}
	return &Client{
		Hub:       h,
		SessionID: sessionID,
		Conn:      conn,
		send:      make(chan []byte, bufSize),
	}
}

// UserID returns the bound user id, or 0 while the connection is anonymous.
func (c *Client) UserID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) setUserID(id int64) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

// Enqueue hands data to the write pump. Pushing to a connection that is
// already torn down or whose buffer is full fails with a delivery error; the
// caller logs and moves on, it never propagates to the sender.
func (c *Client) Enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errs.Delivery("connection closed")
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errs.Delivery("send buffer full")
	}
}

// Close makes the handle permanently dead. Idempotent; a closed client
// rejects all further pushes.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("Error unmarshaling WebSocket event: %v", err)
			if err := c.Enqueue(errorEvent(errs.Validation("malformed event"))); err != nil {
				break
			}
			continue
		}

		c.Hub.Inbound <- InboundEvent{Client: c, Event: event}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.cfg.WriteWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
