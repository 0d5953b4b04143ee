package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/codecollab/codecollab/internal/infrastructure/logging"
)

// Session is the connection's current room/identity binding. A connection
// holds at most one binding at a time; it changes only on join/leave, always
// from the connection's own read loop.
type Session struct {
	RoomID   string
	UserName string
}

func (s Session) Bound() bool {
	return s.RoomID != "" && s.UserName != ""
}

type Client struct {
	ID        string
	conn      *connWrapper
	send      chan *Message
	done      chan struct{}
	session   Session
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, id string) *Client {
	return &Client{
		ID:   id,
		conn: newConnWrapper(conn),
		send: make(chan *Message, 64), // buffered to avoid dead-locks on slow clients
		done: make(chan struct{}),
	}
}

func (c *Client) Session() Session {
	return c.session
}

// Deliver queues a message for the client without blocking. It reports
// whether the message was accepted; a full buffer or a closed client drops it.
func (c *Client) Deliver(msg *Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend stops the write loop. The send channel itself is never closed so
// a late Deliver cannot panic; it just starts reporting false.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ReadLoop pumps inbound frames into the gateway until the transport drops.
// Transport loss is treated as an implicit leave, never surfaced to peers as
// an error.
func (c *Client) ReadLoop(gw *Gateway) {
	defer gw.Disconnect(c)

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				gw.logger.Warn(logging.WebSocket, logging.Leave, "ws read error", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.Deliver(NewError("malformed event frame"))
			continue
		}

		gw.Handle(c, &env)
	}
}

// WriteLoop drains the send buffer onto the wire. It exits on disconnect or
// when a write fails.
func (c *Client) WriteLoop(logger logging.Logger) {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Warn(logging.WebSocket, logging.Broadcast, "ws write error", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
				return
			}
		}
	}
}
