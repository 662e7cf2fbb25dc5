package chat

import (
	"sync"
	"time"

	"QChat/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 8 * 1024
	sendQueue  = 256
)

// Client is one websocket connection bound to an authenticated user. A user
// may hold several Clients at once (multiple tabs/devices), each with its own
// outbound queue drained by a single writer goroutine.
type Client struct {
	ConnID string
	UserID string

	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(connID, userID string, ws *websocket.Conn) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		ws:     ws,
		send:   make(chan []byte, sendQueue),
		done:   make(chan struct{}),
	}
}

// enqueue hands a frame to the writer goroutine without blocking. A full
// queue means the peer stopped draining; the connection is closed and the
// frame dropped, consistent with best-effort push.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		logger.Warnf("[ws] send queue full, closing conn=%s user=%s", c.ConnID, c.UserID)
		c.close()
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump is the only goroutine allowed to write on the socket. It drains
// the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop blocks until the peer goes away. Clients only receive events over
// this channel; inbound data frames are read and discarded so control frames
// (pong, close) keep flowing.
func (c *Client) readLoop() {
	defer c.close()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] read err conn=%s user=%s err=%v", c.ConnID, c.UserID, err)
			}
			return
		}
	}
}
