package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"

	"QChat/logger"

	"github.com/gorilla/websocket"
)

var errMalformedPush = errors.New("malformed push payload")

// Socket is the push side: a websocket connection authenticated at handshake
// time by the session token.
type Socket struct {
	conn *websocket.Conn
}

// Dial connects to the gateway, e.g. ws://host:5000/ws, passing the token as
// a handshake query parameter.
func Dial(ctx context.Context, wsURL, token string) (*Socket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &Socket{conn: conn}, nil
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Subscription is the handle for one event feed. It has a stable identity
// and tears the feed down exactly once, however many times Close is called.
type Subscription struct {
	once sync.Once
	stop func()
	done chan struct{}
}

func (s *Subscription) Close() {
	s.once.Do(s.stop)
}

// Done closes when the read loop has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Subscribe starts the read loop feeding sess until Close or disconnect.
// Events: getOnlineUsers replaces the online set, newMessage goes through
// the sync machine's reconciliation.
func (sk *Socket) Subscribe(ctx context.Context, sess *Session) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		stop: func() {
			cancel()
			_ = sk.conn.Close()
		},
		done: make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer sub.Close()
		for {
			_, raw, err := sk.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					logger.Infof("[client] push channel closed: %v", err)
				}
				return
			}
			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				logger.Infof("[client] bad frame: %v", err)
				continue
			}
			switch f.Event {
			case "getOnlineUsers":
				var ids []string
				if err := json.Unmarshal(f.Data, &ids); err == nil {
					sess.HandleOnlineUsers(ids)
				}
			case "newMessage":
				var payload map[string]any
				if err := json.Unmarshal(f.Data, &payload); err != nil {
					continue
				}
				if err := sess.HandlePush(ctx, payload); err != nil {
					logger.Infof("[client] push rejected: %v", err)
				}
			}
		}
	}()
	return sub
}
