package chat

import (
	"net/http"

	"QChat/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// VerifyToken resolves a session token to a user id.
type VerifyToken func(token string) (userID string, err error)

// Gateway owns the websocket endpoint: it authenticates handshakes, keeps
// the Presence table current, broadcasts online snapshots, and routes
// point-to-point pushes.
type Gateway struct {
	presence *Presence
	verify   VerifyToken
}

func NewGateway(presence *Presence, verify VerifyToken) *Gateway {
	return &Gateway{presence: presence, verify: verify}
}

func (g *Gateway) Presence() *Presence { return g.presence }

// HandleWS upgrades ws://.../ws?token=<jwt>. The identity is taken from the
// verified token, never from a caller-supplied id: an unverified handshake
// would let anyone receive another user's pushes.
func (g *Gateway) HandleWS(c *gin.Context) {
	userID, err := g.verify(c.Query("token"))
	if err != nil || userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "invalid handshake token",
		})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed user=%s err=%v", userID, err)
		return
	}

	client := newClient(uuid.NewString(), userID, ws)
	go client.writePump()

	g.presence.Register(client)
	logger.Infof("[ws] connected user=%s conn=%s online=%d", userID, client.ConnID, len(g.presence.Snapshot()))
	g.BroadcastOnlineUsers()

	// Blocks for the lifetime of the connection.
	client.readLoop()

	g.presence.Unregister(client)
	client.close()
	logger.Infof("[ws] disconnected user=%s conn=%s", userID, client.ConnID)
	g.BroadcastOnlineUsers()
}

// BroadcastOnlineUsers pushes the current snapshot to every open connection,
// the new/leaving one's peers included.
func (g *Gateway) BroadcastOnlineUsers() {
	frame, err := encodeFrame(EventOnlineUsers, g.presence.Snapshot())
	if err != nil {
		logger.Errorf("[ws] encode %s: %v", EventOnlineUsers, err)
		return
	}
	for _, c := range g.presence.All() {
		c.enqueue(frame)
	}
}

// DeliverToUser pushes an event to every connection of userID. Best effort
// by contract: an offline user is a silent no-op, a slow one gets dropped,
// and the caller must treat the durable store as the source of truth.
// Returns whether at least one connection accepted the frame.
func (g *Gateway) DeliverToUser(userID, event string, data any) bool {
	clients := g.presence.Lookup(userID)
	if len(clients) == 0 {
		return false
	}
	frame, err := encodeFrame(event, data)
	if err != nil {
		logger.Errorf("[ws] encode %s: %v", event, err)
		return false
	}
	delivered := false
	for _, c := range clients {
		if c.enqueue(frame) {
			delivered = true
		}
	}
	return delivered
}

// Close tears down every live connection, for shutdown.
func (g *Gateway) Close() {
	for _, c := range g.presence.All() {
		g.presence.Unregister(c)
		c.close()
	}
}
