package chat

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// testVerify treats the token itself as the user id; empty is rejected.
func testVerify(token string) (string, error) {
	if token == "" {
		return "", errors.New("no token")
	}
	return token, nil
}

func newTestGateway(t *testing.T) (*Gateway, string, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	g := NewGateway(NewPresence(), testVerify)
	r := gin.New()
	r.GET("/ws", g.HandleWS)
	srv := httptest.NewServer(r)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return g, wsURL, func() {
		g.Close()
		srv.Close()
	}
}

func dialAs(t *testing.T, wsURL, user string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+user, nil)
	if err != nil {
		t.Fatalf("dial as %s: %v", user, err)
	}
	return conn
}

type wireFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var f wireFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode frame %q: %v", raw, err)
	}
	return f
}

func readOnline(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()
	f := readFrame(t, conn)
	if f.Event != EventOnlineUsers {
		t.Fatalf("event = %q, want %q", f.Event, EventOnlineUsers)
	}
	var ids []string
	if err := json.Unmarshal(f.Data, &ids); err != nil {
		t.Fatalf("decode online ids: %v", err)
	}
	return ids
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, raw, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no frame, got %q", raw)
	}
}

func TestHandshakeRequiresValidToken(t *testing.T) {
	_, wsURL, done := newTestGateway(t)
	defer done()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("handshake without token succeeded")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401 handshake rejection, got %+v", resp)
	}
}

func TestConnectBroadcastsSnapshotToAll(t *testing.T) {
	_, wsURL, done := newTestGateway(t)
	defer done()

	alice := dialAs(t, wsURL, "alice")
	defer alice.Close()
	if got := readOnline(t, alice); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("alice's first snapshot = %v", got)
	}

	bob := dialAs(t, wsURL, "bob")
	defer bob.Close()
	want := []string{"alice", "bob"}
	if got := readOnline(t, bob); !reflect.DeepEqual(got, want) {
		t.Fatalf("bob's snapshot = %v, want %v", got, want)
	}
	// The broadcast goes to every open connection, not just the new one.
	if got := readOnline(t, alice); !reflect.DeepEqual(got, want) {
		t.Fatalf("alice's rebroadcast = %v, want %v", got, want)
	}
}

func TestDisconnectRebroadcasts(t *testing.T) {
	g, wsURL, done := newTestGateway(t)
	defer done()

	alice := dialAs(t, wsURL, "alice")
	defer alice.Close()
	readOnline(t, alice)

	bob := dialAs(t, wsURL, "bob")
	readOnline(t, bob)
	readOnline(t, alice)

	bob.Close()
	if got := readOnline(t, alice); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("snapshot after bob left = %v, want [alice]", got)
	}
	if g.Presence().Online("bob") {
		t.Fatal("bob still registered after disconnect")
	}
}

func TestTwoTabsCloseOneStaysOnline(t *testing.T) {
	g, wsURL, done := newTestGateway(t)
	defer done()

	tab1 := dialAs(t, wsURL, "bob")
	defer tab1.Close()
	readOnline(t, tab1)

	tab2 := dialAs(t, wsURL, "bob")
	readOnline(t, tab2)
	readOnline(t, tab1) // rebroadcast for the second tab

	tab2.Close()
	if got := readOnline(t, tab1); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("snapshot after closing one tab = %v, want [bob]", got)
	}
	if !g.Presence().Online("bob") {
		t.Fatal("bob went offline while a tab remains")
	}
}

func TestDeliverToUserReachesOnlyReceiver(t *testing.T) {
	g, wsURL, done := newTestGateway(t)
	defer done()

	alice := dialAs(t, wsURL, "alice")
	defer alice.Close()
	readOnline(t, alice)

	bob := dialAs(t, wsURL, "bob")
	defer bob.Close()
	readOnline(t, bob)
	readOnline(t, alice)

	payload := map[string]any{"_id": "m1", "senderId": "alice", "receiverId": "bob", "text": "hi"}
	if !g.DeliverToUser("bob", EventNewMessage, payload) {
		t.Fatal("delivery to online bob reported failure")
	}

	f := readFrame(t, bob)
	if f.Event != EventNewMessage {
		t.Fatalf("bob got event %q, want %q", f.Event, EventNewMessage)
	}
	var got map[string]any
	if err := json.Unmarshal(f.Data, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got["_id"] != "m1" || got["senderId"] != "alice" {
		t.Fatalf("payload = %v", got)
	}

	// The sender must never see its own message on the push channel.
	expectSilence(t, alice)
}

func TestDeliverToOfflineUserIsNoop(t *testing.T) {
	g, _, done := newTestGateway(t)
	defer done()

	if g.DeliverToUser("ghost", EventNewMessage, map[string]any{"_id": "m1"}) {
		t.Fatal("delivery to offline user reported success")
	}
}

func TestDeliverFansOutToAllTabs(t *testing.T) {
	g, wsURL, done := newTestGateway(t)
	defer done()

	tab1 := dialAs(t, wsURL, "bob")
	defer tab1.Close()
	readOnline(t, tab1)
	tab2 := dialAs(t, wsURL, "bob")
	defer tab2.Close()
	readOnline(t, tab2)
	readOnline(t, tab1)

	g.DeliverToUser("bob", EventNewMessage, map[string]any{"_id": "m2"})
	for _, conn := range []*websocket.Conn{tab1, tab2} {
		if f := readFrame(t, conn); f.Event != EventNewMessage {
			t.Fatalf("tab got %q, want %q", f.Event, EventNewMessage)
		}
	}
}
