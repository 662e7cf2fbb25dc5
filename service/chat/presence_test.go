package chat

import (
	"reflect"
	"testing"
)

func newTestClient(connID, userID string) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		send:   make(chan []byte, sendQueue),
		done:   make(chan struct{}),
	}
}

func TestPresenceRegisterUnregister(t *testing.T) {
	p := NewPresence()
	a := newTestClient("c1", "alice")

	if p.Online("alice") {
		t.Fatal("alice online before register")
	}
	p.Register(a)
	if !p.Online("alice") {
		t.Fatal("alice not online after register")
	}
	if got := p.Snapshot(); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Fatalf("snapshot = %v, want [alice]", got)
	}

	p.Unregister(a)
	if p.Online("alice") {
		t.Fatal("alice still online after unregister")
	}
	if got := p.Snapshot(); len(got) != 0 {
		t.Fatalf("snapshot = %v, want empty", got)
	}
}

func TestPresenceMultipleTabs(t *testing.T) {
	p := NewPresence()
	tab1 := newTestClient("c1", "bob")
	tab2 := newTestClient("c2", "bob")
	p.Register(tab1)
	p.Register(tab2)

	if got := len(p.Lookup("bob")); got != 2 {
		t.Fatalf("lookup returned %d conns, want 2", got)
	}

	// Closing one tab must not take bob offline.
	p.Unregister(tab1)
	if !p.Online("bob") {
		t.Fatal("bob offline after closing one of two tabs")
	}
	if got := p.Snapshot(); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("snapshot = %v, want [bob]", got)
	}

	p.Unregister(tab2)
	if p.Online("bob") {
		t.Fatal("bob online with zero connections")
	}
}

func TestPresenceSnapshotSorted(t *testing.T) {
	p := NewPresence()
	for _, uid := range []string{"carol", "alice", "bob"} {
		p.Register(newTestClient("c-"+uid, uid))
	}
	want := []string{"alice", "bob", "carol"}
	if got := p.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	if got := len(p.All()); got != 3 {
		t.Fatalf("All() returned %d conns, want 3", got)
	}
}

func TestPresenceLookupAbsent(t *testing.T) {
	p := NewPresence()
	if got := p.Lookup("nobody"); got != nil {
		t.Fatalf("lookup of absent user = %v, want nil", got)
	}
}

func TestPresenceUnregisterIsConnScoped(t *testing.T) {
	p := NewPresence()
	tab1 := newTestClient("c1", "dave")
	p.Register(tab1)

	// Unregistering a connection that was never registered must not evict
	// the live one.
	ghost := newTestClient("c-ghost", "dave")
	p.Unregister(ghost)
	if !p.Online("dave") {
		t.Fatal("dave evicted by unregistering an unrelated connection")
	}
}
