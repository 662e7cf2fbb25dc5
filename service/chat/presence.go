package chat

import (
	"sort"
	"sync"
)

// Presence maps a user id to the set of its live connections. A user is
// online iff it has at least one registered connection; a second browser tab
// is a second connection under the same id, and closing one tab must not
// drop the other's routability.
//
// The table is the only shared mutable state in the gateway and is owned by
// exactly one Presence instance injected where needed; all access goes
// through the methods below.
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Client // userID -> connID -> client
}

func NewPresence() *Presence {
	return &Presence{byUser: make(map[string]map[string]*Client)}
}

// Register adds a connection. Registering the same conn id twice overwrites,
// which is harmless: conn ids are generated per-upgrade.
func (p *Presence) Register(c *Client) {
	if c == nil || c.UserID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	set := p.byUser[c.UserID]
	if set == nil {
		set = make(map[string]*Client)
		p.byUser[c.UserID] = set
	}
	set[c.ConnID] = c
}

// Unregister removes exactly this connection. The user stays online while
// any other connection of theirs remains.
func (p *Presence) Unregister(c *Client) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	set := p.byUser[c.UserID]
	if set == nil {
		return
	}
	delete(set, c.ConnID)
	if len(set) == 0 {
		delete(p.byUser, c.UserID)
	}
}

// Lookup returns every live connection of userID; empty means offline.
func (p *Presence) Lookup(userID string) []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.byUser[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// Online reports whether userID has at least one live connection.
func (p *Presence) Online(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser[userID]) > 0
}

// Snapshot returns the sorted set of online user ids, the payload of a
// getOnlineUsers broadcast.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.byUser))
	for uid := range p.byUser {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// All returns every registered connection across all users.
func (p *Presence) All() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*Client
	for _, set := range p.byUser {
		for _, c := range set {
			out = append(out, c)
		}
	}
	return out
}
