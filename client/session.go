// Package client is the chat client's sync layer: it reconciles REST-fetched
// history, live-pushed events, and per-peer unseen counters into one
// consistent view, independent of any UI.
package client

import (
	"context"
	"sort"
	"sync"
	"time"

	"QChat/logger"
	"QChat/tools/decode"
)

// State of the conversation pane.
type State int

const (
	StateNoConversation State = iota
	StateLoadingHistory
	StateConversationActive
)

// Message is the wire shape of a chat message as the server sends it, both
// in REST responses and newMessage pushes.
type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}

// User is a roster entry.
type User struct {
	ID         string `json:"_id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profilePic"`
}

// Backend is the request/response side of the protocol. The durable store
// behind it is the source of truth; pushes only accelerate it.
type Backend interface {
	Users(ctx context.Context) ([]User, map[string]int, error)
	Conversation(ctx context.Context, peerID string) ([]Message, error)
	Send(ctx context.Context, peerID, text, image string) (*Message, error)
	MarkSeen(ctx context.Context, messageID string) error
	DeleteConversation(ctx context.Context, peerID string) error
}

// Session is the client sync state machine. All methods are safe for
// concurrent use; the push reader and the UI goroutine share one Session.
type Session struct {
	selfID  string
	backend Backend

	mu     sync.Mutex
	state  State
	peerID string
	view   []Message
	inView map[string]struct{}
	unseen map[string]int
	online map[string]struct{}
	users  []User
}

func NewSession(selfID string, backend Backend) *Session {
	return &Session{
		selfID:  selfID,
		backend: backend,
		state:   StateNoConversation,
		inView:  make(map[string]struct{}),
		unseen:  make(map[string]int),
		online:  make(map[string]struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Peer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// Conversation returns a copy of the current view, createdAt-ascending.
func (s *Session) Conversation() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.view))
	copy(out, s.view)
	return out
}

func (s *Session) UnseenCount(peerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unseen[peerID]
}

func (s *Session) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Session) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.online[userID]
	return ok
}

// Refresh pulls the roster and rebuilds the unseen counters from the
// server-computed snapshot.
func (s *Session) Refresh(ctx context.Context) error {
	users, unseen, err := s.backend.Users(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.unseen = make(map[string]int, len(unseen))
	for uid, n := range unseen {
		s.unseen[uid] = n
	}
	return nil
}

// SelectPeer opens the conversation with peerID: the view is replaced
// wholesale with the fetched history (the server marks peer->self seen in
// the same call) and the local unseen counter for peerID drops to zero so
// client badge state matches the server-side bulk update.
func (s *Session) SelectPeer(ctx context.Context, peerID string) error {
	s.mu.Lock()
	s.state = StateLoadingHistory
	s.peerID = peerID
	s.mu.Unlock()

	msgs, err := s.backend.Conversation(ctx, peerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peerID != peerID {
		// A later selection superseded this fetch; drop the result.
		return nil
	}
	if err != nil {
		s.state = StateNoConversation
		s.peerID = ""
		return err
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	s.view = s.view[:0]
	s.inView = make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if _, dup := s.inView[m.ID]; dup {
			continue
		}
		s.inView[m.ID] = struct{}{}
		s.view = append(s.view, m)
	}
	delete(s.unseen, peerID)
	s.state = StateConversationActive
	return nil
}

// Deselect returns to the empty pane and drops the view.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.state = StateNoConversation
	s.peerID = ""
	s.view = nil
	s.inView = make(map[string]struct{})
}

// SendText posts a text message to the open peer and appends the persisted
// record from the response; the sender's view updates from the response, not
// from the push channel.
func (s *Session) SendText(ctx context.Context, text string) (*Message, error) {
	return s.send(ctx, text, "")
}

// SendImage posts an inline image payload (data URI or base64).
func (s *Session) SendImage(ctx context.Context, image string) (*Message, error) {
	return s.send(ctx, "", image)
}

func (s *Session) send(ctx context.Context, text, image string) (*Message, error) {
	s.mu.Lock()
	peer := s.peerID
	s.mu.Unlock()

	msg, err := s.backend.Send(ctx, peer, text, image)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peerID == peer && s.state == StateConversationActive {
		s.appendLocked(*msg)
	}
	return msg, nil
}

// HandlePush reconciles one newMessage event. If it belongs to the open
// conversation it is marked seen locally, appended after the duplicate
// check, and acknowledged to the server; otherwise the sender's unseen
// counter is bumped.
func (s *Session) HandlePush(ctx context.Context, payload map[string]any) error {
	msg, err := decode.Map[Message](payload)
	if err != nil {
		return err
	}
	if msg.ID == "" || msg.SenderID == "" {
		// Reject rather than trust the wire shape.
		return errMalformedPush
	}

	s.mu.Lock()
	openPeer := s.state == StateConversationActive && msg.SenderID == s.peerID
	if openPeer {
		msg.Seen = true
		s.appendLocked(*msg)
	} else {
		s.unseen[msg.SenderID]++
	}
	s.mu.Unlock()

	if openPeer {
		// Best effort; a failed ack is healed by the next history fetch.
		if err := s.backend.MarkSeen(ctx, msg.ID); err != nil {
			logger.Infof("[client] mark seen %s: %v", msg.ID, err)
		}
	}
	return nil
}

// HandleOnlineUsers replaces the online set from a getOnlineUsers broadcast.
func (s *Session) HandleOnlineUsers(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.online[id] = struct{}{}
	}
}

// DeleteChat bulk-deletes the conversation with peerID; if that chat is the
// open one the pane is cleared and deselected.
func (s *Session) DeleteChat(ctx context.Context, peerID string) error {
	if err := s.backend.DeleteConversation(ctx, peerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unseen, peerID)
	if s.peerID == peerID {
		s.reset()
	}
	return nil
}

// appendLocked inserts m keeping createdAt order, suppressing duplicates by
// id; the same message can arrive once by push and again by history fetch.
func (s *Session) appendLocked(m Message) {
	if _, dup := s.inView[m.ID]; dup {
		return
	}
	s.inView[m.ID] = struct{}{}
	i := len(s.view)
	for i > 0 && s.view[i-1].CreatedAt.After(m.CreatedAt) {
		i--
	}
	s.view = append(s.view, Message{})
	copy(s.view[i+1:], s.view[i:])
	s.view[i] = m
}
