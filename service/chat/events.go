package chat

import (
	"encoding/json"

	"QChat/tools/errs"
)

// Server -> client event names.
const (
	EventOnlineUsers = "getOnlineUsers" // full online-id snapshot, sent to all
	EventNewMessage  = "newMessage"     // one message, sent to the receiver only
)

// Frame is the wire envelope for every pushed event.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MessagePayload is the validated shape of a newMessage push. Producers fill
// it from the persisted record; consumers reject frames missing the required
// identifiers instead of trusting the wire.
type MessagePayload struct {
	ID         string `json:"_id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text,omitempty"`
	Image      string `json:"image,omitempty"`
	Seen       bool   `json:"seen"`
	CreatedAt  string `json:"createdAt"`
}

func (m *MessagePayload) Validate() error {
	switch {
	case m.ID == "":
		return errs.ErrValidation.WithDetail("message payload missing _id")
	case m.SenderID == "":
		return errs.ErrValidation.WithDetail("message payload missing senderId")
	case m.ReceiverID == "":
		return errs.ErrValidation.WithDetail("message payload missing receiverId")
	}
	return nil
}

func encodeFrame(event string, data any) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}
