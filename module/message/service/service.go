package service

import (
	"context"
	"errors"
	"time"

	"QChat/assets"
	"QChat/logger"
	"QChat/module/message/model"
	usermodel "QChat/module/user/model"
	"QChat/tools/errs"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Deliverer is the push side of the delivery protocol. Delivery is best
// effort: a false return means no live connection took the frame, which is
// the expected steady state when the receiver is offline and never an error.
type Deliverer interface {
	DeliverToUser(userID, event string, data any) bool
}

// Roster lists the other users for the sidebar; implemented by the user service.
type Roster interface {
	ListOthers(ctx context.Context, selfID string) ([]*usermodel.User, error)
}

// EventNewMessage mirrors the gateway event name without importing it, so
// the service depends only on the Deliverer seam.
const EventNewMessage = "newMessage"

// SendInput is the body of POST /api/messages/send/:id. Text and Image are
// each optional but at least one must be present; both together are allowed
// (an image with a caption). Image arrives inline (data URI or base64) and
// is replaced by an asset URL before persisting.
type SendInput struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Service implements the message delivery protocol: validate, upload,
// persist, then push.
type Service struct {
	store   Store
	assets  assets.Store
	deliver Deliverer
}

func New(store Store, assetStore assets.Store, deliver Deliverer) *Service {
	return &Service{store: store, assets: assetStore, deliver: deliver}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errs.ErrValidation.WithDetail("malformed id")
	}
	return oid, nil
}

// Send runs the full protocol for one message. Order matters: the message is
// pushed only after it is durable, and a missed push is not a failure; the
// receiver reconciles from the store on its next history fetch. The sender
// gets the persisted message back in the response and is never pushed it.
func (s *Service) Send(ctx context.Context, senderID, receiverID string, in SendInput) (*model.Message, error) {
	sender, err := parseID(senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := parseID(receiverID)
	if err != nil {
		return nil, err
	}
	if sender == receiver {
		return nil, errs.ErrValidation.WithDetail("cannot message yourself")
	}
	if in.Text == "" && in.Image == "" {
		return nil, errs.ErrValidation.WithDetail("message needs text or an image")
	}

	imageURL := ""
	if in.Image != "" {
		data, ct, err := assets.DecodePayload(in.Image)
		if err != nil {
			return nil, err
		}
		imageURL, err = s.assets.Upload(ctx, data, ct)
		if err != nil {
			return nil, err
		}
	}

	msg := &model.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       in.Text,
		Image:      imageURL,
		Seen:       false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, msg); err != nil {
		return nil, errs.ErrStorage.Wrap(err)
	}

	if !s.deliver.DeliverToUser(receiverID, EventNewMessage, msg) {
		logger.Debug("[msg] receiver offline, push skipped")
	}
	return msg, nil
}

// Conversation returns the full history with peer, oldest first, and in the
// same step marks every peer->self message seen. Callers reset their local
// unseen counter for peer alongside this call; the two must stay in lockstep
// or badge counts drift.
func (s *Service) Conversation(ctx context.Context, selfID, peerID string) ([]*model.Message, error) {
	self, err := parseID(selfID)
	if err != nil {
		return nil, err
	}
	peer, err := parseID(peerID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.Conversation(ctx, self, peer)
	if err != nil {
		return nil, errs.ErrStorage.Wrap(err)
	}
	if _, err := s.store.MarkConversationSeen(ctx, peer, self); err != nil {
		return nil, errs.ErrStorage.Wrap(err)
	}
	// Reflect the bulk update in the returned slice so the response matches
	// what a re-fetch would show.
	for _, m := range msgs {
		if m.SenderID == peer {
			m.Seen = true
		}
	}
	return msgs, nil
}

// MarkSeen flips one message, used by receivers that handled a live push
// while the conversation was open.
func (s *Service) MarkSeen(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	err = s.store.MarkSeen(ctx, oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errs.ErrNotFound.WithDetail("message not found")
	}
	if err != nil {
		return errs.ErrStorage.Wrap(err)
	}
	return nil
}

// UsersWithUnseen builds the sidebar payload: every other user plus a map of
// sender id -> unseen count addressed to self.
func (s *Service) UsersWithUnseen(ctx context.Context, roster Roster, selfID string) ([]*usermodel.User, map[string]int, error) {
	self, err := parseID(selfID)
	if err != nil {
		return nil, nil, err
	}
	users, err := roster.ListOthers(ctx, selfID)
	if err != nil {
		return nil, nil, err
	}
	unseen, err := s.store.CountUnseenBySender(ctx, self)
	if err != nil {
		return nil, nil, errs.ErrStorage.Wrap(err)
	}
	return users, unseen, nil
}

// DeleteConversation bulk-deletes the chat with peer, both directions. No
// push notifies the peer; they learn of the deletion on their next fetch.
func (s *Service) DeleteConversation(ctx context.Context, selfID, peerID string) (int64, error) {
	self, err := parseID(selfID)
	if err != nil {
		return 0, err
	}
	peer, err := parseID(peerID)
	if err != nil {
		return 0, err
	}
	n, err := s.store.DeleteConversation(ctx, self, peer)
	if err != nil {
		return 0, errs.ErrStorage.Wrap(err)
	}
	return n, nil
}
