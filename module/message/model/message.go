package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one direct message between two users. At least one of Text and
// Image is set; Image holds an asset URL, not bytes. Seen flips to true at
// most once (by the recipient) and never back.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"senderId"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiverId"`
	Text       string             `bson:"text,omitempty" json:"text,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	Seen       bool               `bson:"seen" json:"seen"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
