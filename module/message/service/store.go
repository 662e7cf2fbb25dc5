package service

import (
	"context"

	"QChat/module/message/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollection = "messages"

// Store is the durable message record. Implementations must order
// Conversation results by created_at ascending; that ordering, not push
// arrival order, is authoritative for clients.
type Store interface {
	Insert(ctx context.Context, m *model.Message) error
	// Conversation returns all messages between a and b, oldest first.
	Conversation(ctx context.Context, a, b primitive.ObjectID) ([]*model.Message, error)
	// MarkConversationSeen flips seen on every message from sender to
	// receiver. Returns the number of messages updated.
	MarkConversationSeen(ctx context.Context, sender, receiver primitive.ObjectID) (int64, error)
	MarkSeen(ctx context.Context, id primitive.ObjectID) error
	// CountUnseenBySender counts seen=false messages addressed to receiver,
	// grouped by sender.
	CountUnseenBySender(ctx context.Context, receiver primitive.ObjectID) (map[string]int, error)
	// DeleteConversation removes every message between a and b, both
	// directions. Returns the number removed.
	DeleteConversation(ctx context.Context, a, b primitive.ObjectID) (int64, error)
}

type mongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{coll: db.Collection(messageCollection)}
}

// EnsureIndexes backs the conversation and unseen-count queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(messageCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "seen", Value: 1}}},
	})
	return err
}

func (s *mongoStore) Insert(ctx context.Context, m *model.Message) error {
	res, err := s.coll.InsertOne(ctx, m)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid
	}
	return nil
}

func betweenFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{"$or": []bson.M{
		{"sender_id": a, "receiver_id": b},
		{"sender_id": b, "receiver_id": a},
	}}
}

func (s *mongoStore) Conversation(ctx context.Context, a, b primitive.ObjectID) ([]*model.Message, error) {
	cursor, err := s.coll.Find(ctx, betweenFilter(a, b),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []*model.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *mongoStore) MarkConversationSeen(ctx context.Context, sender, receiver primitive.ObjectID) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"sender_id": sender, "receiver_id": receiver, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *mongoStore) MarkSeen(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *mongoStore) CountUnseenBySender(ctx context.Context, receiver primitive.ObjectID) (map[string]int, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"receiver_id": receiver, "seen": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$sender_id", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		SenderID primitive.ObjectID `bson:"_id"`
		Count    int                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.SenderID.Hex()] = r.Count
	}
	return out, nil
}

func (s *mongoStore) DeleteConversation(ctx context.Context, a, b primitive.ObjectID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, betweenFilter(a, b))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
