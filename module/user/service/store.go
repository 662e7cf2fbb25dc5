package service

import (
	"context"

	"QChat/module/user/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollection = "users"

// Store is the durable record of users, abstracted so the service is
// testable without a running MongoDB.
type Store interface {
	Insert(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, set bson.M) (*model.User, error)
	ListOthers(ctx context.Context, selfID string) ([]*model.User, error)
}

// ErrNoUser is surfaced by Store implementations when a lookup misses.
var ErrNoUser = mongo.ErrNoDocuments

type mongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique email index; duplicate signups then fail
// at the database rather than racing past the pre-check.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(userCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *mongoStore) Insert(ctx context.Context, u *model.User) error {
	res, err := s.coll.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (s *mongoStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNoUser
	}
	var u model.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoStore) Update(ctx context.Context, id string, set bson.M) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNoUser
	}
	var u model.User
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoStore) ListOthers(ctx context.Context, selfID string) ([]*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(selfID)
	if err != nil {
		return nil, ErrNoUser
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$ne": oid}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
