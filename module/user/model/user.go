package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the profile document in the users collection. Password holds the
// bcrypt hash and never leaves the server (json:"-").
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email      string             `bson:"email" json:"email"`
	FullName   string             `bson:"full_name" json:"fullName"`
	Password   string             `bson:"password" json:"-"`
	Bio        string             `bson:"bio" json:"bio"`
	ProfilePic string             `bson:"profile_pic,omitempty" json:"profilePic,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}
