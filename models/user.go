package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	UserID     string             `bson:"userid" json:"userid"`
	Password   string             `bson:"password" json:"-"`
	Role       string             `bson:"role" json:"role"`
	Department string             `bson:"department" json:"department"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`

	// TaskCount is derived from the task collection on read, never stored.
	TaskCount int `bson:"-" json:"taskCount"`
}
