package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// SessionContext identifies the authenticated actor for the current request.
// It is populated from the auth token by the middleware and passed explicitly
// wherever per-user scoping is needed.
type SessionContext struct {
	UserID primitive.ObjectID
	Email  string
	Role   string
}

func (s SessionContext) IsAdmin() bool {
	return s.Role == RoleAdmin
}
