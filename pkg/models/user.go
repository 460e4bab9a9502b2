package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// User is an operator of the inventory backend
type User struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string        `bson:"email" json:"email" validate:"required,email"`
	Password  string        `bson:"password" json:"-"` // bcrypt hash, never exposed
	Name      string        `bson:"name" json:"name" validate:"required,min=2,max=100"`
	Role      string        `bson:"role" json:"role" validate:"required,oneof=admin manager viewer"`
	Active    bool          `bson:"active" json:"active"`
	LastLogin time.Time     `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetTimestamps sets created_at on first call and always updates updated_at
func (u *User) SetTimestamps() {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

func (u *User) CanManageInventory() bool {
	return u.Active && (u.Role == RoleAdmin || u.Role == RoleManager)
}
