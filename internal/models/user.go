package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that can sign in with email and password.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AuthStatus is the client-visible authentication state.
type AuthStatus string

const (
	AuthLoading         AuthStatus = "loading"
	AuthAuthenticated   AuthStatus = "authenticated"
	AuthUnauthenticated AuthStatus = "unauthenticated"
)

// SessionUser is the identity projection carried in a session.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a signed-in user's view of their session.
// Token is only populated on sign-in responses.
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
	Token   string      `json:"token,omitempty"`
}
