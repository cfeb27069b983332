// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// UserOut is the public projection of a User.
type UserOut struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Out returns the public projection of u.
func (u *User) Out() UserOut {
	return UserOut{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// UserCreate is the registration payload.
type UserCreate struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Token is returned by a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
