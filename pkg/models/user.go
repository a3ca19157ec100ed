package models

import (
	"time"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	AvatarPath   *string   `json:"avatar_path,omitempty" db:"avatar_path"`
	LastSeen     time.Time `json:"last_seen" db:"last_seen"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	IsOnline     bool      `json:"is_online,omitempty" db:"-"`
}

type RegisterRequest struct {
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	// Login matches either the phone or the email column.
	Login    string `json:"login"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
