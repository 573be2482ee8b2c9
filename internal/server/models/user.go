// Package models holds the server-side records shared by repositories and
// services.
package models

import "time"

// User is a stored account. Email is the unique lookup key; PasswordHash is a
// bcrypt digest and never the plaintext. Token is the last session token
// issued at registration and may be empty.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	Token        string
	CreatedAt    time.Time
}
