package model

import "time"

// User is the authenticated identity carried by a session.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is the marketplace identity record keyed by user id.
type Profile struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name,omitempty"`
	Department string    `json:"department,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}
