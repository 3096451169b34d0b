package domain

import "time"

// User is an organizer account as listed on the admin dashboard
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// UserProfile is the identity carried by a bearer token
type UserProfile struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Mobile  string `json:"mobile,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// AuthClaims is a validated bearer token
type AuthClaims struct {
	Profile   UserProfile
	ExpiresAt time.Time
}
