package domain

import "time"

type User struct {
	ID           string
	Email        string // lower-cased and trimmed, unique
	PasswordHash string // bcrypt encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the caller identity carried by a verified access token.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}
