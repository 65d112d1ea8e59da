package models

// User represents a registered account.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never expose this to the client
}

// MaxUsernameLength is the longest username the store accepts.
const MaxUsernameLength = 150
