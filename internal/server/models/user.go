package models

import "time"

// User is the directory record a session is bound to.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
