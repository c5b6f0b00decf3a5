package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             int64
	Username       string
	Email          string
	PasswordHash   string
	Role           string
	ProfilePicture string
	OTPCodeHash    string
	OTPExpiresAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
