package model

import "time"

type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignOutRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email              string `json:"email" binding:"required,email"`
	OTP                string `json:"otp" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,min=8"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required"`
}

type LoginResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accesstoken"`
	RefreshToken string `json:"refreshtoken"`
}

type RefreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accesstoken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

// TokenDetails identifies a live token for later revocation.
type TokenDetails struct {
	TokenID   string
	ExpiresAt time.Time
}

// AuthUser is the identity Authentication attaches to the request context.
type AuthUser struct {
	User  *User
	Token TokenDetails
}

// RefreshContext is what RefreshGuard attaches to the request context.
type RefreshContext struct {
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
