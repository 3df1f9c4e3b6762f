package dto

import (
	"time"

	"github.com/spec-kit/task-platform/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse wraps the created user.
type RegisterResponse struct {
	User domain.UserView `json:"user"`
}

// LoginResponse carries the bearer token and the user's public profile.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      domain.UserView `json:"user"`
}

// VerifyResponse exposes the identity claims of a valid token.
type VerifyResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}
