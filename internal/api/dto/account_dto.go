package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Password   string           `json:"password"`
	Role       domain.ActorRole `json:"role"`
	Profession *string          `json:"profession"`
	Contact    *string          `json:"contact"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse represents an account without credentials.
type AccountResponse struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Email      string                `json:"email"`
	Role       domain.ActorRole      `json:"role"`
	Profession *domain.IssueCategory `json:"profession,omitempty"`
	Contact    *string               `json:"contact,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// AuthResponse wraps token info.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
