package auth

import (
	"github.com/kubitskyi/contacts-api/internal/users"
)

// SignupRequest carries the account fields accepted by the sign-up endpoint.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=5,max=16"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=10"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest presents the refresh token issued at login.
type RefreshRequest struct {
	Email        string `json:"email" validate:"required,email"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ConfirmEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type RequestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse contains the token pair produced by login and refresh.
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	User         *users.UserDTO `json:"user,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
