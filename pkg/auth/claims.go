package auth

import "github.com/golang-jwt/jwt/v5"

// Token purposes keep access and e-mail confirmation tokens from being swapped.
const (
	PurposeAccess       = "access"
	PurposeConfirmEmail = "email_confirmation"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Email  string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// EmailTokenClaims is carried by the confirmation link sent after sign-up.
type EmailTokenClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}
