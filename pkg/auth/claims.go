package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   string
	// JTI doubles as the redis session id; generated when blank.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// ActionPurpose scopes a single-use emailed token.
type ActionPurpose string

const (
	PurposeResetPassword ActionPurpose = "reset_password"
	PurposeVerifyAccount ActionPurpose = "verify_account"
)

// ActionTokenClaims back password-reset and verification links.
type ActionTokenClaims struct {
	UserID  uuid.UUID     `json:"user_id"`
	Purpose ActionPurpose `json:"purpose"`
	jwt.RegisteredClaims
}
