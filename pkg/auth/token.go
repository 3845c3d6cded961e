package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// ErrWrongPurpose is returned when an action token is presented to the wrong flow.
var ErrWrongPurpose = errors.New("token purpose mismatch")

// keyring is the HS256 secret and issuer every token is bound to.
type keyring struct {
	secret []byte
	issuer string
}

func keyringFor(cfg config.JWTConfig) (keyring, error) {
	switch {
	case cfg.Secret == "":
		return keyring{}, errors.New("jwt secret is required")
	case cfg.Issuer == "":
		return keyring{}, errors.New("jwt issuer is required")
	}
	return keyring{secret: []byte(cfg.Secret), issuer: cfg.Issuer}, nil
}

func (k keyring) registered(subject uuid.UUID, id string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    k.issuer,
		Subject:   subject.String(),
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (k keyring) sign(claims jwt.Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return token, nil
}

func (k keyring) verify(raw string, into jwt.Claims, extra ...jwt.ParserOption) error {
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(k.issuer),
	}, extra...)
	_, err := jwt.NewParser(opts...).ParseWithClaims(raw, into, func(*jwt.Token) (any, error) {
		return k.secret, nil
	})
	return err
}

// MintAccessToken signs the payload for cfg.ExpirationMinutes. A blank JTI
// gets a fresh uuid.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	keys, err := keyringFor(cfg)
	if err != nil {
		return "", err
	}
	switch {
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("jwt expiration minutes must be positive")
	case payload.UserID == uuid.Nil:
		return "", errors.New("user id is required")
	case strings.TrimSpace(payload.Role) == "":
		return "", errors.New("role is required")
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute
	return keys.sign(AccessTokenClaims{
		UserID:           payload.UserID,
		Role:             payload.Role,
		RegisteredClaims: keys.registered(payload.UserID, jti, now, ttl),
	})
}

func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	return readAccess(cfg, raw)
}

// ParseAccessTokenAllowExpired checks only the signature, so logout and
// refresh can recover the session id of a stale token.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	return readAccess(cfg, raw, jwt.WithoutClaimsValidation())
}

func readAccess(cfg config.JWTConfig, raw string, opts ...jwt.ParserOption) (*AccessTokenClaims, error) {
	keys, err := keyringFor(cfg)
	if err != nil {
		return nil, err
	}
	claims := new(AccessTokenClaims)
	if err := keys.verify(raw, claims, opts...); err != nil {
		return nil, err
	}
	return claims, nil
}

// MintActionToken issues the token embedded in reset and verification links.
func MintActionToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID, purpose ActionPurpose) (string, error) {
	keys, err := keyringFor(cfg)
	if err != nil {
		return "", err
	}
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	return keys.sign(ActionTokenClaims{
		UserID:           userID,
		Purpose:          purpose,
		RegisteredClaims: keys.registered(userID, uuid.NewString(), now, cfg.ActionTokenTTL()),
	})
}

func ParseActionToken(cfg config.JWTConfig, raw string, purpose ActionPurpose) (*ActionTokenClaims, error) {
	keys, err := keyringFor(cfg)
	if err != nil {
		return nil, err
	}
	claims := new(ActionTokenClaims)
	if err := keys.verify(raw, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil
}
