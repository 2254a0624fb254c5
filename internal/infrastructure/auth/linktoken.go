package auth

import (
	"fmt"
	"time"

	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Link token purposes. A verification link must not be usable to reset a
// password, so the purpose is part of the signed payload.
const (
	LinkPurposeVerification  = "email_verification"
	LinkPurposePasswordReset = "password_reset"
)

type linkClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// LinkTokenizer mints the short signed tokens embedded in verification and
// password-reset email links. Signed under its own secret so a leaked link
// token can never pass for a bearer token.
type LinkTokenizer struct {
	secret []byte
	ttl    time.Duration
}

func NewLinkTokenizer(secret string, ttl time.Duration) *LinkTokenizer {
	return &LinkTokenizer{secret: []byte(secret), ttl: ttl}
}

func (l *LinkTokenizer) Create(email, purpose string) (string, error) {
	claims := &linkClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(l.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign link token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and its purpose, returning the embedded email.
func (l *LinkTokenizer) Decode(tokenStr, purpose string) (string, error) {
	claims := &linkClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method.Alg())
		}
		return l.secret, nil
	})
	if err != nil || !token.Valid || claims.Purpose != purpose || claims.Email == "" {
		return "", pkgerrors.ErrInvalidLinkToken
	}
	return claims.Email, nil
}
