package models

import "github.com/golang-jwt/jwt/v5"

// TokenKind distinguishes the two halves of an issued pair. The string
// values double as the middle segment of the store key
// "{uid}:{kind}:{jti}".
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenClaims is the signed payload of both access and refresh tokens.
// Refresh tells the two apart; ID (jti) is unique per token, not per pair.
type TokenClaims struct {
	User    SafeUser `json:"user"`
	Refresh bool     `json:"refresh"`
	jwt.RegisteredClaims
}

func (c *TokenClaims) Kind() TokenKind {
	if c.Refresh {
		return TokenKindRefresh
	}
	return TokenKindAccess
}
