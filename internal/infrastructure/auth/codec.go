package auth

import (
	"fmt"

	"github.com/avekens/threadlens/internal/models"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Codec signs token claims into opaque bearer strings and back. Every
// decode failure, whatever the jwt library reports, comes out as
// ErrInvalidToken so unauthenticated callers see a uniform rejection.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Encode(claims *models.TokenClaims) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("jwt secret not set")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (c *Codec) Decode(tokenStr string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, pkgerrors.ErrInvalidToken
	}
	return claims, nil
}
