package auth

import (
	"testing"
	"time"

	"github.com/avekens/threadlens/internal/models"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func testClaims(ttl time.Duration, refresh bool) *models.TokenClaims {
	return &models.TokenClaims{
		User: models.SafeUser{
			UID:        "8f7c4f34-9d15-4d6a-8c3e-0a1c6f2a9a11",
			Name:       "Test User",
			Email:      "test@example.com",
			Role:       models.RoleUser,
			IsVerified: true,
		},
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec("secret")

	claims := testClaims(time.Minute, false)
	token, err := codec.Encode(claims)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	decoded, err := codec.Decode(token)
	assert.NoError(t, err)
	assert.Equal(t, claims.User, decoded.User)
	assert.Equal(t, claims.ID, decoded.ID)
	assert.False(t, decoded.Refresh)
	assert.Equal(t, models.TokenKindAccess, decoded.Kind())
}

func TestCodec_WrongSecret(t *testing.T) {
	token, err := NewCodec("secret-a").Encode(testClaims(time.Minute, false))
	assert.NoError(t, err)

	_, err = NewCodec("secret-b").Decode(token)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidToken)
}

func TestCodec_Expired(t *testing.T) {
	codec := NewCodec("secret")
	token, err := codec.Encode(testClaims(-time.Minute, true))
	assert.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidToken)
}

func TestCodec_Garbage(t *testing.T) {
	codec := NewCodec("secret")

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Decode(input)
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidToken)
	}
}
