package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avekens/threadlens/internal/infrastructure/observability"
	"github.com/avekens/threadlens/internal/infrastructure/redis"
	"github.com/avekens/threadlens/internal/models"
	"github.com/avekens/threadlens/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPair is one minted access/refresh pair. The jtis are independent;
// the store holds a refresh→access mapping so the pair can be revoked
// together later.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Issuer struct {
	codec      *Codec
	store      redis.RedisClient
	userRepo   repository.UserRepository
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, store redis.RedisClient, userRepo repository.UserRepository, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		store:      store,
		userRepo:   userRepo,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair resolves the user by email, mints a signed access/refresh pair
// and persists three store records: one per token and the refresh→access
// mapping. A store failure aborts the whole operation; the caller never
// receives a partially persisted pair. Keys already written before the
// failure expire on their own TTL.
func (i *Issuer) IssuePair(ctx context.Context, email string) (*TokenPair, error) {
	user, err := i.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	uid := user.UID.String()
	accessJTI := uuid.NewString()
	refreshJTI := uuid.NewString()
	safe := user.Safe()

	accessToken, err := i.codec.Encode(i.buildClaims(safe, accessJTI, false))
	if err != nil {
		return nil, err
	}
	refreshToken, err := i.codec.Encode(i.buildClaims(safe, refreshJTI, true))
	if err != nil {
		return nil, err
	}

	if err := i.store.Set(ctx, tokenKey(uid, models.TokenKindAccess, accessJTI), accessToken, i.accessTTL); err != nil {
		return nil, fmt.Errorf("failed to persist access token: %w", err)
	}
	if err := i.store.Set(ctx, tokenKey(uid, models.TokenKindRefresh, refreshJTI), refreshToken, i.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	if err := i.store.Set(ctx, mappingKey(uid, refreshJTI), accessJTI, i.refreshTTL); err != nil {
		return nil, fmt.Errorf("failed to persist token mapping: %w", err)
	}

	observability.TokensIssued.Inc()
	slog.Info("token pair issued", "user_id", uid, "access_jti", accessJTI, "refresh_jti", refreshJTI)
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (i *Issuer) buildClaims(user models.SafeUser, jti string, refresh bool) *models.TokenClaims {
	ttl := i.accessTTL
	if refresh {
		ttl = i.refreshTTL
	}
	return &models.TokenClaims{
		User:    user,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}
