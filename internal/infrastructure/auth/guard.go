package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avekens/threadlens/internal/infrastructure/observability"
	"github.com/avekens/threadlens/internal/infrastructure/redis"
	"github.com/avekens/threadlens/internal/models"
	"github.com/avekens/threadlens/internal/repository"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
)

type contextKey string

const (
	claimsContextKey contextKey = "token_claims"
	userContextKey   contextKey = "current_user"
)

// ErrorWriter renders an auth failure as an HTTP response. The handler
// package supplies the mapping; the guard stays HTTP-status agnostic.
type ErrorWriter func(w http.ResponseWriter, err error)

// Guard verifies a request's bearer token. One implementation covers both
// token kinds: required selects which refresh-flag value passes and which
// store key prefix is consulted.
type Guard struct {
	codec    *Codec
	store    redis.RedisClient
	userRepo repository.UserRepository
	required models.TokenKind
	writeErr ErrorWriter
}

func NewAccessGuard(codec *Codec, store redis.RedisClient, userRepo repository.UserRepository, writeErr ErrorWriter) *Guard {
	return &Guard{codec: codec, store: store, userRepo: userRepo, required: models.TokenKindAccess, writeErr: writeErr}
}

func NewRefreshGuard(codec *Codec, store redis.RedisClient, userRepo repository.UserRepository, writeErr ErrorWriter) *Guard {
	return &Guard{codec: codec, store: store, userRepo: userRepo, required: models.TokenKindRefresh, writeErr: writeErr}
}

// Verify runs the full chain on a request: bearer extraction, decode, kind
// check, user resolution, revocation check. Store presence is
// authoritative: a structurally valid token whose record is gone is
// rejected exactly like a forged one.
func (g *Guard) Verify(r *http.Request) (*models.TokenClaims, *models.User, error) {
	tokenStr, err := extractBearer(r)
	if err != nil {
		return nil, nil, err
	}

	claims, err := g.codec.Decode(tokenStr)
	if err != nil {
		return nil, nil, err
	}

	if claims.Kind() != g.required {
		if g.required == models.TokenKindAccess {
			return nil, nil, pkgerrors.ErrAccessTokenRequired
		}
		return nil, nil, pkgerrors.ErrRefreshTokenRequired
	}

	user, err := g.userRepo.GetByEmail(r.Context(), claims.User.Email)
	if err != nil {
		return nil, nil, err
	}

	exists, err := g.store.Exists(r.Context(), tokenKey(user.UID.String(), g.required, claims.ID))
	if err != nil {
		// Cannot verify: fail closed.
		slog.Error("token store check failed", "user_id", user.UID, "error", err)
		return nil, nil, pkgerrors.ErrInvalidToken
	}
	if !exists {
		return nil, nil, pkgerrors.ErrInvalidToken
	}

	return claims, user, nil
}

// Middleware short-circuits the request before the handler runs on any
// verification failure.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, user, err := g.Verify(r)
		if err != nil {
			observability.GuardChecks.WithLabelValues(string(g.required), "rejected").Inc()
			g.writeErr(w, err)
			return
		}
		observability.GuardChecks.WithLabelValues(string(g.required), "ok").Inc()
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		ctx = context.WithValue(ctx, userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearer(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", pkgerrors.ErrInvalidToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", pkgerrors.ErrInvalidToken
	}
	return parts[1], nil
}

// ClaimsFromContext returns the validated claims a guard stored on the
// request context.
func ClaimsFromContext(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*models.TokenClaims)
	return claims, ok
}

// UserFromContext returns the resolved user a guard stored on the request
// context.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}
