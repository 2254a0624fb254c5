package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/avekens/threadlens/internal/infrastructure/redis"
	"github.com/avekens/threadlens/internal/models"
)

// Revoker removes token records from the store. Deleting the record is
// what revokes a token: the guard treats a missing record as invalid no
// matter what the signature says.
type Revoker struct {
	store redis.RedisClient
}

func NewRevoker(store redis.RedisClient) *Revoker {
	return &Revoker{store: store}
}

// AccessJTIForRefresh resolves the paired access jti through the
// refresh→access mapping record. Empty result means the mapping already
// expired or was revoked.
func (r *Revoker) AccessJTIForRefresh(ctx context.Context, uid, refreshJTI string) (string, error) {
	accessJTI, err := r.store.Get(ctx, mappingKey(uid, refreshJTI))
	if stderrors.Is(err, redis.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve token mapping: %w", err)
	}
	return accessJTI, nil
}

// RevokePair point-deletes one session's records: access token, refresh
// token and the mapping between them. Used on logout and on refresh
// rotation. An empty accessJTI skips the access record (the mapping was
// already gone).
func (r *Revoker) RevokePair(ctx context.Context, uid, accessJTI, refreshJTI string) error {
	keys := make([]string, 0, 3)
	if accessJTI != "" {
		keys = append(keys, tokenKey(uid, models.TokenKindAccess, accessJTI))
	}
	keys = append(keys,
		tokenKey(uid, models.TokenKindRefresh, refreshJTI),
		mappingKey(uid, refreshJTI),
	)
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to revoke token pair: %w", err)
	}
	slog.Info("token pair revoked", "user_id", uid, "refresh_jti", refreshJTI)
	return nil
}

// RevokeAll deletes every token record for a user via prefix scan: the
// "log out everywhere" path. Scan-then-delete is not atomic against
// concurrent issuance; a pair minted mid-revoke can survive. Calling
// RevokeAll again converges, so the race is accepted.
func (r *Revoker) RevokeAll(ctx context.Context, uid string) error {
	total := 0
	for _, prefix := range []string{
		tokenPrefix(uid, models.TokenKindAccess),
		tokenPrefix(uid, models.TokenKindRefresh),
		mappingPrefix(uid),
	} {
		n, err := r.store.DelPrefix(ctx, prefix)
		if err != nil {
			return fmt.Errorf("failed to revoke tokens under %q: %w", prefix, err)
		}
		total += n
	}
	slog.Info("all user tokens revoked", "user_id", uid, "deleted", total)
	return nil
}
