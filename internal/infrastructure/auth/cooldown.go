package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stderrors "errors"

	"github.com/avekens/threadlens/internal/infrastructure/redis"
	pkgerrors "github.com/avekens/threadlens/pkg/errors"
)

type cooldownMarker struct {
	Time int64 `json:"time"`
}

// Cooldown throttles repeat email sends per address and purpose. Markers
// live in the store under "{purpose}:{email}" and expire on their own, so
// a missing marker always means "allowed".
type Cooldown struct {
	store redis.RedisClient
	ttl   time.Duration
}

func NewCooldown(store redis.RedisClient, ttl time.Duration) *Cooldown {
	return &Cooldown{store: store, ttl: ttl}
}

// Check returns ErrCooldownActive with the remaining wait when the marker
// is still live. Store faults are surfaced, not swallowed: a broken store
// must not open the throttle.
func (c *Cooldown) Check(ctx context.Context, purpose, email string) (time.Duration, error) {
	raw, err := c.store.Get(ctx, cooldownKey(purpose, email))
	if stderrors.Is(err, redis.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to check cooldown: %w", err)
	}

	var marker cooldownMarker
	if err := json.Unmarshal([]byte(raw), &marker); err != nil {
		// Corrupt marker: let it expire, do not block the user forever.
		return 0, nil
	}

	elapsed := time.Since(time.Unix(marker.Time, 0))
	if elapsed < c.ttl {
		return c.ttl - elapsed, pkgerrors.ErrCooldownActive
	}
	return 0, nil
}

// Mark arms the marker. SETNX keeps a concurrent duplicate send from
// extending an already running cooldown.
func (c *Cooldown) Mark(ctx context.Context, purpose, email string) error {
	raw, err := json.Marshal(cooldownMarker{Time: time.Now().Unix()})
	if err != nil {
		return err
	}
	_, err = c.store.SetNX(ctx, cooldownKey(purpose, email), string(raw), c.ttl)
	return err
}
