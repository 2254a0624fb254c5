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

const stateStashTTL = 5 * time.Minute

// StateStash parks a freshly issued token pair under a one-time state key
// so an OAuth callback can redirect the browser without putting tokens in
// the URL. The frontend trades the state for the pair exactly once.
type StateStash struct {
	store redis.RedisClient
}

func NewStateStash(store redis.RedisClient) *StateStash {
	return &StateStash{store: store}
}

func (s *StateStash) Save(ctx context.Context, state string, pair *TokenPair) error {
	raw, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, stateKey(state), string(raw), stateStashTTL); err != nil {
		return fmt.Errorf("failed to stash tokens: %w", err)
	}
	return nil
}

// Take retrieves and deletes the pair. A second call with the same state
// fails with ErrInvalidState.
func (s *StateStash) Take(ctx context.Context, state string) (*TokenPair, error) {
	key := stateKey(state)
	raw, err := s.store.Get(ctx, key)
	if stderrors.Is(err, redis.ErrKeyNotFound) {
		return nil, pkgerrors.ErrInvalidState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stashed tokens: %w", err)
	}

	var pair TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return nil, pkgerrors.ErrInvalidState
	}
	if err := s.store.Del(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to consume stashed tokens: %w", err)
	}
	return &pair, nil
}
