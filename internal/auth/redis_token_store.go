package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps issued-token hashes in Redis. Expiry is handled by
// TTL, so tokens disappear on their own and RevokeAll only has to clear the
// user's live set.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(tokenHash string) string {
	return fmt.Sprintf("auth_token:%s", tokenHash)
}

func userTokensKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_tokens:%s", userID.String())
}

// Store registers a token hash under the user with a TTL matching the
// token's lifetime.
func (s *RedisTokenStore) Store(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token expiration time is in the past")
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, tokenKey(tokenHash), userID.String(), ttl)
	pipe.SAdd(ctx, userTokensKey(userID), tokenHash)
	pipe.Expire(ctx, userTokensKey(userID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	return nil
}

// Exists reports whether the token hash is still registered (issued and not
// revoked or expired).
func (s *RedisTokenStore) Exists(ctx context.Context, tokenHash string) (bool, error) {
	count, err := s.client.Exists(ctx, tokenKey(tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return count > 0, nil
}

// RevokeAll deletes every registered token for the user.
func (s *RedisTokenStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	tokenHashes, err := s.client.SMembers(ctx, userTokensKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to get user tokens: %w", err)
	}

	pipe := s.client.Pipeline()
	for _, tokenHash := range tokenHashes {
		pipe.Del(ctx, tokenKey(tokenHash))
	}
	pipe.Del(ctx, userTokensKey(userID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}

	return nil
}
