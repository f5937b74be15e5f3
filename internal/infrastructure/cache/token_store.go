package cache

import (
	"context"
	"fmt"
	"time"

	"go-healthcare-practice/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// TokenStore tracks issued tokens so they can be revoked before they expire.
type TokenStore interface {
	Save(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error)
	Delete(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

type redisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) TokenStore {
	return &redisTokenStore{client: client}
}

// TokenKey is access_token:<user>:<jti> or refresh_token:<user>:<jti>.
func TokenKey(tokenType jwt.TokenType, userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s_token:%s:%s", tokenType, userID.String(), tokenID)
}

func (s *redisTokenStore) Save(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, TokenKey(tokenType, userID, tokenID), "valid", ttl).Err()
}

func (s *redisTokenStore) Exists(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, TokenKey(tokenType, userID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisTokenStore) Delete(ctx context.Context, tokenType jwt.TokenType, userID uuid.UUID, tokenID string) error {
	return s.client.Del(ctx, TokenKey(tokenType, userID, tokenID)).Err()
}

// DeleteAll revokes every token of userID.
func (s *redisTokenStore) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	for _, tokenType := range []jwt.TokenType{jwt.AccessToken, jwt.RefreshToken} {
		pattern := fmt.Sprintf("%s_token:%s:*", tokenType, userID.String())
		iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
