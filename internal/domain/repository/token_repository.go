package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"student_registry_api/internal/common"
	"student_registry_api/internal/common/security"

	"github.com/redis/go-redis/v9"
)

// TokenRepository stores opaque session tokens. A user may hold many live
// tokens at once; RevokeAll drops every one of them in a single call.
type TokenRepository interface {
	Issue(ctx context.Context, userID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	RevokeAll(ctx context.Context, userID string) error
}

const (
	tokenKeyPrefix   = "token:"
	userTokensPrefix = "user_tokens:"
)

type redisTokenRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisTokenRepository(rdb *redis.Client, ttl time.Duration) TokenRepository {
	return &redisTokenRepository{rdb: rdb, ttl: ttl}
}

func (r *redisTokenRepository) Issue(ctx context.Context, userID string) (string, error) {
	token, err := security.NewToken()
	if err != nil {
		return "", err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+token, userID, r.ttl)
	pipe.SAdd(ctx, userTokensPrefix+userID, token)
	pipe.Expire(ctx, userTokensPrefix+userID, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redisTokenRepository.Issue: %w", err)
	}
	return token, nil
}

// Resolve maps a bearer token back to its user id and refreshes the
// sliding TTL on success.
func (r *redisTokenRepository) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := r.rdb.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("redisTokenRepository.Resolve: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Expire(ctx, tokenKeyPrefix+token, r.ttl)
	pipe.Expire(ctx, userTokensPrefix+userID, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redisTokenRepository.Resolve: %w", err)
	}
	return userID, nil
}

func (r *redisTokenRepository) RevokeAll(ctx context.Context, userID string) error {
	setKey := userTokensPrefix + userID
	tokens, err := r.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("redisTokenRepository.RevokeAll: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, tokenKeyPrefix+token)
	}
	keys = append(keys, setKey)

	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redisTokenRepository.RevokeAll: %w", err)
	}
	return nil
}
