package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"oauthd/internal/models"
)

type CacheService interface {
	// Access token record caching. Authorization codes are never cached:
	// their single-use check must always hit the store's atomic consume path.
	GetToken(ctx context.Context, tokenHash string) (*models.Token, error)
	SetToken(ctx context.Context, token *models.Token, ttl time.Duration) error
	DeleteToken(ctx context.Context, tokenHash string) error

	// Session management for the current-user provider
	SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error

	// Connectivity check for health endpoints
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port style addresses as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func tokenKey(tokenHash string) string {
	return fmt.Sprintf("oauthd:token:%s", tokenHash)
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("oauthd:session:%s", sessionID)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("oauthd:ratelimit:%s", key)
}

func (r *redisCacheService) GetToken(ctx context.Context, tokenHash string) (*models.Token, error) {
	data, err := r.client.Get(ctx, tokenKey(tokenHash)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var token models.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *redisCacheService) SetToken(ctx context.Context, token *models.Token, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, tokenKey(token.TokenHash), data, ttl).Err()
}

func (r *redisCacheService) DeleteToken(ctx context.Context, tokenHash string) error {
	return r.client.Del(ctx, tokenKey(tokenHash)).Err()
}

func (r *redisCacheService) SetSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return r.client.Set(ctx, sessionKey(sessionID), userID, ttl).Err()
}

func (r *redisCacheService) GetSession(ctx context.Context, sessionID string) (string, error) {
	userID, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("session not found")
		}
		return "", err
	}
	return userID, nil
}

func (r *redisCacheService) DeleteSession(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Get(ctx, rateLimitKey(key)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= limit, nil
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	k := rateLimitKey(key)
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		// First hit in the window sets its expiry
		return r.client.Expire(ctx, k, window).Err()
	}
	return nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
