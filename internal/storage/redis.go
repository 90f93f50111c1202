package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andyleap/fitauth/internal/models"
	"github.com/redis/go-redis/v9"
)

type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStorage) stateKey(state string) string {
	return fmt.Sprintf("%soauth_state:%s", r.prefix, state)
}

func (r *RedisStorage) tokenKey(subject string) string {
	return fmt.Sprintf("%soauth_token:%s", r.prefix, subject)
}

func (r *RedisStorage) SaveAuthorizationRequest(ctx context.Context, req *models.AuthorizationRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal authorization request: %w", err)
	}

	ttl := time.Until(req.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("authorization request already expired")
	}

	if err := r.client.Set(ctx, r.stateKey(req.State), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save authorization request: %w", err)
	}
	return nil
}

// TakeAuthorizationRequest uses GETDEL so concurrent callbacks cannot both
// consume the same state.
func (r *RedisStorage) TakeAuthorizationRequest(ctx context.Context, state string) (*models.AuthorizationRequest, error) {
	data, err := r.client.GetDel(ctx, r.stateKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take authorization request: %w", err)
	}

	var req models.AuthorizationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authorization request: %w", err)
	}
	return &req, nil
}

func (r *RedisStorage) SaveToken(ctx context.Context, subject string, tok models.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := r.client.Set(ctx, r.tokenKey(subject), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetToken(ctx context.Context, subject string) (*models.Token, error) {
	data, err := r.client.Get(ctx, r.tokenKey(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var tok models.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &tok, nil
}

func (r *RedisStorage) DeleteToken(ctx context.Context, subject string) error {
	return r.client.Del(ctx, r.tokenKey(subject)).Err()
}
