package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andyleap/fitauth/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

type MemoryStorage struct {
	states *gocache.Cache
	tokens *gocache.Cache
	// serializes take so a state is handed out once
	mu sync.Mutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		states: gocache.New(models.AuthorizationRequestTTL, 5*time.Minute),
		tokens: gocache.New(gocache.NoExpiration, 0),
	}
}

func (m *MemoryStorage) SaveAuthorizationRequest(ctx context.Context, req *models.AuthorizationRequest) error {
	ttl := time.Until(req.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("authorization request already expired")
	}

	stored := *req
	stored.Scopes = append([]string(nil), req.Scopes...)
	m.states.Set(req.State, &stored, ttl)
	return nil
}

func (m *MemoryStorage) TakeAuthorizationRequest(ctx context.Context, state string) (*models.AuthorizationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.states.Get(state)
	if !ok {
		return nil, ErrNotFound
	}
	m.states.Delete(state)
	return v.(*models.AuthorizationRequest), nil
}

func (m *MemoryStorage) SaveToken(ctx context.Context, subject string, tok models.Token) error {
	m.tokens.Set(subject, tok, gocache.NoExpiration)
	return nil
}

func (m *MemoryStorage) GetToken(ctx context.Context, subject string) (*models.Token, error) {
	v, ok := m.tokens.Get(subject)
	if !ok {
		return nil, ErrNotFound
	}
	tok := v.(models.Token)
	return &tok, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, subject string) error {
	m.tokens.Delete(subject)
	return nil
}
