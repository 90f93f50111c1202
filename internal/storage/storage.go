package storage

import (
	"context"
	"errors"

	"github.com/andyleap/fitauth/internal/models"
)

var ErrNotFound = errors.New("storage: not found")

// StateStorage keeps pending authorization requests keyed by state. Take
// removes the request it returns, so a state can be consumed only once.
type StateStorage interface {
	SaveAuthorizationRequest(ctx context.Context, req *models.AuthorizationRequest) error
	TakeAuthorizationRequest(ctx context.Context, state string) (*models.AuthorizationRequest, error)
}

// TokenStorage keeps the latest token per subject (the resource owner id).
type TokenStorage interface {
	SaveToken(ctx context.Context, subject string, tok models.Token) error
	GetToken(ctx context.Context, subject string) (*models.Token, error)
	DeleteToken(ctx context.Context, subject string) error
}
