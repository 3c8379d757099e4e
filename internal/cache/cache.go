package cache

import (
	"context"
	"errors"

	"github.com/viatura/checkout/internal/cart"
)

type CartCache interface {
	Get(ctx context.Context, sessionID string) ([]cart.Line, error)
	Set(ctx context.Context, sessionID string, lines []cart.Line) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
