package repository

import (
	"context"
	"errors"

	"github.com/viatura/checkout/internal/cart"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository defines the durable cart persistence operations.
// Consumers define this interface, not the MongoDB implementation.
type CartRepository interface {
	Get(ctx context.Context, sessionID string) ([]cart.Line, error)
	Upsert(ctx context.Context, sessionID string, lines []cart.Line) error
	Delete(ctx context.Context, sessionID string) error
}
