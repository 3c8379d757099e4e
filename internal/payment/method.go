package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the closed set of payment method variants.
type Kind string

const (
	KindCard        Kind = "card"
	KindPayPal      Kind = "paypal"
	KindYape        Kind = "yape"
	KindPlin        Kind = "plin"
	KindMercadoPago Kind = "mercadopago"
)

func (k Kind) String() string {
	return string(k)
}

// ParseKind maps a wire name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCard, KindPayPal, KindYape, KindPlin, KindMercadoPago:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown payment method %q", s)
	}
}

// Stage is the confirmation progress of a flow.
type Stage string

const (
	StageCollecting Stage = "COLLECTING"
	StageConfirming Stage = "CONFIRMING"
	StageResolved   Stage = "RESOLVED"
)

// Detail is the terminal payload a resolved flow hands to the checkout
// outcome. Only the fields relevant to the method are set.
type Detail struct {
	CardLast4     string `json:"card_last4,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Flow is the confirmation protocol of a selected payment method. Flow state
// is transient: switching methods discards the previous flow entirely.
type Flow interface {
	Kind() Kind
	Stage() Stage
	// ReadyToSubmit reports whether the collected details pass local validation.
	ReadyToSubmit() bool
	// Confirm runs the method's confirmation protocol to completion and
	// returns the terminal detail payload.
	Confirm(ctx context.Context) (Detail, error)
}

// Delayer stands in for the latency of an external confirmation round trip.
// The simulated delays are fixed, but the abstraction is context-aware so a
// real integration can add timeout and cancel semantics without reshaping
// the flows.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

type timerDelayer struct{}

func (timerDelayer) Delay(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StandardDelayer sleeps for real.
var StandardDelayer Delayer = timerDelayer{}

// NoDelay resolves immediately, for tests.
type NoDelay struct{}

func (NoDelay) Delay(context.Context, time.Duration) error { return nil }

// ValidationError is a local, synchronous field error. It blocks submission
// before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newTransactionID() string {
	return "TXN-" + uuid.NewString()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
