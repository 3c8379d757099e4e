package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/viatura/checkout/internal/booking"
	"github.com/viatura/checkout/internal/cart"
	"github.com/viatura/checkout/internal/checkout"
	"github.com/viatura/checkout/internal/events"
	"github.com/viatura/checkout/internal/payment"
	"github.com/viatura/checkout/internal/pricing"
)

// Session is one visitor's live cart and checkout machine. The outcome
// recorder plays the result screen's part: the machine hands the terminal
// payload to it through a replace-navigation.
type Session struct {
	ID      string
	Cart    *cart.Store
	Machine *checkout.Machine

	mu      sync.Mutex
	outcome *checkout.Outcome
}

// Replace implements checkout.Navigator.
func (s *Session) Replace(outcome checkout.Outcome) {
	s.mu.Lock()
	s.outcome = &outcome
	s.mu.Unlock()
}

// Outcome returns the payload handed off by the last successful checkout,
// nil when there is none.
func (s *Session) Outcome() *checkout.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Manager hydrates and caches sessions. Carts survive reloads through the
// storage port; machines are per-process.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	storage   cart.Storage
	client    booking.Client
	publisher events.Publisher
	delayer   payment.Delayer
	paypal    payment.Gateway
}

func NewManager(storage cart.Storage, client booking.Client, publisher events.Publisher, delayer payment.Delayer, paypal payment.Gateway) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		storage:   storage,
		client:    client,
		publisher: publisher,
		delayer:   delayer,
		paypal:    paypal,
	}
}

// Get returns the live session, hydrating the cart from storage on first
// sight of the id.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	store := cart.NewStore(sessionID, m.storage)
	if err := store.Hydrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to hydrate cart for session %s: %w", sessionID, err)
	}

	s := &Session{ID: sessionID, Cart: store}
	s.Machine = checkout.NewMachine(sessionID, store, checkout.NewCoordinator(m.client), s, m.publisher)

	m.mu.Lock()
	defer m.mu.Unlock()
	// another request may have hydrated the same session concurrently
	if existing, ok := m.sessions[sessionID]; ok {
		return existing, nil
	}
	m.sessions[sessionID] = s
	return s, nil
}

// BuildFlow constructs a fresh flow for the chosen method. This switch is the
// confirmation-selector match point: a new Kind must be handled here or
// selection fails loudly.
func (m *Manager) BuildFlow(kind payment.Kind, s *Session) (payment.Flow, error) {
	switch kind {
	case payment.KindCard:
		return payment.NewCardFlow(m.delayer), nil
	case payment.KindPayPal:
		total := pricing.ComputeBreakdown(s.Cart.Total()).GrandTotal
		return payment.NewPayPalFlow(m.paypal, total, "USD"), nil
	case payment.KindYape:
		return payment.NewYapeFlow(m.delayer), nil
	case payment.KindPlin:
		return payment.NewPlinFlow(m.delayer), nil
	case payment.KindMercadoPago:
		return payment.NewMercadoPagoFlow(m.delayer), nil
	default:
		return nil, fmt.Errorf("unknown payment method %q", kind)
	}
}
