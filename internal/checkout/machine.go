package checkout

import (
	"context"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/viatura/checkout/internal/cart"
	"github.com/viatura/checkout/internal/events"
	"github.com/viatura/checkout/internal/payment"
)

// Outcome is the terminal payload handed to the result screen after a fully
// successful checkout.
type Outcome struct {
	TotalPaid     decimal.Decimal `json:"total_paid"`
	BookingsCount int             `json:"bookings_count"`
	PaymentMethod payment.Kind    `json:"payment_method"`
	Detail        payment.Detail  `json:"detail"`
	OrderIDs      []string        `json:"order_ids"`
}

// Navigator receives the outcome via a history-replace: the result screen
// must not be reachable again through back-navigation.
type Navigator interface {
	Replace(outcome Outcome)
}

// Machine drives one session's checkout: method selection, confirmation,
// order submission and the terminal transition.
type Machine struct {
	mu          sync.Mutex
	sessionID   string
	cart        *cart.Store
	coordinator *Coordinator
	navigator   Navigator
	publisher   events.Publisher

	state State
	flow  payment.Flow
	// submitting gates the empty-cart redirect during the window between
	// clearing the cart and handing off the outcome.
	submitting bool
	lastErr    error
	outcome    *Outcome
}

func NewMachine(sessionID string, store *cart.Store, coordinator *Coordinator, navigator Navigator, publisher events.Publisher) *Machine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Machine{
		sessionID:   sessionID,
		cart:        store,
		coordinator: coordinator,
		navigator:   navigator,
		publisher:   publisher,
		state:       StateIdle,
	}
}

// SelectMethod installs a fresh flow for the chosen method. The previous
// flow's collected details are discarded entirely; nothing leaks across
// methods.
func (m *Machine) SelectMethod(flow payment.Flow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !CanTransitionTo(m.state, StateMethodSelected) {
		return ErrIllegalTransition
	}
	m.flow = flow
	m.state = StateMethodSelected
	m.lastErr = nil
	return nil
}

// Flow exposes the currently selected flow, nil when none is selected.
func (m *Machine) Flow() payment.Flow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flow
}

// Submit runs the selected method's confirmation and then one order-creation
// call per cart line. Success removes the submitted lines and replaces
// navigation with the outcome; failure preserves the cart for a
// user-initiated retry.
func (m *Machine) Submit(ctx context.Context) (*Outcome, error) {
	m.mu.Lock()
	if m.submitting {
		m.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if !CanTransitionTo(m.state, StateSubmitting) {
		m.mu.Unlock()
		return nil, ErrIllegalTransition
	}
	if m.flow == nil {
		m.mu.Unlock()
		return nil, ErrNoMethodSelected
	}
	if m.cart.Len() == 0 {
		m.mu.Unlock()
		return nil, ErrEmptyCart
	}
	if !m.flow.ReadyToSubmit() {
		m.mu.Unlock()
		return nil, ErrMethodNotReady
	}

	flow := m.flow
	lines := m.cart.Lines()
	totalPaid := m.cart.Total()
	m.state = StateSubmitting
	m.submitting = true
	m.mu.Unlock()

	detail, err := flow.Confirm(ctx)
	if err != nil {
		return nil, m.fail(err)
	}

	result, err := m.coordinator.SubmitAll(ctx, lines, flow.Kind())
	if err != nil {
		// Some backend orders may already exist; the cart is kept as-is so
		// the user can retry, duplicates and all.
		return nil, m.fail(err)
	}

	outcome := Outcome{
		TotalPaid:     totalPaid,
		BookingsCount: len(lines),
		PaymentMethod: flow.Kind(),
		Detail:        detail,
		OrderIDs:      result.OrderIDs,
	}

	// Only the snapshotted lines were submitted; a line added while the
	// confirmation was pending must survive into the next purchase.
	submitted := make([]string, len(lines))
	for i, line := range lines {
		submitted[i] = line.ID
	}
	m.cart.ClearLines(submitted)

	event := events.CompletedEvent{
		SessionID:     m.sessionID,
		OrderIDs:      result.OrderIDs,
		BookingsCount: outcome.BookingsCount,
		TotalPaid:     totalPaid,
		PaymentMethod: flow.Kind().String(),
	}
	if errPublish := m.publisher.Publish(ctx, event); errPublish != nil {
		log.Printf("failed to publish completed event for session %s: %v", m.sessionID, errPublish)
	}

	if m.navigator != nil {
		m.navigator.Replace(outcome)
	}

	m.mu.Lock()
	m.state = StateSucceeded
	m.outcome = &outcome
	m.submitting = false
	m.mu.Unlock()

	return &outcome, nil
}

func (m *Machine) fail(err error) error {
	m.mu.Lock()
	m.state = StateFailed
	m.lastErr = err
	m.submitting = false
	m.mu.Unlock()
	return err
}

// ShouldRedirect reports whether checkout was reached with an empty cart and
// no submission in flight. This is a navigation guard, not an error.
func (m *Machine) ShouldRedirect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Len() == 0 && !m.submitting && !m.state.IsTerminal()
}

// Abandon resets the machine before submission begins. Once submitting, the
// in-flight requests cannot be cancelled.
func (m *Machine) Abandon() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateSubmitting || m.submitting {
		return ErrSubmissionInFlight
	}
	m.state = StateIdle
	m.flow = nil
	m.lastErr = nil
	return nil
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Outcome returns the terminal payload after a successful checkout,
// nil otherwise.
func (m *Machine) Outcome() *Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}
