package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/viatura/checkout/internal/checkout"
	"github.com/viatura/checkout/internal/payment"
	"github.com/viatura/checkout/internal/session"
)

// catalogRoot is where the empty-cart guard and a missing result payload
// send the visitor.
const catalogRoot = "/"

type CheckoutHandler struct {
	manager *session.Manager
}

func NewCheckoutHandler(manager *session.Manager) *CheckoutHandler {
	return &CheckoutHandler{manager: manager}
}

type CardDTO struct {
	Number string `json:"number"`
	Holder string `json:"holder"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type CheckoutRequestDTO struct {
	PaymentMethod string   `json:"payment_method"`
	Card          *CardDTO `json:"card,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Email         string   `json:"email,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	// empty-cart guard: not an error, just a redirect back to the catalog
	if s.Machine.ShouldRedirect() {
		http.Redirect(w, r, catalogRoot, http.StatusSeeOther)
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	kind, err := payment.ParseKind(req.PaymentMethod)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
		return
	}

	flow, err := h.manager.BuildFlow(kind, s)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payment_method", err.Error())
		return
	}

	if err := collectDetails(flow, &req); err != nil {
		var verr *payment.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, "validation_failed", verr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := s.Machine.SelectMethod(flow); err != nil {
		respondError(w, http.StatusConflict, "illegal_state", err.Error())
		return
	}

	outcome, err := s.Machine.Submit(r.Context())
	if err != nil {
		handleCheckoutError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, outcome)
}

// GET /api/v1/checkout/result
func (h *CheckoutHandler) Result(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	outcome := s.Outcome()
	if outcome == nil {
		// no payload, the result screen bounces to the catalog root
		http.Redirect(w, r, catalogRoot, http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

// POST /api/v1/checkout/abandon
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.Machine.Abandon(); err != nil {
		respondError(w, http.StatusConflict, "submission_in_progress", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// collectDetails feeds the request's method-specific fields into the flow.
// This switch is exhaustive over payment kinds.
func collectDetails(flow payment.Flow, req *CheckoutRequestDTO) error {
	switch f := flow.(type) {
	case *payment.CardFlow:
		if req.Card == nil {
			return &payment.ValidationError{Field: "card", Message: "card details are required"}
		}
		f.SetDetails(req.Card.Number, req.Card.Holder, req.Card.Expiry, req.Card.CVV)
		return f.Validate()
	case *payment.YapeFlow:
		return f.EnterPhone(req.Phone)
	case *payment.PlinFlow:
		return f.SetPhone(req.Phone)
	case *payment.MercadoPagoFlow:
		return f.SetEmail(req.Email)
	case *payment.PayPalFlow:
		return nil
	default:
		return errors.New("unsupported payment flow")
	}
}

func handleCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		http.Redirect(w, r, catalogRoot, http.StatusSeeOther)
	case errors.Is(err, checkout.ErrIllegalTransition),
		errors.Is(err, checkout.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, "illegal_state", err.Error())
	case errors.Is(err, checkout.ErrMethodNotReady),
		errors.Is(err, checkout.ErrNoMethodSelected):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		// method-confirmation or order-submission failure: the cart is
		// preserved and the user may retry
		respondError(w, http.StatusPaymentRequired, "payment_failed", err.Error())
	}
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := getSessionIDFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "missing_session", "missing session identifier")
		return nil, false
	}

	s, err := h.manager.Get(r.Context(), sessionID)
	if err != nil {
		log.Printf("request %s: failed to load session %s: %v", getRequestID(r.Context()), sessionID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load session")
		return nil, false
	}
	return s, true
}
